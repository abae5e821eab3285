// Package worker owns a scheduler and serves it over channels. All
// generation state lives on the worker goroutine; callers only exchange
// messages with it.
package worker

import (
	"context"
	"log"
	"reflect"

	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/file"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/scheduler"
	"github.com/jsphweid/backingband/timeline"
	"github.com/jsphweid/backingband/util"
	"github.com/pkg/errors"
)

const (
	CommandBuffer = 32
	EventBuffer   = 64
)

type Options struct {
	Seed      int64
	Lookahead int
	Snapshot  *model.Snapshot
}

type Worker struct {
	commands chan Command
	events   chan Event
	client   *Client

	snap    model.Snapshot
	sched   *scheduler.Scheduler
	current int

	// called before each command, used by tests to inject failures
	before func(Command)
}

func New(opts Options) *Worker {
	snap := model.DefaultSnapshot()
	if opts.Snapshot != nil {
		snap = opts.Snapshot.Clone()
	}
	if opts.Seed != 0 {
		snap.Seed = opts.Seed
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = constants.GetLookahead()
	}
	w := &Worker{
		commands: make(chan Command, CommandBuffer),
		events:   make(chan Event, EventBuffer),
		snap:     snap,
		sched:    scheduler.New(snap, util.NewRand(snap.Seed), opts.Lookahead),
	}
	w.client = newClient(w.commands)
	return w
}

func (w *Worker) Client() *Client { return w.client }

func (w *Worker) Events() <-chan Event { return w.events }

// Run handles commands until ctx is done or the client is closed. The
// events channel is closed on return.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-w.commands:
			if !ok {
				return
			}
			w.handle(cmd)
		}
	}
}

func (w *Worker) handle(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR worker panicked on %s: %v", cmd.command(), r)
			w.emit(EventError{Command: cmd.command(), Err: errors.Errorf("panic: %v", r)})
		}
	}()
	if w.before != nil {
		w.before(cmd)
	}

	switch c := cmd.(type) {
	case Sync:
		w.sync(c.Snapshot)
	case Advance:
		w.current = c.Step
		notes := w.sched.Advance(c.Step)
		w.emit(EventNotes{
			Step:        c.Step,
			Notes:       notes,
			Intensity:   w.sched.Band().Intensity,
			TempoOffset: w.sched.Conductor().TempoOffset(),
			Conductor:   w.sched.Conductor().Snapshot(),
		})
	case Flush:
		w.current = c.Step
		w.sched.Flush(c.Step, c.Prime)
	case Prime:
		w.sched.Prime(c.Steps)
	case Export:
		res, err := timeline.Render(w.snap, c.Options)
		if err != nil {
			w.emit(EventError{Command: cmd.command(), Err: err})
			return
		}
		w.emit(EventExport{Data: res.Data, Filename: file.MidiName(c.Options.Name), TotalTicks: res.TotalTicks})
	case Stop:
		w.current = 0
		w.sched.Conductor().Reset()
		w.sched.Flush(0, 0)
		w.emit(EventStopped{})
	default:
		w.emit(EventError{Command: cmd.command(), Err: errors.Errorf("unknown command %T", cmd)})
	}
}

// sync applies the snapshot. A new arrangement invalidates everything
// generated ahead, so it flushes at the current step.
func (w *Worker) sync(snap model.Snapshot) {
	snap = snap.Clone()
	changed := !reflect.DeepEqual(w.snap.Arrangement, snap.Arrangement)
	w.snap = snap
	w.sched.Configure(snap)
	if changed {
		w.sched.Flush(w.current, 0)
	}
}

// emit never blocks: a slow consumer loses events rather than stalling
// generation.
func (w *Worker) emit(e Event) {
	select {
	case w.events <- e:
	default:
		log.Printf("WARN worker: event channel full, dropping %T", e)
	}
}
