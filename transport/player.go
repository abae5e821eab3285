// Package transport drives live playback: a clock counts steps, a worker
// generates ahead of it and the player turns events into timed midi
// messages on a Sink.
package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
	"github.com/jsphweid/backingband/worker"
	gm "gitlab.com/gomidi/midi/v2"
)

// AdvanceEvery is how many steps pass between advance requests.
const AdvanceEvery = 16

var channels = map[model.Instrument]uint8{
	model.Comping: constants.CompingChannel,
	model.Bass:    constants.BassChannel,
	model.Lead:    constants.LeadChannel,
	model.Harmony: constants.HarmonyChannel,
	model.Drums:   constants.DrumChannel,
}

var programs = map[model.Instrument]uint8{
	model.Comping: constants.CompingProgram,
	model.Bass:    constants.BassProgram,
	model.Lead:    constants.LeadProgram,
	model.Harmony: constants.HarmonyProgram,
}

type Player struct {
	clock  Clock
	worker *worker.Worker
	sink   Sink
	snap   model.Snapshot

	mu      sync.Mutex
	ref     Tick
	pending map[*time.Timer]struct{}
	errors  int

	// base tempo plus the conductor's drift, as last sent to the clock
	bpm float64
}

func NewPlayer(clock Clock, w *worker.Worker, sink Sink, snap model.Snapshot) *Player {
	return &Player{
		clock:   clock,
		worker:  w,
		sink:    sink,
		snap:    snap.Clone(),
		bpm:     snap.BPM,
		pending: map[*time.Timer]struct{}{},
	}
}

func (p *Player) stepsPerBeat() int {
	if p.snap.Arrangement == nil || p.snap.Arrangement.Meter.StepsPerBeat <= 0 {
		return 4
	}
	return p.snap.Arrangement.Meter.StepsPerBeat
}

// Run plays until ctx is done, then silences everything it scheduled.
func (p *Player) Run(ctx context.Context) {
	defer p.cancelTimers()

	for inst, program := range programs {
		p.send(gm.ProgramChange(channels[inst], program))
	}
	client := p.worker.Client()
	if err := client.Send(worker.Sync{Snapshot: p.snap}); err != nil {
		log.Printf("WARN could not sync worker: %v", err)
	}

	ticks := p.clock.Ticks()
	events := p.worker.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			p.mu.Lock()
			p.ref = tick
			p.mu.Unlock()
			if tick.Step%AdvanceEvery == 0 {
				if err := client.Send(worker.Advance{Step: tick.Step}); err != nil {
					log.Printf("WARN skipped advance at step %d: %v", tick.Step, err)
				}
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			p.handle(e)
		}
	}
}

func (p *Player) handle(e worker.Event) {
	switch ev := e.(type) {
	case worker.EventNotes:
		if tempo := p.snap.BPM + ev.TempoOffset; tempo > 0 {
			p.mu.Lock()
			p.bpm = tempo
			p.mu.Unlock()
			p.clock.SetTempo(tempo)
		}
		for _, note := range ev.Notes {
			p.schedule(note)
		}
	case worker.EventError:
		log.Printf("ERROR worker failed on %s: %v", ev.Command, ev.Err)
	}
}

// Tempo is the tempo the clock was last asked to run at.
func (p *Player) Tempo() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bpm
}

func (p *Player) stepDuration() time.Duration {
	return StepDuration(p.Tempo(), p.stepsPerBeat())
}

// At returns the wall time of a fractional step position, measured from
// the most recent tick. The tick's own step keeps the duration it started
// with, later steps follow the current tempo the way the clock will.
func (p *Player) At(pos float64) time.Time {
	p.mu.Lock()
	ref := p.ref
	p.mu.Unlock()

	dur := p.stepDuration()
	first := ref.Duration
	if first <= 0 {
		first = dur
	}
	steps := pos - float64(ref.Step)
	var delta float64
	if steps <= 1 {
		delta = steps * float64(first)
	} else {
		delta = float64(first) + (steps-1)*float64(dur)
	}
	delta += float64(SwingShift(pos, dur, p.snap.Swing, p.snap.SwingEighths) - SwingShift(float64(ref.Step), dur, p.snap.Swing, p.snap.SwingEighths))
	return ref.At.Add(time.Duration(delta))
}

// SwingShift is how late a step sounds under swing. Off steps are pushed
// back by a third of a step at full swing.
func SwingShift(pos float64, stepDur time.Duration, swing float64, eighths bool) time.Duration {
	step := int(pos)
	if eighths {
		step /= 2
	}
	if util.Mod(step, 2) == 0 {
		return 0
	}
	return time.Duration(float64(stepDur) / 3 * swing / 100)
}

func (p *Player) schedule(e model.NoteEvent) {
	ch, ok := channels[e.Instrument]
	if !ok {
		return
	}
	start := float64(e.Step) + e.Offset
	for _, c := range e.Controls {
		msg := gm.ControlChange(ch, uint8(util.Clamp(c.Controller, 0, 127)), uint8(util.Clamp(c.Value, 0, 127)))
		p.at(p.At(start+c.Offset), msg)
	}
	if !e.Sounding() {
		return
	}

	key := uint8(util.Clamp(e.Midi, 0, 127))
	on := p.At(start)
	off := p.At(start + e.Duration)
	if e.Bend > 0 {
		p.at(on, gm.Pitchbend(ch, midi.BendValue(-float64(e.Bend))))
		p.at(on.Add(p.stepDuration()*4/5), gm.Pitchbend(ch, 0))
	}
	p.at(on, gm.NoteOn(ch, key, midi.ScaleVelocity(e.Velocity, e.Voices)))
	p.at(off, gm.NoteOff(ch, key))
}

// at sends msg at t, or right away when t has passed.
func (p *Player) at(t time.Time, msg gm.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var timer *time.Timer
	timer = time.AfterFunc(time.Until(t), func() {
		p.mu.Lock()
		delete(p.pending, timer)
		p.mu.Unlock()
		p.send(msg)
	})
	p.pending[timer] = struct{}{}
}

// send logs and skips a failing message so one bad event never stops the
// rest of the batch.
func (p *Player) send(msg gm.Message) {
	if err := p.sink.Send(msg.Bytes()); err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		log.Printf("WARN could not send %s: %v", msg.String(), err)
	}
}

// Errors counts messages the sink refused.
func (p *Player) Errors() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors
}

// Pending counts scheduled messages that have not been sent.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Player) cancelTimers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for t := range p.pending {
		t.Stop()
	}
	p.pending = map[*time.Timer]struct{}{}
}
