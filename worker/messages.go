package worker

import (
	"github.com/jsphweid/backingband/conductor"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/timeline"
)

// Command is a message sent to the worker.
type Command interface {
	command() string
}

// Sync replaces the worker's snapshot. The worker keeps its own deep copy.
type Sync struct{ Snapshot model.Snapshot }

// Advance asks for every event up to Step plus the lookahead.
type Advance struct{ Step int }

// Flush drops buffered generation at Step and optionally primes Prime
// steps of memory before it.
type Flush struct{ Step, Prime int }

// Prime warms generator memory without output. Zero means two loops.
type Prime struct{ Steps int }

// Export renders the current snapshot to a midi file.
type Export struct{ Options timeline.Options }

// Stop resets generation to step 0 and clears the conductor.
type Stop struct{}

func (Sync) command() string    { return "sync" }
func (Advance) command() string { return "advance" }
func (Flush) command() string   { return "flush" }
func (Prime) command() string   { return "prime" }
func (Export) command() string  { return "export" }
func (Stop) command() string    { return "stop" }

// CommandName is the name EventError.Command carries for cmd.
func CommandName(cmd Command) string { return cmd.command() }

// Event is a message sent back by the worker.
type Event interface {
	event()
}

type EventNotes struct {
	Step        int
	Notes       []model.NoteEvent
	Intensity   float64
	TempoOffset float64
	Conductor   conductor.State
}

type EventExport struct {
	Data       []byte
	Filename   string
	TotalTicks uint32
}

// EventError reports a command that failed or panicked. The worker keeps
// running.
type EventError struct {
	Command string
	Err     error
}

type EventStopped struct{}

func (EventNotes) event()   {}
func (EventExport) event()  {}
func (EventError) event()   {}
func (EventStopped) event() {}
