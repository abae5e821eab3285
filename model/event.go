package model

const SustainController = 64

// ControlEvent is a controller change tied to a NoteEvent. Offset is in steps
// relative to the note's step and may be negative.
type ControlEvent struct {
	Controller int     `json:"controller"`
	Value      int     `json:"value"`
	Offset     float64 `json:"offset"`
}

// NoteEvent is created by a generator for exactly one step. Durations and
// offsets are measured in steps.
type NoteEvent struct {
	Instrument Instrument     `json:"instrument"`
	Step       int            `json:"step"`
	Midi       int            `json:"midi"`
	Freq       float64        `json:"freq"`
	Velocity   float64        `json:"velocity"`
	Duration   float64        `json:"duration"`
	Offset     float64        `json:"offset"`
	Controls   []ControlEvent `json:"controls,omitempty"`
	Muted      bool           `json:"muted,omitempty"`
	Dry        bool           `json:"dry,omitempty"`
	DoubleStop bool           `json:"double_stop,omitempty"`
	// semitones below Midi the note scoops up from
	Bend   int `json:"bend,omitempty"`
	Voices int `json:"voices"`
}

// IsControlOnly reports whether the event only carries controller changes.
func (e NoteEvent) IsControlOnly() bool {
	return e.Midi <= 0 && e.Freq <= 0 && len(e.Controls) > 0
}

// Sounding reports whether the event produces an audible note.
func (e NoteEvent) Sounding() bool {
	return !e.Muted && e.Midi > 0 && e.Velocity > 0
}

// Sustain builds a sustain pedal change at the given offset.
func Sustain(on bool, offset float64) ControlEvent {
	value := 0
	if on {
		value = 127
	}
	return ControlEvent{Controller: SustainController, Value: value, Offset: offset}
}
