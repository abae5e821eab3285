// Package generator holds the per-instrument note generators. Each
// generator owns its memory and is driven one step at a time through a
// Frame; the shared Band carries the signals instruments listen to.
package generator

import (
	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

type Generator interface {
	Instrument() model.Instrument
	// Generate returns the events starting at f.Step. It never panics on
	// missing chord data; it returns nil instead.
	Generate(f *Frame) []model.NoteEvent
	// Reset clears all generator-local memory.
	Reset()
}

// Frame is everything a generator may look at for one step.
type Frame struct {
	Step  int // absolute, unwrapped step
	Pos   arrangement.Position
	Next  *model.Chord
	Beat  model.BeatInfo
	Meter model.Meter
	Key   int
	Minor bool
	Band  *Band
}

func (f *Frame) Chord() *model.Chord { return f.Pos.Chord }

func (f *Frame) StepsPerMeasure() int {
	if spm := f.Meter.StepsPerMeasure(); spm > 0 {
		return spm
	}
	return 16
}

func (f *Frame) StepsPerBeat() int {
	if f.Meter.StepsPerBeat > 0 {
		return f.Meter.StepsPerBeat
	}
	return 4
}

func (f *Frame) IsChordStart() bool { return f.Pos.StepInChord == 0 }

// ChordStepsLeft is the number of steps until the current chord ends.
func (f *Frame) ChordStepsLeft() int {
	return f.Pos.ChordSteps - f.Pos.StepInChord
}

// Band is the blackboard shared by the conductor and every generator of
// one session.
type Band struct {
	Genre      model.Genre
	Intensity  float64
	Complexity float64

	// last pitch of the bass, 0 when the bass is disabled or silent
	BassPitch int
	LeadPitch int
	// the lead note started on the step being generated
	LeadNote *model.NoteEvent

	SoloistEnabled   bool
	SoloistBusy      bool
	SoloistResting   bool
	SoloistReplaying bool
	NotesInPhrase    int

	Fill *Fill
}

func NewBand(s model.Snapshot) *Band {
	return &Band{
		Genre:          s.Genre,
		Intensity:      util.Clamp(s.Intensity, 0.01, 1),
		Complexity:     util.Clamp(s.Complexity, 0, 1),
		SoloistEnabled: s.IsEnabled(model.Lead),
	}
}

func (b *Band) FillActive(step int) bool {
	return b.Fill != nil && step >= b.Fill.Start && step < b.Fill.End
}

// ResetMemory clears everything the band remembers about recent playing.
func (b *Band) ResetMemory() {
	b.BassPitch = 0
	b.LeadPitch = 0
	b.LeadNote = nil
	b.SoloistBusy = false
	b.SoloistResting = false
	b.SoloistReplaying = false
	b.NotesInPhrase = 0
	b.Fill = nil
}

// New builds the generator for inst from the snapshot's style settings.
func New(inst model.Instrument, s model.Snapshot, rng util.Rand) Generator {
	switch inst {
	case model.Bass:
		return NewBass(s.BassStyle, rng)
	case model.Lead:
		return NewLead(s.LeadStyle, rng)
	case model.Comping:
		return NewComping(s.CompingStyle, rng)
	case model.Harmony:
		return NewHarmony(s.HarmonyStyle, rng)
	case model.Drums:
		var meter model.Meter
		if s.Arrangement != nil {
			meter = s.Arrangement.Meter
		}
		return NewDrums(s.DrumGrid, s.Genre, meter, rng)
	}
	return nil
}

// nearestPitch places pitch class pc in the octave closest to ref, inside [lo, hi].
func nearestPitch(pc, ref, lo, hi int) int {
	p := ref + util.Mod(pc-ref, 12)
	if p-ref > 6 {
		p -= 12
	}
	for p < lo {
		p += 12
	}
	for p > hi {
		p -= 12
	}
	if p < lo {
		// range narrower than an octave
		p = lo + util.Mod(pc-lo, 12)
	}
	return p
}

func noteEvent(midi int, velocity, duration, offset float64) model.NoteEvent {
	return model.NoteEvent{
		Midi:     midi,
		Velocity: util.Clamp(velocity, 0, 1),
		Duration: duration,
		Offset:   offset,
	}
}
