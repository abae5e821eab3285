package timeline

import (
	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/generator"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/scheduler"
	"github.com/jsphweid/backingband/util"
)

var (
	dominantMajor = []int{0, 4, 10, 14}
	dominantMinor = []int{0, 4, 10, 13}
	tonicMajor    = []int{0, 2, 4, 7, 9}
	tonicMinor    = []int{0, 2, 3, 7, 10}
)

const (
	strumSpread     = 0.12 // steps between strummed notes
	cadenceVelocity = 0.75
	defaultLeadNote = 72
)

// nearest returns the pitch of class pc closest to ref.
func nearest(pc, ref int) int {
	return ref + util.Mod(pc-ref+6, 12) - 6
}

// cadence closes the performance with one measure of V to I.
func (w *writer) cadence(arr *model.Arrangement, sch *scheduler.Scheduler) {
	start := w.grid.cadenceStart()
	spm := arr.StepsPerMeasure()
	half := spm / 2
	tonic := arr.Key
	dominant := util.Mod(tonic+7, 12)

	v7, one := dominantMajor, tonicMajor
	if arr.Minor {
		v7, one = dominantMinor, tonicMinor
	}

	note := func(inst model.Instrument, step int, midi int, dur, offset, velocity float64, voices int) {
		w.write(model.NoteEvent{
			Instrument: inst,
			Step:       step,
			Midi:       midi,
			Velocity:   velocity,
			Duration:   dur,
			Offset:     offset,
			Voices:     voices,
		})
	}

	bassRef := generator.BassCenter
	if p := sch.LastPitch(model.Bass); p > 0 {
		bassRef = p
	}
	note(model.Bass, start, nearest(dominant, bassRef), float64(half), 0, cadenceVelocity, 1)
	note(model.Bass, start+half, nearest(tonic, bassRef), float64(spm-half), 0, cadenceVelocity, 1)

	v7Voicing := chord.Voice(dominant, v7, nil)
	for i, p := range v7Voicing {
		note(model.Comping, start, p, float64(half), float64(i)*strumSpread, cadenceVelocity, len(v7Voicing))
	}
	oneVoicing := chord.Voice(tonic, one, v7Voicing)
	for i, p := range oneVoicing {
		note(model.Comping, start+half, p, float64(spm-half), float64(i)*strumSpread, cadenceVelocity, len(oneVoicing))
	}

	leadRef := defaultLeadNote
	if p := sch.LastPitch(model.Lead); p > 0 {
		leadRef = p
	}
	lead := util.Clamp(nearest(tonic, leadRef), generator.LeadLow, generator.LeadHigh)
	note(model.Lead, start+half, lead, float64(spm-half), 0, cadenceVelocity, 1)

	note(model.Drums, start, constants.CrashNote, 1, 0, 1, 1)
	note(model.Drums, start, constants.KickNote, 1, 0, 1, 1)
}
