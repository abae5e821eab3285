// Package timeline renders a performance offline: the same generators the
// live worker runs, replayed step by step against a swing aware tick map
// and written out as a format 1 Standard MIDI File.
package timeline

import (
	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/scheduler"
	"github.com/jsphweid/backingband/util"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// seconds
	minNoteLength = 0.05
	bassTail      = 0.02
)

type Options struct {
	Loops int
	// nil means every enabled instrument
	Tracks []model.Instrument
	Name   string
	PPQ    int
	// 0 means the snapshot seed
	Seed int64
}

type Result struct {
	Data         []byte
	SMF          *smf.SMF
	TotalTicks   uint32
	LoopTicks    uint32
	CadenceTicks uint32
	Notes        int
}

type trackSpec struct {
	name    string
	channel uint8
	program int
}

// written in this order after the meta track
var trackOrder = []model.Instrument{model.Comping, model.Bass, model.Lead, model.Harmony, model.Drums}

var trackSpecs = map[model.Instrument]trackSpec{
	model.Comping: {"Comping", constants.CompingChannel, constants.CompingProgram},
	model.Bass:    {"Bass", constants.BassChannel, constants.BassProgram},
	model.Lead:    {"Lead", constants.LeadChannel, constants.LeadProgram},
	model.Harmony: {"Harmony", constants.HarmonyChannel, constants.HarmonyProgram},
	model.Drums:   {"Drums", constants.DrumChannel, -1},
}

// Render plays opts.Loops passes of the arrangement plus a closing cadence
// through a fresh scheduler, leaving any live state untouched.
func Render(snap model.Snapshot, opts Options) (*Result, error) {
	arr := snap.Arrangement
	if arr == nil || arr.TotalSteps == 0 {
		return nil, arrangement.ErrEmpty
	}
	if opts.Loops < 1 {
		opts.Loops = 1
	}
	if opts.PPQ <= 0 {
		opts.PPQ = constants.PPQ
	}
	if snap.BPM <= 0 {
		return nil, errors.Errorf("invalid tempo %v", snap.BPM)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = snap.Seed
	}

	spm := arr.StepsPerMeasure()
	g := newGrid(snap.BPM, opts.PPQ, arr.Meter.StepsPerBeat, snap.Swing, snap.SwingEighths, arr.TotalSteps, opts.Loops, spm)
	end := g.endTick()

	builders := map[model.Instrument]*midi.TrackBuilder{}
	for _, inst := range selectTracks(snap, opts.Tracks) {
		spec := trackSpecs[inst]
		b := midi.NewTrackBuilder(spec.name, spec.channel)
		if spec.program >= 0 {
			b.Program(0, uint8(spec.program))
		}
		builders[inst] = b
	}

	// a requested track plays even when it is switched off live
	snap = snap.Clone()
	if snap.Enabled == nil {
		snap.Enabled = map[model.Instrument]bool{}
	}
	for inst := range builders {
		snap.Enabled[inst] = true
	}
	sch := scheduler.New(snap, util.NewRand(seed), constants.Lookahead)

	w := &writer{grid: g, end: end, builders: builders}
	for step := 0; step < g.cadenceStart(); step++ {
		for _, e := range sch.GenerateStep(step) {
			w.write(e)
		}
	}
	w.cadence(arr, sch)

	var markers []midi.Marker
	for loop := 0; loop < opts.Loops; loop++ {
		for _, entry := range arr.StepMap {
			markers = append(markers, midi.Marker{
				Tick: g.at(loop*arr.TotalSteps + entry.Start),
				Text: arr.Progression[entry.Chord].Symbol,
			})
		}
	}

	tracks := []smf.Track{midi.MetaTrack(opts.Name, snap.BPM, arr.Meter, markers, end)}
	notes := 0
	for _, inst := range trackOrder {
		b, ok := builders[inst]
		if !ok {
			continue
		}
		if b.UsedSustain() {
			b.Control(b.LastNoteTick(), model.SustainController, 0)
		}
		notes += b.Notes()
		tracks = append(tracks, b.Build(end))
	}

	s, err := midi.NewSMF(uint16(opts.PPQ), tracks...)
	if err != nil {
		return nil, errors.Wrap(err, "could not assemble tracks")
	}
	data, err := midi.Encode(s)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:         data,
		SMF:          s,
		TotalTicks:   end,
		LoopTicks:    g.loopTicks(),
		CadenceTicks: g.cadenceTicks(),
		Notes:        notes,
	}, nil
}

func selectTracks(snap model.Snapshot, requested []model.Instrument) []model.Instrument {
	if requested == nil {
		var res []model.Instrument
		for _, inst := range model.AllInstruments {
			if snap.IsEnabled(inst) {
				res = append(res, inst)
			}
		}
		return res
	}
	seen := map[model.Instrument]bool{}
	var res []model.Instrument
	for _, inst := range requested {
		if _, known := trackSpecs[inst]; known && !seen[inst] {
			seen[inst] = true
			res = append(res, inst)
		}
	}
	return res
}

type writer struct {
	grid     *grid
	end      uint32
	builders map[model.Instrument]*midi.TrackBuilder
}

func (w *writer) write(e model.NoteEvent) {
	b, ok := w.builders[e.Instrument]
	if !ok {
		return
	}
	start := float64(e.Step) + e.Offset
	for _, c := range e.Controls {
		b.Control(w.clip(w.grid.atf(start+c.Offset)), uint8(util.Clamp(c.Controller, 0, 127)), uint8(util.Clamp(c.Value, 0, 127)))
	}
	if !e.Sounding() {
		return
	}

	on := w.clip(w.grid.atf(start))
	off := w.grid.atf(start + e.Duration)
	minLen := w.grid.seconds(minNoteLength)
	if off < on+minLen {
		off = on + minLen
	}
	if e.Instrument == model.Bass {
		off += w.grid.seconds(bassTail)
	}
	off = w.clip(off)

	key := uint8(util.Clamp(e.Midi, 0, 127))
	if e.Bend > 0 {
		b.PitchBend(on, midi.BendValue(-float64(e.Bend)))
		b.PitchBend(w.clip(on+w.bendRelease(e.Step)), 0)
	}
	b.NoteOn(on, key, midi.ScaleVelocity(e.Velocity, e.Voices))
	b.NoteOff(off, key)
}

// bendRelease is how long a scoop takes to reach the written pitch.
func (w *writer) bendRelease(step int) uint32 {
	stepTicks := w.grid.at(step+1) - w.grid.at(step)
	res := uint32(float64(stepTicks) * 0.8)
	if limit := uint32(w.grid.ppq / 4); res > limit {
		res = limit
	}
	return res
}

func (w *writer) clip(tick uint32) uint32 {
	if tick > w.end {
		return w.end
	}
	return tick
}
