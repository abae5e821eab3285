// Package scheduler keeps every enabled generator a fixed lookahead ahead
// of the transport. Each step is generated once per module in a fixed
// order, after the conductor has planned that step.
package scheduler

import (
	"reflect"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/conductor"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/generator"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

// MinDurationSteps is the shortest note the scheduler lets through.
const MinDurationSteps = 0.05

type module struct {
	inst      model.Instrument
	gen       generator.Generator
	enabled   bool
	head      int
	lastPitch int
}

type Scheduler struct {
	snap      model.Snapshot
	arr       *model.Arrangement
	rng       util.Rand
	lookahead int

	band      *generator.Band
	conductor *conductor.Conductor
	condHead  int
	modules   []*module
	rejected  int
}

func New(snap model.Snapshot, rng util.Rand, lookahead int) *Scheduler {
	if lookahead <= 0 {
		lookahead = constants.Lookahead
	}
	snap = snap.Clone()
	s := &Scheduler{
		snap:      snap,
		arr:       snap.Arrangement,
		rng:       rng,
		lookahead: lookahead,
		band:      generator.NewBand(snap),
	}
	s.conductor = conductor.New(s.arr, conductorOptions(snap), rng)
	for _, inst := range model.AllInstruments {
		s.modules = append(s.modules, &module{
			inst:    inst,
			gen:     generator.New(inst, snap, rng),
			enabled: snap.IsEnabled(inst),
		})
	}
	return s
}

func conductorOptions(snap model.Snapshot) conductor.Options {
	return conductor.Options{
		AutoIntensity:  snap.AutoIntensity,
		DriftIntensity: snap.DriftIntensity,
		Fills:          snap.IsEnabled(model.Drums),
	}
}

// Configure applies a new snapshot. Modules whose style changed are rebuilt
// with empty memory; heads are kept.
func (s *Scheduler) Configure(snap model.Snapshot) {
	snap = snap.Clone()
	prev := s.snap
	s.snap = snap

	s.band.Genre = snap.Genre
	s.band.Complexity = util.Clamp(snap.Complexity, 0, 1)
	if !snap.AutoIntensity || !prev.AutoIntensity {
		s.band.Intensity = util.Clamp(snap.Intensity, 0.01, 1)
	}
	s.conductor.SetOptions(conductorOptions(snap))

	if !reflect.DeepEqual(prev.Arrangement, snap.Arrangement) {
		s.SetArrangement(snap.Arrangement)
	}

	for _, m := range s.modules {
		m.enabled = snap.IsEnabled(m.inst)
		if styleChanged(m.inst, prev, snap) {
			m.gen = generator.New(m.inst, snap, s.rng)
			m.lastPitch = 0
		}
	}
	s.band.SoloistEnabled = snap.IsEnabled(model.Lead)
	if !s.band.SoloistEnabled {
		s.band.SoloistBusy = false
		s.band.SoloistResting = false
		s.band.SoloistReplaying = false
	}
}

func styleChanged(inst model.Instrument, a, b model.Snapshot) bool {
	switch inst {
	case model.Bass:
		return a.BassStyle != b.BassStyle
	case model.Lead:
		return a.LeadStyle != b.LeadStyle
	case model.Comping:
		return a.CompingStyle != b.CompingStyle
	case model.Harmony:
		return a.HarmonyStyle != b.HarmonyStyle
	case model.Drums:
		return !reflect.DeepEqual(a.DrumGrid, b.DrumGrid) || meterOf(a) != meterOf(b)
	}
	return false
}

func meterOf(s model.Snapshot) int {
	if s.Arrangement == nil {
		return 0
	}
	return s.Arrangement.StepsPerMeasure()
}

// SetArrangement swaps the arrangement without touching heads. Callers
// that need continuity flush afterwards.
func (s *Scheduler) SetArrangement(arr *model.Arrangement) {
	s.arr = arr
	s.snap.Arrangement = arr
	s.conductor.SetArrangement(arr)
}

func (s *Scheduler) Arrangement() *model.Arrangement { return s.arr }

func (s *Scheduler) Band() *generator.Band { return s.band }

func (s *Scheduler) Conductor() *conductor.Conductor { return s.conductor }

// Rejected counts events dropped by the numeric guards.
func (s *Scheduler) Rejected() int { return s.rejected }

func (s *Scheduler) Heads() map[model.Instrument]int {
	heads := make(map[model.Instrument]int, len(s.modules))
	for _, m := range s.modules {
		heads[m.inst] = m.head
	}
	return heads
}

func (s *Scheduler) LastPitch(inst model.Instrument) int {
	for _, m := range s.modules {
		if m.inst == inst {
			return m.lastPitch
		}
	}
	return 0
}

func (s *Scheduler) empty() bool {
	return s.arr == nil || s.arr.TotalSteps <= 0
}

// Advance generates every enabled module up to current+lookahead and
// returns the new events. Modules that fell behind current skip ahead.
func (s *Scheduler) Advance(current int) []model.NoteEvent {
	if s.empty() {
		return nil
	}
	end := current + s.lookahead
	if s.condHead < current {
		s.condHead = current
	}
	lo := s.condHead
	for _, m := range s.modules {
		if !m.enabled {
			continue
		}
		if m.head < current {
			m.head = current
		}
		lo = util.Min(lo, m.head)
	}

	var res []model.NoteEvent
	for step := lo; step < end; step++ {
		if step >= s.condHead {
			s.conductor.Step(step, s.band)
			s.condHead = step + 1
		}
		res = append(res, s.generate(step, func(m *module) bool { return m.head <= step })...)
		for _, m := range s.modules {
			if m.enabled && m.head <= step {
				m.head = step + 1
			}
		}
	}
	return res
}

// GenerateStep runs the conductor and every enabled module for one step,
// ignoring heads. The offline renderer drives a private scheduler this way.
func (s *Scheduler) GenerateStep(step int) []model.NoteEvent {
	if s.empty() {
		return nil
	}
	s.conductor.Step(step, s.band)
	return s.generate(step, nil)
}

func (s *Scheduler) generate(step int, due func(*module) bool) []model.NoteEvent {
	pos, ok := arrangement.Lookup(s.arr, step)
	if !ok {
		return nil
	}
	f := &generator.Frame{
		Step:  step,
		Pos:   pos,
		Beat:  s.arr.Meter.StepInfo(step),
		Meter: s.arr.Meter,
		Key:   s.arr.Key,
		Minor: s.arr.Minor,
		Band:  s.band,
	}
	if next, ok := arrangement.Lookup(s.arr, step+constants.NextChordHint); ok {
		f.Next = next.Chord
	}

	s.band.LeadNote = nil
	var res []model.NoteEvent
	for _, m := range s.modules {
		if !m.enabled || (due != nil && !due(m)) {
			continue
		}
		s.band.BassPitch = s.pitchOf(model.Bass)
		s.band.LeadPitch = s.pitchOf(model.Lead)
		events := s.run(m, f)
		if m.inst == model.Lead {
			for i := range events {
				if events[i].Sounding() && !events[i].DoubleStop {
					note := events[i]
					s.band.LeadNote = &note
					break
				}
			}
		}
		res = append(res, events...)
	}
	return res
}

func (s *Scheduler) pitchOf(inst model.Instrument) int {
	for _, m := range s.modules {
		if m.inst == inst && m.enabled {
			return m.lastPitch
		}
	}
	return 0
}

// run calls the generator and applies the numeric guards.
func (s *Scheduler) run(m *module, f *generator.Frame) []model.NoteEvent {
	events := m.gen.Generate(f)
	if len(events) == 0 {
		return nil
	}
	voices := 0
	for _, e := range events {
		if e.Sounding() {
			voices++
		}
	}
	if m.inst == model.Drums || voices == 0 {
		voices = 1
	}

	res := make([]model.NoteEvent, 0, len(events))
	primary := 0
	for _, e := range events {
		e.Instrument = m.inst
		e.Step = f.Step
		e.Voices = voices
		switch {
		case e.Midi > 0 && e.Freq <= 0:
			e.Freq = util.MidiToFreq(e.Midi)
		case e.Midi <= 0 && e.Freq > 0:
			e.Midi = util.FreqToMidi(e.Freq)
		}
		if !Valid(e) {
			s.rejected++
			continue
		}
		if primary == 0 && e.Sounding() && !e.DoubleStop {
			primary = e.Midi
		}
		res = append(res, e)
	}
	if primary > 0 {
		m.lastPitch = primary
	}
	return res
}

// Valid rejects events that would produce garbage downstream: non-finite
// numbers, out of range pitches and near zero durations. Control-only
// carriers only need finite control offsets.
func Valid(e model.NoteEvent) bool {
	for _, c := range e.Controls {
		if !util.IsFinite(c.Offset) || c.Value < 0 || c.Value > 127 {
			return false
		}
	}
	if e.IsControlOnly() {
		return util.IsFinite(e.Offset)
	}
	if !util.IsFinite(e.Velocity) || !util.IsFinite(e.Duration) || !util.IsFinite(e.Offset) || !util.IsFinite(e.Freq) {
		return false
	}
	if e.Midi < 1 || e.Midi > 127 {
		return false
	}
	return e.Duration >= MinDurationSteps
}

// Flush moves every head to step and clears all generator memory, then
// silently replays the prime steps before it.
func (s *Scheduler) Flush(step, prime int) {
	for _, m := range s.modules {
		m.head = step
		m.lastPitch = 0
		m.gen.Reset()
	}
	s.band.ResetMemory()
	s.condHead = step
	if prime > 0 {
		s.prime(step-prime, step)
	}
}

// Prime warms generator memory by replaying steps before the lowest head
// without output. Zero means two full loops.
func (s *Scheduler) Prime(steps int) {
	if s.empty() {
		return
	}
	if steps <= 0 {
		steps = 2 * s.arr.TotalSteps
	}
	head := s.condHead
	for _, m := range s.modules {
		if m.enabled {
			head = util.Min(head, m.head)
		}
	}
	s.prime(head-steps, head)
}

func (s *Scheduler) prime(from, to int) {
	if s.empty() {
		return
	}
	for step := from; step < to; step++ {
		s.generate(step, nil)
	}
	// a fill planned during priming never reaches the drums
	s.band.Fill = nil
	s.band.LeadNote = nil
}
