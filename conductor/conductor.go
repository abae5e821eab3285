// Package conductor plans the band's energy over two timescales: a macro
// arc across whole loops of the form and per-section targets that the
// realized intensity ramps toward. It also owns tempo drift and triggers
// the drum fills at section transitions. It never emits notes.
package conductor

import (
	"math"
	"strings"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/generator"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

const (
	// MaxDrift is the largest tempo offset in BPM.
	MaxDrift = 15.0
	// FillRush is added to the drift target while a fill plays, scaled by
	// the drift intensity.
	FillRush = 8.0

	AnticipationThreshold = 0.4
	TargetJitter          = 0.075
	ShortLoopSteps        = 64

	dropMultiplier = 2.5
	rampEpsilon    = 0.001
)

type Options struct {
	AutoIntensity bool
	// 0 disables tempo drift, 1 allows the full MaxDrift
	DriftIntensity float64
	// Fills is false when no drummer is listening
	Fills bool
}

// State is a read-only view of the conductor for events and logs.
type State struct {
	Intensity     float64 `json:"intensity"`
	Target        float64 `json:"target"`
	StepSize      float64 `json:"step_size"`
	LoopCount     int     `json:"loop_count"`
	FormIteration int     `json:"form_iteration"`
	TempoOffset   float64 `json:"tempo_offset"`
}

type Conductor struct {
	opts Options
	arr  *model.Arrangement
	form *arrangement.Form
	rng  util.Rand

	target        float64
	stepSize      float64
	loopCount     int
	formIteration int
	tempoOffset   float64
	intensity     float64
}

func New(arr *model.Arrangement, opts Options, rng util.Rand) *Conductor {
	c := &Conductor{opts: opts, rng: rng}
	c.SetArrangement(arr)
	c.Reset()
	return c
}

// Reset returns the conductor to the start of a performance.
func (c *Conductor) Reset() {
	c.target = 0.5
	c.stepSize = 0.0005
	c.loopCount = 0
	c.formIteration = 0
	c.tempoOffset = 0
}

func (c *Conductor) SetArrangement(arr *model.Arrangement) {
	c.arr = arr
	c.form = nil
	if arr != nil {
		c.form = arrangement.AnalyzeForm(arr)
	}
}

func (c *Conductor) SetOptions(opts Options) {
	c.opts = opts
	if opts.DriftIntensity <= 0 {
		c.tempoOffset = 0
	}
}

func (c *Conductor) TempoOffset() float64 { return c.tempoOffset }

func (c *Conductor) Snapshot() State {
	return State{
		Intensity:     c.intensity,
		Target:        c.target,
		StepSize:      c.stepSize,
		LoopCount:     c.loopCount,
		FormIteration: c.formIteration,
		TempoOffset:   c.tempoOffset,
	}
}

// Step runs the conductor for one absolute step, before any instrument
// generates it. It writes intensity and fills into band.
func (c *Conductor) Step(step int, band *generator.Band) {
	c.intensity = band.Intensity
	if c.arr == nil || c.arr.TotalSteps <= 0 {
		return
	}
	if band.Fill != nil && step > band.Fill.End {
		band.Fill = nil
	}
	spm := c.arr.StepsPerMeasure()
	if spm <= 0 {
		return
	}
	modStep := util.Mod(step, c.arr.TotalSteps)
	if modStep%spm == 0 {
		c.checkTransition(step, modStep, spm, band)
	}
	if c.opts.AutoIntensity {
		band.Intensity = Ramp(band.Intensity, c.target, c.stepSize)
	}
	c.drift(step, band)
	c.anticipate(step, modStep, band)
	c.intensity = band.Intensity
}

func (c *Conductor) checkTransition(step, modStep, spm int, band *generator.Band) {
	total := c.arr.TotalSteps
	measureEnd := modStep + spm
	last, ok := arrangement.Lookup(c.arr, util.Min(measureEnd, total)-1)
	if !ok {
		return
	}
	loopEnd := measureEnd >= total
	nextStep := measureEnd
	if loopEnd {
		nextStep = 0
	}
	next, ok := arrangement.Lookup(c.arr, nextStep)
	if !ok {
		return
	}
	if !loopEnd && next.SectionID() == last.SectionID() {
		return
	}

	if loopEnd {
		c.loopCount++
		c.formIteration++
	}

	fill := c.opts.Fills && (next.Section == nil || !next.Section.Seamless)
	if fill && loopEnd && total <= ShortLoopSteps {
		fill = c.loopCount%FillFrequency(band.Intensity) == 0
	}

	if c.opts.AutoIntensity {
		var fs *arrangement.FormSection
		if s, ok := c.form.At(next.Span); ok {
			fs = &s
		}
		target := c.PlanTarget(c.formIteration, fs, next.SectionLabel(), band.Intensity)
		if loopEnd {
			target = util.Clamp(target+util.Jitter(c.rng, 0.1), 0.3, 0.95)
		}
		c.target = target
		c.stepSize = (target - band.Intensity) / float64(spm)
	}

	if fill {
		band.Fill = generator.NewFill(band.Genre, band.Intensity, step, spm, c.rng)
	}
}

// FillFrequency is how many loops of a short arrangement pass between fills.
func FillFrequency(intensity float64) int {
	switch {
	case intensity > 0.75:
		return 1
	case intensity > 0.4:
		return 2
	}
	return 4
}

// MacroBand returns the target band for a position in the eight loop arc.
func MacroBand(iteration int) (floor, ceiling float64) {
	switch util.Mod(iteration, 8) {
	case 0:
		return 0.15, 0.45
	case 1, 2:
		return 0.35, 0.75
	case 3, 4:
		return 0.60, 1.0
	case 5, 6:
		return 0.30, 0.60
	}
	return 0.10, 0.35
}

// TargetFor is the deterministic part of the target: role offset within
// the macro band, adjusted for harmonic flux and repeats.
func TargetFor(iteration int, fs *arrangement.FormSection, label string, current float64) float64 {
	floor, ceiling := MacroBand(iteration)
	mid := (floor + ceiling) / 2
	if fs == nil {
		return util.Clamp(arrangement.SectionEnergy(label), floor, ceiling)
	}
	var target float64
	switch fs.Role {
	case model.Exposition:
		target = floor + 0.1
	case model.Development:
		target = mid + 0.1
	case model.Contrast:
		if current > mid {
			target = floor
		} else {
			target = ceiling
		}
	case model.Build:
		target = ceiling
	case model.Climax:
		target = ceiling + 0.1
	case model.Recapitulation:
		target = floor + 0.2
	case model.Resolution:
		target = floor - 0.1
	default:
		target = arrangement.SectionEnergy(fs.Label)
	}
	if fs.Flux > 2.6 {
		target += 0.1
	}
	switch {
	case fs.Iteration == 2:
		target += 0.1
	case fs.Iteration >= 3:
		target -= 0.15
	}
	return util.Clamp(target, floor, ceiling)
}

// PlanTarget adds jitter to TargetFor and keeps the result playable.
func (c *Conductor) PlanTarget(iteration int, fs *arrangement.FormSection, label string, current float64) float64 {
	target := TargetFor(iteration, fs, label, current) + util.Jitter(c.rng, TargetJitter)
	return util.Clamp(target, 0.1, 1)
}

// Ramp moves current one step toward target. Drops move 2.5 times faster
// than builds and never overshoot.
func Ramp(current, target, stepSize float64) float64 {
	diff := target - current
	if math.Abs(diff) <= rampEpsilon {
		return current
	}
	move := math.Abs(stepSize)
	if current > target {
		move *= dropMultiplier
	}
	if move > math.Abs(diff) {
		move = math.Abs(diff)
	}
	if diff < 0 {
		move = -move
	}
	return util.Clamp(current+move, 0.01, 1)
}

func (c *Conductor) drift(step int, band *generator.Band) {
	amount := c.opts.DriftIntensity
	if amount <= 0 {
		c.tempoOffset = 0
		return
	}
	pos, ok := arrangement.Lookup(c.arr, step)
	if !ok {
		return
	}
	label := pos.SectionLabel()
	energy := band.Intensity
	if label != "" && !strings.Contains(strings.ToLower(label), "section") {
		energy = 0.6*arrangement.SectionEnergy(label) + 0.4*band.Intensity
	}
	target := (energy - 0.5) * 2 * MaxDrift * amount
	filling := band.FillActive(step)
	if filling {
		target += FillRush * amount
	}
	target = util.Clamp(target, -MaxDrift, MaxDrift)

	lerp := 0.03
	if filling {
		lerp = 0.08
	}
	c.tempoOffset += (target - c.tempoOffset) * lerp
	if math.Abs(c.tempoOffset) < 0.01 && math.Abs(target) < 0.01 {
		c.tempoOffset = 0
	}
}

// anticipate drops a one step accent on the last step of a chord that
// leads into a new section or back to the top.
func (c *Conductor) anticipate(step, modStep int, band *generator.Band) {
	if !c.opts.Fills || band.Intensity <= AnticipationThreshold || band.FillActive(step) {
		return
	}
	pos, ok := arrangement.Lookup(c.arr, modStep)
	if !ok || pos.StepInChord != pos.ChordSteps-1 {
		return
	}
	transition := modStep == c.arr.TotalSteps-1
	if !transition {
		next, ok := arrangement.Lookup(c.arr, modStep+1)
		transition = ok && next.SectionID() != pos.SectionID()
	}
	if transition {
		band.Fill = generator.AnticipationFill(step)
	}
}
