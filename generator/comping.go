package generator

import (
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

const (
	MaxCellAttempts   = 8
	StickyMinMeasures = 4
	StickyMaxMeasures = 8

	// chance a genre pool is swapped for the vibe's own pool
	VibePoolProbability     = 0.3
	BalancedPoolProbability = 0.2

	// sustain release lead in steps, longer after a tense chord
	ReleaseLead      = 0.08
	TenseReleaseLead = 0.2
	ReapplyDelay     = 0.08
)

// suppression is the chance a non-accented hit is dropped while the
// soloist is busy.
var suppression = map[model.CompingStyle]float64{
	model.CompSmart: 0.5,
	model.CompPad:   0.2,
	model.CompStab:  0.6,
	model.CompStrum: 0.4,
}

type CompingState struct {
	Cell        []int
	Vibe        Vibe
	LockedUntil int
	SectionID   string
	// measures a sticky genre keeps the current cell before regenerating
	Retain      int
	LastChord   int
	PrevTense   bool
	PrevBusy    bool
	ForceActive bool
}

type Comping struct {
	Style model.CompingStyle
	State CompingState
	rng   util.Rand
}

func NewComping(style model.CompingStyle, rng util.Rand) *Comping {
	c := &Comping{Style: style, rng: rng}
	c.Reset()
	return c
}

func (c *Comping) Instrument() model.Instrument { return model.Comping }

func (c *Comping) Reset() {
	c.State = CompingState{LastChord: -1}
}

func (c *Comping) Generate(f *Frame) []model.NoteEvent {
	ch := f.Chord()
	if ch == nil || len(ch.Voicing) == 0 {
		return nil
	}
	band := f.Band
	st := &c.State
	spm := f.StepsPerMeasure()
	mStep := f.Beat.StepInMeasure

	busy := band.SoloistBusy
	if st.PrevBusy && !busy {
		// the soloist just stopped: fill the gap right away
		st.ForceActive = true
		st.LockedUntil = f.Step
	}
	st.PrevBusy = busy

	c.updateCell(f, spm, mStep)

	controls := c.sustain(f, ch, mStep)

	level := 0
	if mStep < len(st.Cell) {
		level = st.Cell[mStep]
	}
	hit := level > 0
	structural := mStep == 0 || f.IsChordStart()
	switch c.Style {
	case model.CompPad:
		hit = f.IsChordStart() || mStep == 0
	default:
		if !hit && f.IsChordStart() && mStep != 0 {
			hit = util.Chance(c.rng, 0.4+0.4*band.Intensity)
		}
	}
	if hit && busy && level < 2 && util.Chance(c.rng, suppression[c.Style]) {
		hit = false
	}

	if !hit {
		if len(controls) == 0 {
			return nil
		}
		carrier := model.NoteEvent{Controls: controls, Muted: true, Dry: band.Genre.Staccato()}
		return []model.NoteEvent{carrier}
	}

	voicing := c.voice(f, ch, structural)
	if len(voicing) == 0 {
		return nil
	}

	spb := float64(f.StepsPerBeat())
	duration := c.duration(f, spb)
	velocity := 0.35
	switch {
	case structural && f.IsChordStart():
		velocity = 0.6
	case mStep == 0:
		velocity = 0.5
	}
	if level >= 2 {
		velocity += 0.1
	}
	velocity *= 0.8 + 0.4*band.Intensity

	offset := 0.0
	if c.Style == model.CompSmart && util.Chance(c.rng, 0.15+0.2*band.Intensity) {
		offset -= 0.2
	}
	if band.Genre == model.NeoSoul {
		offset += 0.16
	}

	strum := 0.06
	if band.Genre == model.Acoustic || c.Style == model.CompStrum {
		strum = 0.2
	}

	res := make([]model.NoteEvent, 0, len(voicing))
	for i, p := range voicing {
		ev := noteEvent(p,
			velocity*util.Between(c.rng, 0.95, 1.05),
			duration,
			offset+float64(i)*strum+util.Jitter(c.rng, 0.025))
		ev.Dry = band.Genre.Staccato()
		if i == 0 {
			ev.Controls = controls
		}
		res = append(res, ev)
	}
	return res
}

func (c *Comping) updateCell(f *Frame, spm, mStep int) {
	st := &c.State
	sectionID := f.Pos.SectionID()
	sectionChanged := st.Cell != nil && sectionID != st.SectionID
	due := st.Cell == nil || sectionChanged || st.ForceActive || (mStep == 0 && f.Step >= st.LockedUntil)
	if !due {
		return
	}
	st.SectionID = sectionID
	measureEnd := f.Step - mStep + spm

	genre := f.Band.Genre
	if IsSticky(genre) && !sectionChanged && !st.ForceActive && st.Cell != nil && st.Retain > 0 && len(st.Cell) == spm {
		st.Retain--
		st.LockedUntil = measureEnd
		return
	}

	st.Vibe = c.vibe(f.Band)
	st.ForceActive = false
	prev := st.Cell
	var cell []int
	for attempt := 0; attempt < MaxCellAttempts; attempt++ {
		cell = stretch(c.pickRaw(genre, st.Vibe), spm)
		if !equalCells(cell, prev) {
			break
		}
	}
	st.Cell = cell
	st.LockedUntil = measureEnd
	if IsSticky(genre) {
		st.Retain = StickyMinMeasures - 1 + c.rng.Intn(StickyMaxMeasures-StickyMinMeasures+1)
	} else {
		st.Retain = 0
	}
}

func (c *Comping) vibe(b *Band) Vibe {
	switch {
	case c.State.ForceActive:
		return VibeActive
	case b.SoloistBusy:
		return VibeSparse
	case b.Intensity > 0.75 || b.Complexity > 0.7:
		return VibeActive
	case b.Intensity < 0.3:
		return VibeSparse
	}
	return VibeBalanced
}

func (c *Comping) pickRaw(genre model.Genre, vibe Vibe) []int {
	if genre == model.Jazz {
		if vibe != VibeBalanced && util.Chance(c.rng, VibePoolProbability) {
			return util.Pick(c.rng, vibeCells[vibe])
		}
		return jazzCell(c.rng)
	}
	pool, ok := genreCells[genre]
	if !ok {
		return util.Pick(c.rng, vibeCells[vibe])
	}
	switch {
	case vibe != VibeBalanced && util.Chance(c.rng, VibePoolProbability):
		pool = vibeCells[vibe]
	case util.Chance(c.rng, BalancedPoolProbability):
		pool = vibeCells[VibeBalanced]
	}
	return util.Pick(c.rng, pool)
}

// sustain emits the pedal changes for chord and measure boundaries.
func (c *Comping) sustain(f *Frame, ch *model.Chord, mStep int) []model.ControlEvent {
	st := &c.State
	if ch.Index == st.LastChord && mStep != 0 {
		return nil
	}
	lead := ReleaseLead
	if st.PrevTense {
		lead = TenseReleaseLead
	}
	st.LastChord = ch.Index
	st.PrevTense = ch.IsTense()

	if f.Band.Genre.Staccato() {
		return []model.ControlEvent{model.Sustain(false, 0)}
	}
	return []model.ControlEvent{
		model.Sustain(false, -lead),
		model.Sustain(true, ReapplyDelay),
	}
}

func (c *Comping) voice(f *Frame, ch *model.Chord, structural bool) []int {
	band := f.Band
	voicing := append([]int(nil), ch.Voicing...)

	if (band.Genre == model.Jazz || band.Genre == model.Acoustic) && ch.IsMajorSeventh() && len(voicing) > 2 &&
		util.Chance(c.rng, OpenVoicingProbability) {
		voicing[1] += 12
		voicing = dedupe(voicing)
	}
	if ChordComplexity(ch) > ShellComplexityThreshold && band.Intensity > ShellIntensityThreshold {
		voicing = GuideTones(ch.Root, voicing)
	}
	if band.SoloistBusy && band.LeadPitch > HighLeadPitch && util.Chance(c.rng, HighLeadThinProbability) {
		voicing = lowest(voicing, 3)
	}
	if !structural && len(voicing) > 3 && util.Chance(c.rng, NonStructuralThinProbability) {
		voicing = lowest(voicing, 3)
	}
	return SlotAboveBass(voicing, band.BassPitch)
}

func (c *Comping) duration(f *Frame, spb float64) float64 {
	if c.Style == model.CompPad {
		return float64(f.ChordStepsLeft())
	}
	if c.Style == model.CompStab {
		return spb * 0.5
	}
	switch f.Band.Genre {
	case model.Reggae, model.Funk, model.Disco:
		return spb * 0.25
	case model.Jazz:
		return spb
	case model.Acoustic:
		return spb * 2.5
	case model.Rock, model.Bossa:
		return spb * 1.5
	}
	return spb * 2
}
