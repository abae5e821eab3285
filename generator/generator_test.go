package generator

import (
	"math"
	"testing"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, sections ...model.SectionDoc) *model.Arrangement {
	arr, err := arrangement.Build(model.Document{Key: "C", Sections: sections})
	require.Nil(t, err)
	return arr
}

func frameAt(arr *model.Arrangement, step int, band *Band) *Frame {
	pos, _ := arrangement.Lookup(arr, step)
	f := &Frame{
		Step:  step,
		Pos:   pos,
		Beat:  arr.Meter.StepInfo(step),
		Meter: arr.Meter,
		Key:   arr.Key,
		Minor: arr.Minor,
		Band:  band,
	}
	if next, ok := arrangement.Lookup(arr, step+pos.ChordSteps-pos.StepInChord); ok {
		f.Next = next.Chord
	}
	return f
}

func testBand(genre model.Genre) *Band {
	return &Band{Genre: genre, Intensity: 0.5, Complexity: 0.3}
}

func TestSlotAboveBass(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]int{60, 64, 67}, SlotAboveBass([]int{48, 52, 55}, 43))
	assert.Equal([]int{64}, SlotAboveBass([]int{52, 64}, 40))
	assert.Equal([]int{48, 52}, SlotAboveBass([]int{48, 52}, 0))
}

func TestGuideTones(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]int{64, 71}, GuideTones(0, []int{60, 64, 67, 71}))
	assert.Equal([]int{60, 64, 67}, GuideTones(0, []int{60, 64, 67}))
}

func TestStickyGrooveHoldsAcrossMeasures(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F | C | F | C | F | C | F"})
	band := testBand(model.Funk)
	c := NewComping(model.CompSmart, util.NewRand(3))

	var cells [][]int
	for step := 0; step < 64; step++ {
		c.Generate(frameAt(arr, step, band))
		if step%16 == 0 {
			cells = append(cells, append([]int(nil), c.State.Cell...))
		}
	}
	require.Len(t, cells, 4)
	for _, cell := range cells[1:] {
		assert.Equal(t, cells[0], cell)
	}
}

func TestSectionChangeRegeneratesCell(t *testing.T) {
	arr := build(t,
		model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"},
		model.SectionDoc{ID: "b", Label: "Chorus", Progression: "G | C"},
	)
	band := testBand(model.Reggae)
	c := NewComping(model.CompSmart, util.NewRand(9))
	var before []int
	for step := 0; step <= 32; step++ {
		if step == 32 {
			before = append([]int(nil), c.State.Cell...)
		}
		c.Generate(frameAt(arr, step, band))
	}
	assert := assert.New(t)
	require.NotEmpty(t, before)
	assert.NotEqual(before, c.State.Cell)
	assert.Equal("b", c.State.SectionID)
	assert.GreaterOrEqual(c.State.Retain, StickyMinMeasures-1)
	assert.Equal(48, c.State.LockedUntil)
}

// fixedRand always draws the same value, so every chance succeeds.
type fixedRand struct{}

func (fixedRand) Float64() float64 { return 0 }
func (fixedRand) Intn(n int) int { return 0 }

func TestOpenVoicingOnlyForMajorSevenths(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "Cmaj7 | C7 | Cmaj9"})
	band := testBand(model.Jazz)
	c := NewComping(model.CompSmart, fixedRand{})

	assert := assert.New(t)
	maj7 := frameAt(arr, 0, band)
	require.Greater(t, len(maj7.Chord().Voicing), 2)
	assert.Contains(c.voice(maj7, maj7.Chord(), true), maj7.Chord().Voicing[1]+12)

	for _, step := range []int{16, 32} {
		f := frameAt(arr, step, band)
		assert.Equal(f.Chord().Voicing, c.voice(f, f.Chord(), true), f.Chord().Symbol)
	}
}

func countHits(events []model.NoteEvent) int {
	for _, e := range events {
		if e.Sounding() {
			return 1
		}
	}
	return 0
}

func TestBusySoloistSuppressesComping(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | Am | F | G"})
	run := func(busy bool) int {
		band := testBand(model.Rock)
		c := NewComping(model.CompStab, util.NewRand(21))
		hits := 0
		for step := 0; step < 16*32; step++ {
			band.SoloistBusy = busy
			hits += countHits(c.Generate(frameAt(arr, step, band)))
		}
		return hits
	}
	idle, busy := run(false), run(true)
	assert.Greater(t, idle, 0)
	assert.Less(t, busy, idle)
}

func TestCompingEmitsSustainCarrier(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C:2 F:2"})
	band := testBand(model.Rock)
	c := NewComping(model.CompStab, util.NewRand(1))
	c.State.Cell = make([]int, 16)
	c.State.SectionID = "a"
	c.State.LockedUntil = 16
	c.State.LastChord = 0

	// step 8 starts F; a miss on a chord start still carries the pedal change
	for i := 0; i < 50; i++ {
		c.State.LastChord = 0
		events := c.Generate(frameAt(arr, 8, band))
		require.NotEmpty(t, events)
		assert.Len(t, events[0].Controls, 2)
		if !events[0].Sounding() {
			assert.True(t, events[0].Muted)
			return
		}
	}
}

func TestCompingVoiceLeading(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Cycle", Progression: "Cmaj7 | F7 | Bbmaj7 | Eb7 | Abmaj7 | Db7 | Gbmaj7 | B7"})
	band := testBand(model.Rock)
	c := NewComping(model.CompPad, util.NewRand(5))

	prev := 0.0
	for step := 0; step < arr.TotalSteps; step += 16 {
		events := c.Generate(frameAt(arr, step, band))
		var pitches []int
		for _, e := range events {
			if e.Sounding() {
				pitches = append(pitches, e.Midi)
			}
		}
		require.NotEmpty(t, pitches)
		centroid := chord.Centroid(pitches)
		if prev > 0 {
			assert.LessOrEqual(t, math.Abs(centroid-prev), 7.0)
		}
		prev = centroid
	}
}

func TestBassStaysInRegister(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | Am | Dm7 G7 | C/E"})
	for style := model.BassWhole; style <= model.BassDub; style++ {
		b := NewBass(style, util.NewRand(int64(style)))
		band := testBand(model.Rock)
		played := 0
		for step := 0; step < 128; step++ {
			for _, e := range b.Generate(frameAt(arr, step, band)) {
				played++
				assert.GreaterOrEqual(t, e.Midi, BassFloor, style.String())
				assert.LessOrEqual(t, e.Midi, 72, style.String())
				assert.LessOrEqual(t, e.Velocity, 1.0)
			}
		}
		assert.Greater(t, played, 0, style.String())
	}
}

func TestWalkingBassApproachesNextRoot(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	b := NewBass(model.BassQuarter, util.NewRand(2))
	band := testBand(model.Jazz)
	var last model.NoteEvent
	for step := 0; step <= 12; step++ {
		if events := b.Generate(frameAt(arr, step, band)); len(events) > 0 {
			last = events[0]
		}
	}
	// beat four of C leans into F from a semitone away
	d := util.Mod(last.Midi-5, 12)
	assert.True(t, d == 1 || d == 11, last.Midi)
}

func TestLeadPublishesToBand(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Solo", Progression: "Am7 | D7 | Gmaj7 | Cmaj7"})
	l := NewLead(model.LeadScalar, util.NewRand(8))
	band := testBand(model.Rock)

	sawBusy := false
	notes := 0
	for step := 0; step < 256; step++ {
		for _, e := range l.Generate(frameAt(arr, step, band)) {
			if e.DoubleStop {
				assert.Less(t, e.Midi, l.State.LastPitch)
				continue
			}
			notes++
			assert.GreaterOrEqual(t, e.Midi, LeadLow)
			assert.LessOrEqual(t, e.Midi, LeadHigh)
		}
		sawBusy = sawBusy || band.SoloistBusy
		assert.True(t, band.SoloistEnabled)
	}
	assert.Greater(t, notes, 0)
	assert.True(t, sawBusy)
}

func TestScaleFor(t *testing.T) {
	assert := assert.New(t)
	dom := &model.Chord{Intervals: []int{0, 4, 7, 10}}
	minor := &model.Chord{Intervals: []int{0, 3, 7, 10}}
	assert.Equal([]int{0, 2, 4, 5, 7, 9, 10}, ScaleFor(dom, false))
	assert.Equal([]int{0, 2, 3, 5, 7, 9, 10}, ScaleFor(minor, false))
	assert.Equal([]int{0, 3, 5, 6, 7, 10}, ScaleFor(minor, true))
}

func TestHarmonySilentAtLowIntensity(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	h := NewHarmony(model.HarmonyStrings, util.NewRand(1))
	band := testBand(model.Rock)
	band.Intensity = 0.1
	for step := 0; step < 32; step++ {
		assert.Empty(t, h.Generate(frameAt(arr, step, band)))
	}
}

func TestHarmonyMotifIsStablePerSection(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(HarmonyPattern(model.Funk, sectionSeed("chorus")), HarmonyPattern(model.Funk, sectionSeed("chorus")))

	h := NewHarmony(model.HarmonyHorns, util.NewRand(1))
	first := h.motif("verse", model.Funk)
	assert.Equal(first, h.motif("verse", model.Funk))
	h.Reset()
	assert.Empty(h.State.Motifs)
}

func TestHarmonyPadsRespectRange(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "Cmaj7 | Am7 | Dm7 | G7"})
	h := NewHarmony(model.HarmonyStrings, util.NewRand(4))
	band := testBand(model.Rock)
	band.Intensity = 0.9
	band.Complexity = 0.9
	played := 0
	for step := 0; step < 64; step++ {
		for _, e := range h.Generate(frameAt(arr, step, band)) {
			played++
			assert.GreaterOrEqual(t, e.Midi, harmonyCut)
			assert.LessOrEqual(t, e.Midi, HarmonyHigh)
		}
	}
	assert.Greater(t, played, 0)
}

func TestLatchedHarmonyDoublesLead(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	h := NewHarmony(model.HarmonyStrings, util.NewRand(2))
	band := testBand(model.Rock)
	band.Intensity = 0.8
	band.SoloistEnabled = true
	band.SoloistReplaying = true
	band.LeadNote = &model.NoteEvent{Instrument: model.Lead, Midi: 81}

	assert := assert.New(t)
	assert.Equal(69, doubleBelow(81))
	assert.Equal(60, doubleBelow(60))
	events := h.Generate(frameAt(arr, 0, band))
	require.NotEmpty(t, events)
	assert.Contains(midis(events), 69)
}

func TestFillLevelFollowsIntensity(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(FillLow, LevelFor(0.3))
	assert.Equal(FillMedium, LevelFor(0.5))
	assert.Equal(FillHigh, LevelFor(0.8))

	fill := NewFill(model.Rock, 0.2, 32, 16, util.NewRand(1))
	assert.Equal(48, fill.End)
	assert.NotEmpty(fill.Hits)
	for step := range fill.Hits {
		assert.GreaterOrEqual(step, 44)
		assert.Less(step, 48)
	}

	// a 3/4 measure shifts the template back by a beat
	short := NewFill(model.Rock, 0.2, 0, 12, util.NewRand(1))
	for step := range short.Hits {
		assert.GreaterOrEqual(step, 8)
		assert.Less(step, 12)
	}
}

func TestDrumsPlayFillThenCrash(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	d := NewDrums(nil, model.Rock, arr.Meter, util.NewRand(1))
	band := testBand(model.Rock)
	band.Fill = &Fill{
		Start: 12,
		End:   16,
		Hits:  map[int][]DrumHit{13: {{Note: constants.SnareNote, Velocity: 0.8}}},
		Crash: true,
	}

	assert := assert.New(t)
	// no fill hit on 12, so the rock groove's snare and hat play
	events := d.Generate(frameAt(arr, 12, band))
	require.Len(t, events, 2)
	assert.Equal(constants.SnareNote, events[0].Midi)
	events = d.Generate(frameAt(arr, 13, band))
	require.Len(t, events, 1)
	assert.Equal(constants.SnareNote, events[0].Midi)

	events = d.Generate(frameAt(arr, 16, band))
	require.Len(t, events, 2)
	assert.Equal(constants.CrashNote, events[0].Midi)
	assert.Equal(constants.KickNote, events[1].Midi)
	assert.Nil(band.Fill)
}

func TestGrooveKeepsPlayingUnderSparseFill(t *testing.T) {
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	d := NewDrums(nil, model.Rock, arr.Meter, util.NewRand(1))
	band := testBand(model.Rock)
	band.Fill = NewFill(model.Rock, 0.3, 16, 16, util.NewRand(1))
	require.NotEmpty(t, band.Fill.Hits)

	assert := assert.New(t)
	silent := 0
	for step := 16; step < 32; step++ {
		events := d.Generate(frameAt(arr, step, band))
		if len(events) == 0 {
			silent++
			continue
		}
		hits, isFill := band.Fill.Hits[step]
		if isFill {
			require.Len(t, events, len(hits))
			for i, h := range hits {
				assert.Equal(h.Note, events[i].Midi)
			}
		} else {
			// every rock step carries a hat
			assert.Contains(midis(events), constants.HiHatNote)
		}
	}
	assert.Equal(0, silent)
}

func midis(events []model.NoteEvent) []int {
	res := make([]int, 0, len(events))
	for _, e := range events {
		res = append(res, e.Midi)
	}
	return res
}

func TestDrumGridFollowsGenreUnlessCustom(t *testing.T) {
	meter, _ := model.LookupMeter("4/4")
	d := NewDrums(nil, model.Rock, meter, util.NewRand(1))
	arr := build(t, model.SectionDoc{ID: "a", Label: "Verse", Progression: "C | F"})
	band := testBand(model.Funk)
	d.Generate(frameAt(arr, 0, band))
	assert.Equal(t, model.Funk, d.Genre)
	assert.Len(t, d.Grid[0].Steps, 32)

	grid := []model.DrumRow{{Name: "Kick", Steps: []int{2, 0, 0, 0}}}
	custom := NewDrums(grid, model.Rock, meter, util.NewRand(1))
	grid[0].Steps[0] = 0
	events := custom.Generate(frameAt(arr, 4, band))
	require.Len(t, events, 1)
	assert.Equal(t, constants.KickNote, events[0].Midi)
}

func TestMeterGridAccentsGroups(t *testing.T) {
	meter, ok := model.LookupMeter("7/8")
	require.True(t, ok)
	rows := PresetGrid(model.Rock, meter)
	require.Len(t, rows, 4)
	assert := assert.New(t)
	assert.Len(rows[0].Steps, 14)
	assert.Equal(2, rows[0].Steps[0])
	assert.Equal(2, rows[1].Steps[4])
	assert.Equal(2, rows[0].Steps[8])
}

func TestPocket(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(0.12, Pocket(model.NeoSoul, 0.5), 1e-9)
	assert.InDelta(-0.06, Pocket(model.Rock, 0.9), 1e-9)
	assert.InDelta(0.08, Pocket(model.Rock, 0.1), 1e-9)
}
