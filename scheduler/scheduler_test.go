package scheduler

import (
	"math"
	"testing"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) model.Snapshot {
	arr, err := arrangement.Build(model.Document{
		Key: "C",
		Sections: []model.SectionDoc{
			{ID: "a", Label: "Verse", Progression: "C | Am | F | G7"},
			{ID: "b", Label: "Chorus", Progression: "F | G | Em7 | Am7"},
		},
	})
	require.Nil(t, err)
	snap := model.DefaultSnapshot()
	snap.Arrangement = arr
	return snap
}

func TestAdvanceOnEmptyArrangementIsNoop(t *testing.T) {
	s := New(model.DefaultSnapshot(), util.NewRand(1), 64)
	assert.Nil(t, s.Advance(0))
	for _, head := range s.Heads() {
		assert.Equal(t, 0, head)
	}
}

func TestAdvanceFillsLookahead(t *testing.T) {
	s := New(testSnapshot(t), util.NewRand(1), 64)
	assert := assert.New(t)

	events := s.Advance(0)
	assert.NotEmpty(events)
	for _, e := range events {
		assert.GreaterOrEqual(e.Step, 0)
		assert.Less(e.Step, 64)
		assert.NotEqual(model.Harmony, e.Instrument)
	}
	heads := s.Heads()
	assert.Equal(64, heads[model.Bass])
	assert.Equal(64, heads[model.Drums])
	assert.Equal(0, heads[model.Harmony])

	for _, e := range s.Advance(16) {
		assert.GreaterOrEqual(e.Step, 64)
		assert.Less(e.Step, 80)
	}
	assert.Equal(80, s.Heads()[model.Comping])
}

func TestEventsFollowModuleOrder(t *testing.T) {
	snap := testSnapshot(t)
	snap.Enabled[model.Harmony] = true
	s := New(snap, util.NewRand(2), 64)

	lastStep, lastInst := -1, model.Bass
	for _, e := range s.Advance(0) {
		if e.Step == lastStep {
			assert.GreaterOrEqual(t, int(e.Instrument), int(lastInst))
		}
		lastStep, lastInst = e.Step, e.Instrument
	}
}

func TestDisabledModuleRejoinsAtCurrent(t *testing.T) {
	snap := testSnapshot(t)
	snap.Enabled[model.Bass] = false
	s := New(snap, util.NewRand(3), 64)
	s.Advance(0)
	assert.Equal(t, 0, s.Heads()[model.Bass])

	snap.Enabled[model.Bass] = true
	s.Configure(snap)
	for _, e := range s.Advance(100) {
		if e.Instrument == model.Bass {
			assert.GreaterOrEqual(t, e.Step, 100)
		}
	}
	assert.Equal(t, 164, s.Heads()[model.Bass])
}

func TestEventsPassGuards(t *testing.T) {
	snap := testSnapshot(t)
	snap.Enabled[model.Harmony] = true
	snap.Intensity = 0.9
	s := New(snap, util.NewRand(4), 64)

	assert := assert.New(t)
	for current := 0; current < 4*snap.Arrangement.TotalSteps; current += 16 {
		for _, e := range s.Advance(current) {
			assert.True(Valid(e))
			assert.GreaterOrEqual(e.Voices, 1)
			if e.IsControlOnly() {
				continue
			}
			assert.InDelta(util.MidiToFreq(e.Midi), e.Freq, 1e-9)
		}
	}
	assert.Equal(0, s.Rejected())
}

func TestCompingSitsAboveBass(t *testing.T) {
	s := New(testSnapshot(t), util.NewRand(5), 64)
	bass := 0
	for current := 0; current < 512; current += 16 {
		for _, e := range s.Advance(current) {
			switch {
			case e.Instrument == model.Bass:
				bass = e.Midi
			case e.Instrument == model.Comping && e.Sounding() && bass > 0:
				assert.Greater(t, e.Midi, bass+12)
			}
		}
	}
}

func TestValid(t *testing.T) {
	assert := assert.New(t)
	ok := model.NoteEvent{Midi: 60, Freq: 261.6, Velocity: 0.5, Duration: 1}
	assert.True(Valid(ok))

	bad := ok
	bad.Duration = math.NaN()
	assert.False(Valid(bad))

	bad = ok
	bad.Duration = 0.01
	assert.False(Valid(bad))

	bad = ok
	bad.Midi = 0
	assert.False(Valid(bad))

	bad = ok
	bad.Offset = math.Inf(1)
	assert.False(Valid(bad))

	carrier := model.NoteEvent{Muted: true, Controls: []model.ControlEvent{model.Sustain(false, 0)}}
	assert.True(Valid(carrier))
	carrier.Controls[0].Offset = math.NaN()
	assert.False(Valid(carrier))
}

func TestFlushIsIdempotent(t *testing.T) {
	s := New(testSnapshot(t), util.NewRand(6), 64)
	s.Advance(0)
	require.Greater(t, s.LastPitch(model.Bass), 0)

	s.Flush(32, 0)
	first := s.Heads()
	assert := assert.New(t)
	assert.Equal(0, s.LastPitch(model.Bass))
	assert.Nil(s.Band().Fill)

	s.Flush(32, 0)
	assert.Equal(first, s.Heads())
	assert.Equal(0, s.LastPitch(model.Bass))
	for _, head := range first {
		assert.Equal(32, head)
	}
}

func TestFlushPrimeWarmsMemory(t *testing.T) {
	s := New(testSnapshot(t), util.NewRand(7), 64)
	s.Flush(32, 64)

	assert := assert.New(t)
	assert.Greater(s.LastPitch(model.Bass), 0)
	assert.Equal(32, s.Heads()[model.Bass])

	events := s.Advance(32)
	require.NotEmpty(t, events)
	assert.Equal(32, events[0].Step)
}

func TestPrimeDefaultsToTwoLoops(t *testing.T) {
	s := New(testSnapshot(t), util.NewRand(8), 64)
	s.Prime(0)
	assert.Greater(t, s.LastPitch(model.Bass), 0)
	assert.Equal(t, 0, s.Heads()[model.Bass])
}

func TestConfigureRebuildsChangedStyles(t *testing.T) {
	snap := testSnapshot(t)
	s := New(snap, util.NewRand(9), 64)
	s.Advance(0)

	snap.BassStyle = model.BassWhole
	snap.Genre = model.Funk
	s.Configure(snap)
	assert := assert.New(t)
	assert.Equal(0, s.LastPitch(model.Bass))
	assert.Greater(s.LastPitch(model.Lead)+s.LastPitch(model.Comping), 0)
	assert.Equal(model.Funk, s.Band().Genre)
}
