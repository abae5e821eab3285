package timeline

import (
	"bytes"
	"testing"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) model.Snapshot {
	arr, err := arrangement.Build(model.Document{
		Key: "C",
		Sections: []model.SectionDoc{
			{ID: "a", Label: "Verse", Progression: "C | Am | F | G7"},
		},
	})
	require.Nil(t, err)
	snap := model.DefaultSnapshot()
	snap.Arrangement = arr
	snap.BPM = 120
	snap.Enabled[model.Harmony] = true
	return snap
}

func TestStepTimes(t *testing.T) {
	assert := assert.New(t)
	dur := 60.0 / 120 / 4

	straight := StepTimes(4, 120, 4, 0, false)
	assert.Len(straight, 5)
	assert.InDelta(4*dur, straight[4], 1e-9)

	sixteenths := StepTimes(4, 120, 4, 100, false)
	assert.InDelta(dur+dur/3, sixteenths[1], 1e-9)
	assert.InDelta(2*dur, sixteenths[2], 1e-9)

	eighths := StepTimes(4, 120, 4, 100, true)
	assert.InDelta(2*dur+2*dur/3, eighths[2], 1e-9)
	assert.InDelta(4*dur, eighths[4], 1e-9)
}

func TestRenderRoundTrip(t *testing.T) {
	assert := assert.New(t)
	res, err := Render(testSnapshot(t), Options{Loops: 2, Name: "test"})
	require.Nil(t, err)

	// 64 steps of 120 ticks per loop plus one 4/4 measure
	assert.Equal(uint32(7680), res.LoopTicks)
	assert.Equal(uint32(1920), res.CadenceTicks)
	assert.Equal(uint32(17280), res.TotalTicks)
	assert.Equal(2*res.LoopTicks+res.CadenceTicks, res.TotalTicks)
	assert.Greater(res.Notes, 0)

	decoded, err := midi.Decode(res.Data)
	require.Nil(t, err)
	// meta plus five instruments
	assert.Len(decoded.Tracks, 6)

	spans := chord.ReadNotes(decoded)
	require.NotEmpty(t, spans)
	for _, span := range spans {
		assert.GreaterOrEqual(span.OffTick, span.OnTick)
		assert.LessOrEqual(span.OffTick, int64(res.TotalTicks))
		assert.GreaterOrEqual(span.Velocity, uint8(constants.MinVelocity))
	}

	for i, track := range decoded.Tracks {
		var total int64
		for _, ev := range track {
			total += int64(ev.Delta)
		}
		assert.Equal(int64(res.TotalTicks), total, "track %d", i)
	}
}

func TestRenderWithSwingKeepsLoopLength(t *testing.T) {
	snap := testSnapshot(t)
	snap.Swing = 60
	res, err := Render(snap, Options{Loops: 3})
	require.Nil(t, err)
	assert.Equal(t, uint32(7680), res.LoopTicks)
	assert.Equal(t, 3*res.LoopTicks+res.CadenceTicks, res.TotalTicks)
}

func TestRenderSelectedTracks(t *testing.T) {
	assert := assert.New(t)
	res, err := Render(testSnapshot(t), Options{Tracks: []model.Instrument{model.Bass}})
	require.Nil(t, err)

	decoded, err := midi.Decode(res.Data)
	require.Nil(t, err)
	assert.Len(decoded.Tracks, 2)
	for _, span := range chord.ReadNotes(decoded) {
		assert.Equal(uint8(constants.BassChannel), span.Channel)
	}
}

func TestCadenceResolvesToTonic(t *testing.T) {
	assert := assert.New(t)
	res, err := Render(testSnapshot(t), Options{Loops: 1})
	require.Nil(t, err)
	decoded, err := midi.Decode(res.Data)
	require.Nil(t, err)

	start := int64(res.LoopTicks)
	half := start + int64(res.CadenceTicks)/2
	var bass []int
	crash := false
	for _, span := range chord.ReadNotes(decoded) {
		switch {
		case span.Channel == constants.BassChannel && (span.OnTick == start || span.OnTick == half):
			bass = append(bass, int(span.Key)%12)
		case span.Channel == constants.DrumChannel && span.OnTick == start && span.Key == constants.CrashNote:
			crash = true
		}
	}
	assert.Contains(bass, 7)
	assert.Contains(bass, 0)
	assert.True(crash)
}

func TestRenderIsDeterministic(t *testing.T) {
	snap := testSnapshot(t)
	a, err := Render(snap, Options{Loops: 2, Seed: 42})
	require.Nil(t, err)
	b, err := Render(snap, Options{Loops: 2, Seed: 42})
	require.Nil(t, err)
	assert.True(t, bytes.Equal(a.Data, b.Data))
}

func TestRenderEmpty(t *testing.T) {
	_, err := Render(model.DefaultSnapshot(), Options{})
	assert.Equal(t, arrangement.ErrEmpty, err)
}
