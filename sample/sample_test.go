package sample

import (
	"testing"

	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExcerpt(t *testing.T) {
	assert := assert.New(t)
	meter, _ := model.LookupMeter("4/4")

	b := midi.NewTrackBuilder("lead", 2)
	b.Program(0, 80)
	for i := uint32(0); i < 8; i++ {
		b.NoteOn(i*480, uint8(60+i), 100)
		b.NoteOff(i*480+400, uint8(60+i))
	}
	// sounds across the cut
	b.NoteOn(900, 50, 90)
	b.NoteOff(2000, 50)
	s, err := midi.NewSMF(480, midi.MetaTrack("song", 120, meter, nil, 4000), b.Build(4000))
	require.Nil(t, err)

	excerpt := Create(s, 960, 3)
	require.Len(t, excerpt.Tracks, 2)

	spans := chord.ReadNotes(excerpt)
	require.Len(t, spans, 3)
	assert.Equal(uint8(62), spans[0].Key)
	assert.Equal(int64(0), spans[0].OnTick)
	assert.Equal(int64(400), spans[0].OffTick)
	assert.Equal(uint8(64), spans[2].Key)
	for _, span := range spans {
		assert.GreaterOrEqual(span.OffTick, span.OnTick)
	}

	// the data survives a write and read
	data, err := midi.Encode(excerpt)
	require.Nil(t, err)
	_, err = midi.Decode(data)
	assert.Nil(err)
}
