package midi

import (
	"math"

	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	gm "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/exp/slices"
)

// order within one tick: releases before anything that starts a sound
const (
	rankNoteOff = iota
	rankControl
	rankNoteOn
)

type timedMessage struct {
	tick uint32
	rank int
	msg  []byte
}

// TrackBuilder collects messages at absolute ticks and turns them into a
// delta-timed smf.Track.
type TrackBuilder struct {
	Name    string
	Channel uint8

	events       []timedMessage
	usedSustain  bool
	lastNoteTick uint32
	notes        int
}

func NewTrackBuilder(name string, channel uint8) *TrackBuilder {
	return &TrackBuilder{Name: name, Channel: channel}
}

func (b *TrackBuilder) add(tick uint32, rank int, msg []byte) {
	b.events = append(b.events, timedMessage{tick: tick, rank: rank, msg: msg})
}

func (b *TrackBuilder) Program(tick uint32, program uint8) {
	b.add(tick, rankControl, gm.ProgramChange(b.Channel, program))
}

func (b *TrackBuilder) NoteOn(tick uint32, key, velocity uint8) {
	b.add(tick, rankNoteOn, gm.NoteOn(b.Channel, key, velocity))
	b.notes++
}

func (b *TrackBuilder) NoteOff(tick uint32, key uint8) {
	b.add(tick, rankNoteOff, gm.NoteOff(b.Channel, key))
	if tick > b.lastNoteTick {
		b.lastNoteTick = tick
	}
}

func (b *TrackBuilder) Control(tick uint32, controller, value uint8) {
	b.add(tick, rankControl, gm.ControlChange(b.Channel, controller, value))
	if controller == model.SustainController {
		b.usedSustain = true
	}
}

func (b *TrackBuilder) PitchBend(tick uint32, value int16) {
	b.add(tick, rankControl, gm.Pitchbend(b.Channel, value))
}

func (b *TrackBuilder) Notes() int { return b.notes }

func (b *TrackBuilder) UsedSustain() bool { return b.usedSustain }

// LastNoteTick is the tick of the latest note-off added so far.
func (b *TrackBuilder) LastNoteTick() uint32 { return b.lastNoteTick }

// Build sorts the collected messages by tick, note-offs first on ties, and
// closes the track at endTick. Messages past endTick are pulled back to it.
func (b *TrackBuilder) Build(endTick uint32) smf.Track {
	events := append([]timedMessage(nil), b.events...)
	for i := range events {
		if events[i].tick > endTick {
			events[i].tick = endTick
		}
	}
	slices.SortStableFunc(events, func(x, y timedMessage) bool {
		if x.tick != y.tick {
			return x.tick < y.tick
		}
		return x.rank < y.rank
	})

	var tr smf.Track
	if b.Name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(b.Name))
	}
	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	tr.Close(endTick - last)
	return tr
}

// Marker is a text marker on the meta track, used for chord names.
type Marker struct {
	Tick uint32
	Text string
}

// MetaTrack carries the song name, tempo, meter and chord markers.
func MetaTrack(name string, bpm float64, meter model.Meter, markers []Marker, endTick uint32) smf.Track {
	var tr smf.Track
	if name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(name))
	}
	tr.Add(0, smf.MetaTempo(bpm))
	denom := meter.Denominator
	if denom == 0 {
		denom = 4
	}
	tr.Add(0, smf.MetaMeter(uint8(meter.Beats), uint8(denom)))

	sorted := append([]Marker(nil), markers...)
	slices.SortStableFunc(sorted, func(x, y Marker) bool { return x.Tick < y.Tick })
	var last uint32
	for _, m := range sorted {
		if m.Tick > endTick {
			break
		}
		tr.Add(m.Tick-last, smf.MetaMarker(m.Text))
		last = m.Tick
	}
	tr.Close(endTick - last)
	return tr
}

// NewSMF assembles tracks into a format 1 file.
func NewSMF(ppq uint16, tracks ...smf.Track) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ppq)
	for _, tr := range tracks {
		if err := s.Add(tr); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ScaleVelocity maps a normalized velocity onto 1..127, dividing by the
// square root of the voice count so dense chords are not louder than
// single notes. Ghost notes keep the MinVelocity floor.
func ScaleVelocity(v float64, voices int) uint8 {
	if voices < 1 {
		voices = 1
	}
	scaled := math.Round(v / math.Sqrt(float64(voices)) * 127)
	if math.IsNaN(scaled) || scaled < constants.MinVelocity {
		return constants.MinVelocity
	}
	if scaled > 127 {
		return 127
	}
	return uint8(scaled)
}

// BendValue converts a scoop of semitones below the target into a 14 bit
// pitch bend value for a +-2 semitone bend range.
func BendValue(semitones float64) int16 {
	v := semitones / 2 * 8191
	if v > 8191 {
		v = 8191
	}
	if v < -8192 {
		v = -8192
	}
	return int16(math.Round(v))
}
