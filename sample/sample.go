package sample

import (
	"bytes"

	"gitlab.com/gomidi/midi/v2/smf"
)

var endOfTrack = []byte{0xff, 0x2f, 0x00}

// Create cuts an excerpt out of mf starting at fromTick. Each track keeps
// at most maxNotes note-ons; notes still sounding when the cap is reached
// are released at their original time. Setup messages found before
// fromTick (names, tempo, programs) are moved to the start.
func Create(mf *smf.SMF, fromTick uint64, maxNotes int) *smf.SMF {
	res := smf.New()
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var newTrack smf.Track
		var absTicks, lastTick uint64
		var numNoteOn int
		held := map[[2]uint8]int{}
		sounding := 0

		add := func(tick uint64, msg []byte) {
			newTrack.Add(uint32(tick-lastTick), msg)
			lastTick = tick
		}

	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			if bytes.Equal(evt.Message, endOfTrack) {
				continue
			}
			isOn, isOff, ch, key := noteOf(evt.Message)

			switch {
			case absTicks < fromTick:
				if !isOn && !isOff {
					add(lastTick, evt.Message)
				}
			case isOn:
				if numNoteOn >= maxNotes {
					if sounding == 0 {
						break TrackEventLoop
					}
					continue
				}
				numNoteOn++
				held[[2]uint8{ch, key}]++
				sounding++
				add(absTicks-fromTick, evt.Message)
			case isOff:
				id := [2]uint8{ch, key}
				if held[id] == 0 {
					continue
				}
				held[id]--
				sounding--
				add(absTicks-fromTick, evt.Message)
				if numNoteOn >= maxNotes && sounding == 0 {
					break TrackEventLoop
				}
			default:
				if numNoteOn < maxNotes {
					add(absTicks-fromTick, evt.Message)
				}
			}
		}

		newTrack.Close(0)
		res.Tracks = append(res.Tracks, newTrack)
	}

	return res
}

// noteOf reads the raw status byte so a note-on with velocity 0 counts as
// a release.
func noteOf(msg []byte) (isOn, isOff bool, ch, key uint8) {
	if len(msg) < 3 {
		return false, false, 0, 0
	}
	ch, key = msg[0]&0x0f, msg[1]
	switch msg[0] & 0xf0 {
	case 0x90:
		if msg[2] > 0 {
			return true, false, ch, key
		}
		return false, true, ch, key
	case 0x80:
		return false, true, ch, key
	}
	return false, false, 0, 0
}
