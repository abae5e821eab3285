package chord

import (
	"fmt"
	"log"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

func CreateChordKey(notes []int) string {
	sorted := append([]int(nil), notes...)
	sort.Ints(sorted)
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

// NoteSpan is a sounding note recovered from a midi file. OffTick is -1 when
// the file never releases the note.
type NoteSpan struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8
	OnTick   int64
	OffTick  int64
}

type reducedEvent struct {
	tick      int64
	isNoteOff bool
	channel   uint8
	key       uint8
	velocity  uint8
}

// ReadNotes pairs every note-on in s with the note-off that releases it.
func ReadNotes(s *smf.SMF) (spans []NoteSpan) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("WARN recovered while reading notes: %v", err)
		}
	}()

	for trackNum, events := range s.Tracks {
		var reducedEvents []reducedEvent
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, reducedEvent{
					tick:      absTicks,
					isNoteOff: velocity == 0,
					channel:   channel,
					key:       key,
					velocity:  velocity,
				})
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, reducedEvent{
					tick:      absTicks,
					isNoteOff: true,
					channel:   channel,
					key:       key,
				})
			}
		}

		// prioritize smaller ticks then note off
		sort.SliceStable(reducedEvents, func(i, j int) bool {
			if reducedEvents[i].tick != reducedEvents[j].tick {
				return reducedEvents[i].tick < reducedEvents[j].tick
			}
			return reducedEvents[i].isNoteOff && !reducedEvents[j].isNoteOff
		})

		pressed := make(map[[2]uint8][]int)
		for _, evt := range reducedEvents {
			id := [2]uint8{evt.channel, evt.key}
			if !evt.isNoteOff {
				spans = append(spans, NoteSpan{
					Track:    trackNum,
					Channel:  evt.channel,
					Key:      evt.key,
					Velocity: evt.velocity,
					OnTick:   evt.tick,
					OffTick:  -1,
				})
				pressed[id] = append(pressed[id], len(spans)-1)
				continue
			}
			open := pressed[id]
			if len(open) == 0 {
				continue
			}
			spans[open[0]].OffTick = evt.tick
			pressed[id] = open[1:]
		}
	}
	return spans
}
