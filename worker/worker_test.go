package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T, progression string) model.Snapshot {
	arr, err := arrangement.Build(model.Document{
		Key:      "C",
		Sections: []model.SectionDoc{{ID: "a", Label: "Verse", Progression: progression}},
	})
	require.Nil(t, err)
	snap := model.DefaultSnapshot()
	snap.Arrangement = arr
	snap.DrumGrid = []model.DrumRow{{Name: "Kick", Steps: []int{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0}}}
	return snap
}

func next(t *testing.T, w *Worker) Event {
	select {
	case e := <-w.Events():
		return e
	default:
		t.Fatal("expected an event")
	}
	return nil
}

func TestAdvanceEmitsNotes(t *testing.T) {
	assert := assert.New(t)
	w := New(Options{Seed: 1, Lookahead: 32})
	w.handle(Sync{Snapshot: testSnapshot(t, "C | Am | F | G7")})
	w.handle(Advance{Step: 0})

	notes, ok := next(t, w).(EventNotes)
	require.True(t, ok)
	assert.Equal(0, notes.Step)
	assert.NotEmpty(notes.Notes)
	assert.Greater(notes.Intensity, 0.0)
	for _, n := range notes.Notes {
		assert.Less(n.Step, 32)
	}
}

func TestSyncKeepsPrivateCopy(t *testing.T) {
	w := New(Options{Seed: 1})
	snap := testSnapshot(t, "C | G")
	w.handle(Sync{Snapshot: snap})

	snap.DrumGrid[0].Steps[0] = 0
	snap.Enabled[model.Bass] = false
	assert.Equal(t, 2, w.snap.DrumGrid[0].Steps[0])
	assert.True(t, w.snap.IsEnabled(model.Bass))
}

func TestArrangementChangeFlushesAtCurrentStep(t *testing.T) {
	assert := assert.New(t)
	w := New(Options{Seed: 1, Lookahead: 64})
	w.handle(Sync{Snapshot: testSnapshot(t, "C | Am | F | G7")})
	w.handle(Advance{Step: 16})
	assert.Equal(80, w.sched.Heads()[model.Bass])

	// same arrangement, new tempo: nothing is flushed
	snap := w.snap.Clone()
	snap.BPM = 140
	w.handle(Sync{Snapshot: snap})
	assert.Equal(80, w.sched.Heads()[model.Bass])

	w.handle(Sync{Snapshot: testSnapshot(t, "Dm7 | G7 | Cmaj7")})
	for _, head := range w.sched.Heads() {
		assert.Equal(16, head)
	}
}

func TestPanicBecomesErrorEvent(t *testing.T) {
	assert := assert.New(t)
	w := New(Options{Seed: 1})
	w.before = func(cmd Command) {
		if _, ok := cmd.(Prime); ok {
			panic("boom")
		}
	}
	w.handle(Sync{Snapshot: testSnapshot(t, "C | G")})
	w.handle(Prime{})

	e, ok := next(t, w).(EventError)
	require.True(t, ok)
	assert.Equal("prime", e.Command)
	assert.Contains(e.Err.Error(), "boom")

	w.handle(Advance{Step: 0})
	_, ok = next(t, w).(EventNotes)
	assert.True(ok)
}

func TestFullEventChannelDrops(t *testing.T) {
	w := New(Options{Seed: 1})
	for i := 0; i < EventBuffer+10; i++ {
		w.emit(EventStopped{})
	}
	assert.Len(t, w.events, EventBuffer)
}

func TestExportAndStop(t *testing.T) {
	assert := assert.New(t)
	w := New(Options{Seed: 1})

	w.handle(Export{})
	_, ok := next(t, w).(EventError)
	assert.True(ok)

	w.handle(Sync{Snapshot: testSnapshot(t, "C | Am | F | G7")})
	w.handle(Export{Options: timeline.Options{Loops: 1, Name: "song"}})
	exported, ok := next(t, w).(EventExport)
	require.True(t, ok)
	assert.Equal("song.mid", exported.Filename)
	assert.NotEmpty(exported.Data)
	assert.Equal(uint32(7680+1920), exported.TotalTicks)

	w.handle(Advance{Step: 8})
	next(t, w)
	w.handle(Stop{})
	_, ok = next(t, w).(EventStopped)
	assert.True(ok)
	for _, head := range w.sched.Heads() {
		assert.Equal(0, head)
	}
	assert.Equal(0, w.sched.Conductor().Snapshot().LoopCount)
}

func TestClientSendIsNonBlocking(t *testing.T) {
	assert := assert.New(t)
	w := New(Options{Seed: 1})
	c := w.Client()
	for i := 0; i < CommandBuffer; i++ {
		assert.Nil(c.Send(Advance{Step: i}))
	}
	assert.Equal(ErrBusy, c.Send(Advance{}))

	c.Close()
	c.Close()
	assert.Equal(ErrClosed, c.Send(Advance{}))
}

func TestSyncDebouncedCoalesces(t *testing.T) {
	w := New(Options{Seed: 1})
	var syncs int32
	w.before = func(cmd Command) {
		if _, ok := cmd.(Sync); ok {
			atomic.AddInt32(&syncs, 1)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	snap := testSnapshot(t, "C | G")
	for bpm := 100; bpm < 110; bpm++ {
		snap.BPM = float64(bpm)
		w.Client().SyncDebounced(snap)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&syncs) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * SyncDelay)
	assert.Equal(t, int32(1), atomic.LoadInt32(&syncs))
}

func TestRunStopsWhenClientCloses(t *testing.T) {
	w := New(Options{Seed: 1})
	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	require.Nil(t, w.Client().Send(Stop{}))
	w.Client().Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	var events []Event
	for e := range w.Events() {
		events = append(events, e)
	}
	assert.Equal(t, []Event{EventStopped{}}, events)
}
