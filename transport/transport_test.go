package transport

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/worker"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gm "gitlab.com/gomidi/midi/v2"
)

type manualClock struct {
	mu     sync.Mutex
	ticks  chan Tick
	tempos []float64
}

func newManualClock() *manualClock {
	return &manualClock{ticks: make(chan Tick, 4)}
}

func (c *manualClock) Ticks() <-chan Tick { return c.ticks }

func (c *manualClock) SetTempo(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tempos = append(c.tempos, bpm)
}

func (c *manualClock) Run(ctx context.Context) {}

func (c *manualClock) tempoCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tempos)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs [][]byte
	fail bool
}

func (s *recordingSink) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("unplugged")
	}
	s.msgs = append(s.msgs, append([]byte(nil), msg...))
	return nil
}

func (s *recordingSink) count(status byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.msgs {
		if len(m) > 0 && m[0]&0xf0 == status {
			n++
		}
	}
	return n
}

func testSnapshot(t *testing.T) model.Snapshot {
	arr, err := arrangement.Build(model.Document{
		Key:      "C",
		Sections: []model.SectionDoc{{ID: "a", Label: "Verse", Progression: "C | Am | F | G7"}},
	})
	require.Nil(t, err)
	snap := model.DefaultSnapshot()
	snap.Arrangement = arr
	snap.BPM = 3000
	return snap
}

func TestStepDuration(t *testing.T) {
	assert.Equal(t, 125*time.Millisecond, StepDuration(120, 4))
	assert.Equal(t, time.Duration(0), StepDuration(0, 4))
}

func TestSwingShift(t *testing.T) {
	assert := assert.New(t)
	dur := 120 * time.Millisecond
	assert.Equal(time.Duration(0), SwingShift(0, dur, 100, false))
	assert.Equal(40*time.Millisecond, SwingShift(1, dur, 100, false))
	assert.Equal(20*time.Millisecond, SwingShift(3.5, dur, 50, false))
	assert.Equal(time.Duration(0), SwingShift(1, dur, 100, true))
	assert.Equal(40*time.Millisecond, SwingShift(2, dur, 100, true))
}

func TestTickerClockCounts(t *testing.T) {
	assert := assert.New(t)
	clock := NewTickerClock(6000, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go clock.Run(ctx)

	var ticks []Tick
	for tick := range clock.Ticks() {
		ticks = append(ticks, tick)
		if len(ticks) == 5 {
			cancel()
			break
		}
	}
	for i, tick := range ticks {
		assert.Equal(i, tick.Step)
		if i > 0 {
			assert.True(tick.At.After(ticks[i-1].At))
		}
	}

	clock.SetTempo(60)
	assert.Equal(250*time.Millisecond, clock.StepDuration())
	clock.SetTempo(-1)
	assert.Equal(250*time.Millisecond, clock.StepDuration())
}

func TestPlayerSendsScheduledNotes(t *testing.T) {
	snap := testSnapshot(t)
	w := worker.New(worker.Options{Seed: 1, Snapshot: &snap})
	clock := newManualClock()
	sink := &recordingSink{}
	player := NewPlayer(clock, w, sink, snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	go player.Run(ctx)

	clock.ticks <- Tick{Step: 0, At: time.Now()}

	assert.Eventually(t, func() bool { return sink.count(0x90) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return sink.count(0x80) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 4, sink.count(0xc0))
	assert.Greater(t, clock.tempoCount(), 0)
	assert.Equal(t, 0, player.Errors())
}

func TestPlayerSkipsSinkFailures(t *testing.T) {
	snap := testSnapshot(t)
	w := worker.New(worker.Options{Seed: 1, Snapshot: &snap})
	clock := newManualClock()
	sink := &recordingSink{fail: true}
	player := NewPlayer(clock, w, sink, snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	go player.Run(ctx)

	clock.ticks <- Tick{Step: 0, At: time.Now()}
	assert.Eventually(t, func() bool { return player.Errors() > 4 }, 2*time.Second, 10*time.Millisecond)
}

func TestPlayerCancelsPendingOnStop(t *testing.T) {
	snap := testSnapshot(t)
	snap.BPM = 30
	w := worker.New(worker.Options{Seed: 1, Snapshot: &snap})
	clock := newManualClock()
	player := NewPlayer(clock, w, &recordingSink{}, snap)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	done := make(chan struct{})
	go func() {
		player.Run(ctx)
		close(done)
	}()

	clock.ticks <- Tick{Step: 0, At: time.Now()}
	assert.Eventually(t, func() bool { return player.Pending() > 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 0, player.Pending())
}

func TestPlayerFollowsTempoDrift(t *testing.T) {
	assert := assert.New(t)
	snap := testSnapshot(t)
	snap.BPM = 100
	w := worker.New(worker.Options{Seed: 1, Snapshot: &snap})
	clock := newManualClock()
	player := NewPlayer(clock, w, &recordingSink{}, snap)

	start := time.Now()
	player.ref = Tick{Step: 0, At: start, Duration: StepDuration(100, 4)}
	player.handle(worker.EventNotes{Step: 0, TempoOffset: 15})
	assert.Equal(115.0, player.Tempo())
	assert.Equal([]float64{115}, clock.tempos)

	// step 0 keeps the duration it started with, the rest run at 115
	want := start.Add(StepDuration(100, 4) + 47*StepDuration(115, 4))
	assert.WithinDuration(want, player.At(48), time.Millisecond)
	assert.WithinDuration(start.Add(StepDuration(100, 4)/2), player.At(0.5), time.Millisecond)

	// a tick without a duration is timed at the drifted tempo throughout
	player.ref = Tick{Step: 16, At: start}
	assert.WithinDuration(start.Add(32*StepDuration(115, 4)), player.At(48), time.Millisecond)
}

func TestTickerClockReportsStepDuration(t *testing.T) {
	clock := NewTickerClock(120, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go clock.Run(ctx)
	tick := <-clock.Ticks()
	assert.Equal(t, 125*time.Millisecond, tick.Duration)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(&buf)
	require.Nil(t, sink.Send(gm.NoteOn(1, 60, 100).Bytes()))
	assert.Contains(t, buf.String(), "NoteOn")
}
