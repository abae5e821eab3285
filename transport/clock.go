package transport

import (
	"context"
	"sync"
	"time"
)

// Tick marks the moment a step starts. Duration is how long that step
// lasts at the tempo in force when it started, zero when unknown.
type Tick struct {
	Step     int
	At       time.Time
	Duration time.Duration
}

// Clock emits monotonically increasing steps.
type Clock interface {
	Ticks() <-chan Tick
	SetTempo(bpm float64)
	Run(ctx context.Context)
}

// TickerClock counts steps at a tempo that may change while running. A
// tempo change takes effect from the next step.
type TickerClock struct {
	mu           sync.Mutex
	bpm          float64
	stepsPerBeat int
	ticks        chan Tick
	now          func() time.Time
}

func NewTickerClock(bpm float64, stepsPerBeat int) *TickerClock {
	if stepsPerBeat <= 0 {
		stepsPerBeat = 4
	}
	return &TickerClock{
		bpm:          bpm,
		stepsPerBeat: stepsPerBeat,
		ticks:        make(chan Tick, 16),
		now:          time.Now,
	}
}

func (c *TickerClock) Ticks() <-chan Tick { return c.ticks }

func (c *TickerClock) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	c.mu.Lock()
	c.bpm = bpm
	c.mu.Unlock()
}

func (c *TickerClock) StepDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StepDuration(c.bpm, c.stepsPerBeat)
}

// Run emits step 0 immediately and one step per step duration until ctx is
// done. Deadlines are absolute so timer latency does not accumulate.
func (c *TickerClock) Run(ctx context.Context) {
	defer close(c.ticks)
	next := c.now()
	for step := 0; ; step++ {
		dur := c.StepDuration()
		select {
		case c.ticks <- Tick{Step: step, At: next, Duration: dur}:
		case <-ctx.Done():
			return
		}
		next = next.Add(dur)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func StepDuration(bpm float64, stepsPerBeat int) time.Duration {
	if bpm <= 0 || stepsPerBeat <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / bpm / float64(stepsPerBeat))
}
