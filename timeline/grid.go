package timeline

import (
	"math"
)

// StepTimes returns the start time in seconds of each step in [0, steps],
// integrating per-step durations so swung steps keep their true length.
// With eighths the swing alternates per pair of steps, otherwise per step.
func StepTimes(steps int, bpm float64, stepsPerBeat int, swing float64, eighths bool) []float64 {
	if steps < 0 {
		steps = 0
	}
	if stepsPerBeat <= 0 {
		stepsPerBeat = 4
	}
	dur := 60 / bpm / float64(stepsPerBeat)
	shift := dur / 3 * swing / 100

	res := make([]float64, steps+1)
	for i := 0; i < steps; i++ {
		phase := i
		if eighths {
			phase = i / 2
		}
		d := dur + shift
		if phase%2 == 1 {
			d = dur - shift
		}
		res[i+1] = res[i] + d
	}
	return res
}

// grid maps step positions onto ticks. Loops repeat loopTicks exactly and
// the cadence is appended after the last loop.
type grid struct {
	bpm       float64
	ppq       int
	loopSteps int
	loops     int
	loop      []uint32
	cadence   []uint32
}

func newGrid(bpm float64, ppq, stepsPerBeat int, swing float64, eighths bool, loopSteps, loops, cadenceSteps int) *grid {
	g := &grid{bpm: bpm, ppq: ppq, loopSteps: loopSteps, loops: loops}
	g.loop = g.toTicks(StepTimes(loopSteps, bpm, stepsPerBeat, swing, eighths))
	g.cadence = g.toTicks(StepTimes(cadenceSteps, bpm, stepsPerBeat, swing, eighths))
	return g
}

func (g *grid) seconds(sec float64) uint32 {
	t := math.Round(sec * g.bpm / 60 * float64(g.ppq))
	if t < 0 {
		return 0
	}
	return uint32(t)
}

func (g *grid) toTicks(times []float64) []uint32 {
	res := make([]uint32, len(times))
	for i, sec := range times {
		res[i] = g.seconds(sec)
	}
	return res
}

func (g *grid) loopTicks() uint32 { return g.loop[len(g.loop)-1] }

func (g *grid) cadenceTicks() uint32 { return g.cadence[len(g.cadence)-1] }

func (g *grid) cadenceStart() int { return g.loops * g.loopSteps }

func (g *grid) endTick() uint32 {
	return uint32(g.loops)*g.loopTicks() + g.cadenceTicks()
}

// at converts an integer step, loop or cadence, to a tick.
func (g *grid) at(step int) uint32 {
	if step <= 0 {
		return 0
	}
	if step >= g.cadenceStart() {
		i := step - g.cadenceStart()
		if i >= len(g.cadence) {
			i = len(g.cadence) - 1
		}
		return uint32(g.loops)*g.loopTicks() + g.cadence[i]
	}
	return uint32(step/g.loopSteps)*g.loopTicks() + g.loop[step%g.loopSteps]
}

// atf interpolates fractional step positions.
func (g *grid) atf(pos float64) uint32 {
	if pos <= 0 || math.IsNaN(pos) {
		return 0
	}
	whole := math.Floor(pos)
	frac := pos - whole
	lo := g.at(int(whole))
	if frac == 0 {
		return lo
	}
	hi := g.at(int(whole) + 1)
	return lo + uint32(math.Round(frac*float64(hi-lo)))
}
