package generator

import (
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

type FillLevel int

const (
	FillLow FillLevel = iota
	FillMedium
	FillHigh
)

func LevelFor(intensity float64) FillLevel {
	switch {
	case intensity > 0.75:
		return FillHigh
	case intensity > 0.4:
		return FillMedium
	}
	return FillLow
}

type DrumHit struct {
	Note     int
	Velocity float64
}

// Fill replaces the groove on [Start, End). Hits is keyed by absolute step.
type Fill struct {
	Start int
	End   int
	Hits  map[int][]DrumHit
	// play a crash and kick on End
	Crash bool
}

type fillTemplate struct {
	steps []int
	notes []int
	vels  []float64
}

const (
	kick  = constants.KickNote
	snare = constants.SnareNote
	ohat  = constants.OpenNote
	crash = constants.CrashNote
)

var fillTemplates = map[model.Genre]map[FillLevel][]fillTemplate{
	model.Rock: {
		FillLow: {
			{[]int{12, 14}, []int{snare, snare}, []float64{0.8, 0.7}},
			{[]int{12, 13, 14}, []int{kick, snare, snare}, []float64{1, 0.7, 0.9}},
		},
		FillMedium: {
			{[]int{8, 10, 12, 14}, []int{snare, snare, snare, snare}, []float64{0.6, 0.7, 0.8, 0.9}},
			{[]int{8, 10, 12, 14}, []int{snare, kick, snare, kick}, []float64{0.8, 1, 0.9, 1.1}},
		},
		FillHigh: {
			{[]int{8, 9, 10, 11, 12, 13, 14, 15}, []int{snare, snare, snare, snare, snare, snare, snare, snare}, []float64{0.5, 0.4, 0.6, 0.5, 0.7, 0.6, 0.9, 0.8}},
			{[]int{0, 2, 4, 6, 8, 10, 12, 14}, []int{kick, crash, snare, snare, kick, crash, snare, kick}, []float64{1.2, 1, 0.9, 0.9, 1.2, 1, 1, 1.2}},
		},
	},
	model.Funk: {
		FillLow: {
			{[]int{13, 15}, []int{snare, snare}, []float64{0.3, 0.4}},
			{[]int{14}, []int{ohat}, []float64{0.8}},
		},
		FillMedium: {
			{[]int{12, 13, 14, 15}, []int{kick, snare, kick, snare}, []float64{0.9, 0.4, 0.9, 0.8}},
		},
		FillHigh: {
			{[]int{8, 10, 11, 13, 14}, []int{snare, snare, kick, snare, kick}, []float64{0.9, 0.4, 1, 0.9, 1.1}},
		},
	},
	model.Jazz: {
		FillLow:    {{[]int{11, 14}, []int{snare, snare}, []float64{0.4, 0.5}}},
		FillMedium: {{[]int{8, 11, 14}, []int{snare, snare, snare}, []float64{0.5, 0.6, 0.7}}},
		FillHigh:   {{[]int{4, 7, 10, 13}, []int{snare, kick, snare, kick}, []float64{0.7, 0.8, 0.8, 0.9}}},
	},
	model.Blues: {
		FillLow: {
			{[]int{14}, []int{snare}, []float64{0.6}},
			{[]int{14}, []int{kick}, []float64{0.8}},
		},
		FillMedium: {
			{[]int{10, 12, 14}, []int{snare, snare, snare}, []float64{0.6, 0.7, 0.9}},
			{[]int{12, 14}, []int{kick, snare}, []float64{0.9, 0.8}},
		},
		FillHigh: {
			{[]int{8, 10, 12, 14}, []int{snare, kick, snare, crash}, []float64{0.8, 0.9, 0.9, 1.1}},
			{[]int{8, 10, 12, 14}, []int{snare, snare, snare, snare}, []float64{0.7, 0.8, 0.9, 1}},
		},
	},
	model.Disco: {
		FillLow: {
			{[]int{14}, []int{ohat}, []float64{0.9}},
			{[]int{12, 14}, []int{snare, snare}, []float64{0.7, 0.8}},
		},
		FillMedium: {
			{[]int{8, 10, 12, 13, 14, 15}, []int{snare, snare, snare, snare, snare, snare}, []float64{0.6, 0.7, 0.8, 0.9, 0.9, 1}},
		},
		FillHigh: {
			{[]int{8, 9, 10, 11, 12, 13, 14, 15}, []int{snare, kick, snare, kick, snare, ohat, snare, crash}, []float64{0.8, 0.9, 0.9, 1, 1, 1.1, 1.1, 1.2}},
		},
	},
	model.Acoustic: {
		FillLow: {
			{[]int{14}, []int{kick}, []float64{0.6}},
			{[]int{12, 14}, []int{snare, snare}, []float64{0.4, 0.5}},
		},
		FillMedium: {
			{[]int{12, 13, 14, 15}, []int{snare, snare, snare, snare}, []float64{0.4, 0.5, 0.6, 0.5}},
			{[]int{10, 12, 14}, []int{kick, snare, kick}, []float64{0.7, 0.6, 0.8}},
		},
		FillHigh: {
			{[]int{8, 10, 12, 14}, []int{snare, snare, snare, crash}, []float64{0.6, 0.7, 0.8, 0.9}},
		},
	},
}

// NewFill builds a fill for the measure ending at start+length, picking a
// template by genre and intensity. Templates sit on a 16 step measure and
// are aligned to the end of the actual one.
func NewFill(genre model.Genre, intensity float64, start, length int, rng util.Rand) *Fill {
	fill := &Fill{Start: start, End: start + length, Hits: make(map[int][]DrumHit), Crash: true}
	templates, ok := fillTemplates[genre]
	if !ok {
		templates = fillTemplates[model.Rock]
	}
	options := templates[LevelFor(intensity)]
	if len(options) == 0 {
		return fill
	}
	t := util.Pick(rng, options)
	offset := length - 16
	for i, step := range t.steps {
		actual := step + offset
		if actual < 0 || actual >= length {
			continue
		}
		fill.Hits[start+actual] = append(fill.Hits[start+actual], DrumHit{
			Note:     t.notes[i],
			Velocity: util.Min(t.vels[i], 1),
		})
	}
	return fill
}

// AnticipationFill is the one step kick and open hat push into a section.
func AnticipationFill(step int) *Fill {
	return &Fill{
		Start: step,
		End:   step + 1,
		Hits: map[int][]DrumHit{
			step: {
				{Note: constants.KickNote, Velocity: 0.6},
				{Note: constants.OpenNote, Velocity: 0.9},
			},
		},
		Crash: true,
	}
}
