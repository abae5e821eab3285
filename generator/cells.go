package generator

import (
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

type Vibe int

const (
	VibeBalanced Vibe = iota
	VibeSparse
	VibeActive
)

func (v Vibe) String() string {
	switch v {
	case VibeSparse:
		return "sparse"
	case VibeActive:
		return "active"
	}
	return "balanced"
}

var vibeCells = map[Vibe][][]int{
	VibeBalanced: {
		{1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
	},
	VibeSparse: {
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	},
	VibeActive: {
		{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
		{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
		{1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1},
	},
}

// genreCells are the archetypal hit patterns per genre. 2 marks an accent.
// Jazz is built procedurally.
var genreCells = map[model.Genre][][]int{
	model.Rock: {
		{2, 0, 1, 0, 1, 0, 1, 0, 2, 0, 1, 0, 1, 0, 1, 0},
		{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0},
		{2, 0, 1, 0, 1, 0, 1, 1, 2, 0, 1, 0, 1, 0, 1, 1},
	},
	model.Funk: {
		{0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2, 0},
		{2, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 1},
		{0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0},
	},
	model.Disco: {
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0},
		{2, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
	},
	model.Blues: {
		{2, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		{2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0},
	},
	model.Reggae: {
		{0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0},
		{0, 0, 0, 0, 2, 0, 1, 0, 0, 0, 0, 0, 2, 0, 1, 0},
		{0, 0, 0, 0, 2, 1, 0, 0, 0, 0, 0, 0, 2, 1, 0, 0},
	},
	model.Acoustic: {
		{2, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		{2, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0},
		{2, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	},
	model.Bossa: {
		{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 0},
		{1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
	},
	model.NeoSoul: {
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0},
		{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0},
	},
}

// stickyGenres keep one cell for several measures before regenerating.
var stickyGenres = map[model.Genre]bool{
	model.Funk:    true,
	model.Disco:   true,
	model.Reggae:  true,
	model.Bossa:   true,
	model.NeoSoul: true,
}

func IsSticky(g model.Genre) bool { return stickyGenres[g] }

// jazzCell builds a Charleston or anticipation based comping measure.
func jazzCell(rng util.Rand) []int {
	cell := make([]int, 16)
	if util.Chance(rng, 0.6) {
		cell[0] = 2
		if util.Chance(rng, 0.7) {
			cell[6] = 1
		}
		if util.Chance(rng, 0.5) {
			cell[14] = 1
		}
	} else {
		cell[4] = 1
		if util.Chance(rng, 0.7) {
			cell[10] = 1
		}
	}
	for _, g := range []int{3, 9, 13} {
		if cell[g] == 0 && util.Chance(rng, 0.15) {
			cell[g] = 1
		}
	}
	return cell
}

// stretch repeats a 16 slot pattern across a measure of spm steps.
func stretch(raw []int, spm int) []int {
	cell := make([]int, spm)
	if len(raw) == 0 {
		return cell
	}
	for i := range cell {
		cell[i] = raw[i%len(raw)]
	}
	return cell
}

func equalCells(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
