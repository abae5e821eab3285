package generator

import (
	"sort"

	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

// Heuristic voicing thresholds. They are tunable, not derived.
const (
	// guide-tone-only voicings need both thresholds crossed
	ShellComplexityThreshold = 0.6
	ShellIntensityThreshold  = 0.7

	// a lead above this pitch thins the comping texture
	HighLeadPitch           = 72
	HighLeadThinProbability = 0.7

	// off-grid hits drop to three voices this often
	NonStructuralThinProbability = 0.5

	// jazz and acoustic maj7 chords open up the second voice this often
	OpenVoicingProbability = 0.6
)

var guideIntervals = map[int]bool{3: true, 4: true, 10: true, 11: true}

var safeIntervals = map[int]bool{0: true, 7: true, 3: true, 4: true, 10: true, 11: true, 9: true}

// SlotAboveBass lifts every voice that sits within an octave of the bass by
// an octave, then drops duplicated pitches. The pitch classes are kept.
func SlotAboveBass(voicing []int, bass int) []int {
	res := append([]int(nil), voicing...)
	if bass <= 0 || len(res) == 0 {
		return res
	}
	floor := bass + 12
	for i, p := range res {
		for p <= floor {
			p += 12
		}
		res[i] = p
	}
	return dedupe(res)
}

func dedupe(pitches []int) []int {
	sort.Ints(pitches)
	res := pitches[:0]
	for i, p := range pitches {
		if i > 0 && p == pitches[i-1] {
			continue
		}
		res = append(res, p)
	}
	return res
}

// GuideTones keeps only the thirds and sevenths of the voicing. Voicings
// with fewer than two guide tones are returned unchanged.
func GuideTones(root int, voicing []int) []int {
	var res []int
	for _, p := range voicing {
		if guideIntervals[util.Mod(p-root, 12)] {
			res = append(res, p)
		}
	}
	if len(res) < 2 {
		return append([]int(nil), voicing...)
	}
	return res
}

func guideIntervalsOf(intervals []int) []int {
	var res []int
	for _, iv := range intervals {
		if guideIntervals[util.Mod(iv, 12)] {
			res = append(res, iv)
		}
	}
	return res
}

func safeIntervalsOf(intervals []int) []int {
	var res []int
	for _, iv := range intervals {
		if safeIntervals[util.Mod(iv, 12)] {
			res = append(res, iv)
		}
	}
	if len(res) == 0 {
		return []int{0, 7}
	}
	return res
}

// ChordComplexity is 0 for triads and reaches 1 at six distinct intervals.
func ChordComplexity(c *model.Chord) float64 {
	return util.Clamp(float64(len(c.Intervals)-3)/3, 0, 1)
}

// lowest keeps the n lowest voices.
func lowest(voicing []int, n int) []int {
	if len(voicing) <= n {
		return voicing
	}
	return voicing[:n]
}
