package chord

import (
	"math"
	"sort"

	"github.com/jsphweid/backingband/util"
)

const (
	VoicingLow    = 52
	VoicingHigh   = 79
	VoicingCenter = 62

	// pull toward the center so long progressions do not drift
	centerPull = 0.15
)

// pitchClasses returns the distinct chord tones in interval order, dropping
// the fifth and then the eleventh from dense chords.
func pitchClasses(root int, intervals []int) []int {
	ivs := append([]int(nil), intervals...)
	if len(ivs) > 4 {
		ivs = without(ivs, 7)
	}
	if len(ivs) > 4 {
		ivs = without(ivs, 17)
	}
	seen := make(map[int]bool)
	var res []int
	for _, iv := range ivs {
		pc := util.Mod(root+iv, 12)
		if !seen[pc] {
			seen[pc] = true
			res = append(res, pc)
		}
	}
	return res
}

func without(ivs []int, iv int) []int {
	var res []int
	for _, v := range ivs {
		if v != iv {
			res = append(res, v)
		}
	}
	return res
}

// Centroid is the mean pitch of a voicing.
func Centroid(voicing []int) float64 {
	return util.Mean(voicing)
}

// closePosition stacks pcs upward from the first one, starting at or above low.
func closePosition(pcs []int, low int) []int {
	res := make([]int, 0, len(pcs))
	base := low + util.Mod(pcs[0]-low, 12)
	res = append(res, base)
	for _, pc := range pcs[1:] {
		next := res[len(res)-1] + 1
		res = append(res, next+util.Mod(pc-next, 12))
	}
	return res
}

// Voice realizes a close-position voicing for the chord, choosing the
// inversion and octave whose centroid sits closest to the previous voicing.
func Voice(root int, intervals []int, prev []int) []int {
	pcs := pitchClasses(root, intervals)
	if len(pcs) == 0 {
		return nil
	}
	target := float64(VoicingCenter)
	if len(prev) > 0 {
		target = Centroid(prev)
	}

	var best []int
	bestScore := math.Inf(1)
	for inv := 0; inv < len(pcs); inv++ {
		rotated := append(append([]int(nil), pcs[inv:]...), pcs[:inv]...)
		for low := VoicingLow; low <= VoicingLow+12; low += 12 {
			candidate := closePosition(rotated, low)
			if candidate[len(candidate)-1] > VoicingHigh {
				continue
			}
			c := Centroid(candidate)
			score := math.Abs(c-target) + centerPull*math.Abs(c-VoicingCenter)
			if score < bestScore {
				bestScore = score
				best = candidate
			}
		}
	}
	if best == nil {
		best = closePosition(pcs, VoicingLow)
	}
	sort.Ints(best)
	return best
}
