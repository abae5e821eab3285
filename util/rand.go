package util

import "math/rand"

// Rand is the random source every generator draws from. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Chance reports true with probability p.
func Chance(r Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}

// Jitter returns a uniform value in [-amount, amount).
func Jitter(r Rand, amount float64) float64 {
	return (r.Float64()*2 - 1) * amount
}

// Between returns a uniform value in [lo, hi).
func Between(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func Pick[A any](r Rand, items []A) A {
	var zero A
	if len(items) == 0 {
		return zero
	}
	return items[r.Intn(len(items))]
}

// PickWeighted returns the index chosen proportionally to weights, or -1
// when every weight is zero.
func PickWeighted(r Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	x := r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		x -= w
		if x < 0 {
			return i
		}
	}
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}
