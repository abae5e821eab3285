package model

type Quality string

// Chord is one entry of a progression. It is not mutated once placed.
type Chord struct {
	Symbol  string
	Root    int // pitch class 0-11
	Bass    int // pitch class of a slash bass, Root otherwise
	Quality Quality
	// semitones above the root, ascending
	Intervals []int
	// realized midi pitches, ascending
	Voicing []int
	Beats   float64

	Index        int
	SectionID    string
	SectionLabel string

	// local key override, empty means the arrangement key
	Key string
}

func (c Chord) Clone() Chord {
	res := c
	res.Intervals = append([]int(nil), c.Intervals...)
	res.Voicing = append([]int(nil), c.Voicing...)
	return res
}

func (c Chord) has(interval int) bool {
	for _, v := range c.Intervals {
		if v%12 == interval {
			return true
		}
	}
	return false
}

func (c Chord) IsMinor() bool {
	return c.has(3) && !c.has(4)
}

// IsTense reports whether the chord carries a tritone or is diminished.
func (c Chord) IsTense() bool {
	if c.has(4) && c.has(10) {
		return true
	}
	return c.has(3) && c.has(6)
}


// IsMajorSeventh reports a plain major seventh chord, without extensions.
func (c Chord) IsMajorSeventh() bool {
	if len(c.Intervals) != 4 {
		return false
	}
	return c.has(0) && c.has(4) && c.has(7) && c.has(11)
}
