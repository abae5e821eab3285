package arrangement

import (
	"sort"

	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

// Position describes where a step falls in the arrangement.
type Position struct {
	Step  int // wrapped into [0, TotalSteps)
	Entry int // index into StepMap
	Chord *model.Chord

	StepInChord int
	ChordSteps  int

	Span          int // index into SectionMap, -1 when unmapped
	Section       *model.Section
	SectionStart  int
	SectionEnd    int
	StepInSection int
}

// Lookup finds the chord active at step. Steps wrap around the loop in both
// directions. It reports false when the maps are empty or inconsistent.
func Lookup(a *model.Arrangement, step int) (Position, bool) {
	var pos Position
	if a == nil || a.TotalSteps <= 0 || len(a.StepMap) == 0 {
		return pos, false
	}
	s := util.Mod(step, a.TotalSteps)
	i := sort.Search(len(a.StepMap), func(i int) bool { return a.StepMap[i].End > s })
	if i >= len(a.StepMap) {
		return pos, false
	}
	entry := a.StepMap[i]
	if entry.Start > s || entry.Chord < 0 || entry.Chord >= len(a.Progression) {
		return pos, false
	}

	pos.Step = s
	pos.Entry = i
	pos.Chord = &a.Progression[entry.Chord]
	pos.StepInChord = s - entry.Start
	pos.ChordSteps = entry.End - entry.Start

	pos.Span = -1
	pos.SectionStart = entry.Start
	pos.SectionEnd = entry.End
	j := sort.Search(len(a.SectionMap), func(j int) bool { return a.SectionMap[j].End > s })
	if j < len(a.SectionMap) && a.SectionMap[j].Start <= s {
		span := a.SectionMap[j]
		pos.Span = j
		pos.SectionStart = span.Start
		pos.SectionEnd = span.End
		if span.Section >= 0 && span.Section < len(a.Sections) {
			pos.Section = &a.Sections[span.Section]
		}
	}
	pos.StepInSection = s - pos.SectionStart
	return pos, true
}

// SectionID returns the id of the section that owns the position, falling
// back to the chord's section id.
func (p Position) SectionID() string {
	if p.Section != nil {
		return p.Section.ID
	}
	if p.Chord != nil {
		return p.Chord.SectionID
	}
	return ""
}

func (p Position) SectionLabel() string {
	if p.Section != nil {
		return p.Section.Label
	}
	if p.Chord != nil {
		return p.Chord.SectionLabel
	}
	return ""
}

// IsLastStepOfChord reports whether the position is the final step of its chord.
func (p Position) IsLastStepOfChord() bool {
	return p.Chord != nil && p.StepInChord == p.ChordSteps-1
}
