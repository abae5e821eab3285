package arrangement

import (
	"fmt"
	"strings"

	"github.com/jsphweid/backingband/model"
)

var sectionEnergy = []struct {
	key    string
	energy float64
}{
	// pre-chorus must match before chorus
	{"pre-chorus", 0.6},
	{"intro", 0.4},
	{"verse", 0.5},
	{"build", 0.7},
	{"chorus", 0.9},
	{"drop", 1.0},
	{"bridge", 0.6},
	{"solo", 0.8},
	{"outro", 0.4},
	{"breakdown", 0.3},
}

// SectionEnergy maps a section label onto a baseline energy in [0, 1].
func SectionEnergy(label string) float64 {
	lower := strings.ToLower(label)
	for _, e := range sectionEnergy {
		if strings.Contains(lower, e.key) {
			return e.energy
		}
	}
	return 0.5
}

type FormSection struct {
	ID        string
	Label     string
	Role      model.Role
	Flux      float64
	Iteration int
	Start     int
	End       int
}

// Form holds one FormSection per entry of the arrangement's SectionMap.
type Form struct {
	Sections []FormSection
}

// At returns the analysis for SectionMap index span.
func (f *Form) At(span int) (FormSection, bool) {
	if f == nil || span < 0 || span >= len(f.Sections) {
		return FormSection{}, false
	}
	return f.Sections[span], true
}

// AnalyzeForm assigns a functional role to every section instance from its
// label, its harmonic flux and how often its chord signature repeats.
func AnalyzeForm(a *model.Arrangement) *Form {
	form := &Form{}
	if a == nil || len(a.SectionMap) == 0 {
		return form
	}
	spm := a.StepsPerMeasure()
	if spm <= 0 {
		spm = 16
	}

	occurrences := make(map[string]int)
	for _, span := range a.SectionMap {
		fs := FormSection{ID: span.SectionID, Start: span.Start, End: span.End}
		if span.Section >= 0 && span.Section < len(a.Sections) {
			fs.Label = a.Sections[span.Section].Label
		}

		var symbols []string
		changes := 0
		last := ""
		for _, entry := range a.StepMap {
			if entry.Start < span.Start || entry.Start >= span.End {
				continue
			}
			c := a.Progression[entry.Chord]
			id := fmt.Sprintf("%s_%d", c.Symbol, c.Root)
			if id != last {
				changes++
				last = id
			}
			if len(symbols) == 0 || symbols[len(symbols)-1] != c.Symbol {
				symbols = append(symbols, c.Symbol)
			}
		}
		signature := strings.Join(symbols, "|")
		occurrences[signature]++
		fs.Iteration = occurrences[signature]

		bars := float64(span.End-span.Start) / float64(spm)
		if bars > 0 {
			fs.Flux = float64(changes) / bars
		}
		form.Sections = append(form.Sections, fs)
	}

	for i := range form.Sections {
		explicit := model.RoleNone
		if span := a.SectionMap[i]; span.Section >= 0 && span.Section < len(a.Sections) {
			explicit = a.Sections[span.Section].Role
		}
		if explicit != model.RoleNone {
			form.Sections[i].Role = explicit
			continue
		}
		form.Sections[i].Role = inferRole(form.Sections[i], i, len(form.Sections))
	}
	return form
}

func inferRole(s FormSection, index, count int) model.Role {
	label := strings.ToLower(s.Label)
	isBridge := label == "b" || strings.Contains(label, "bridge")

	switch {
	case strings.Contains(label, "intro"):
		return model.Exposition
	case strings.Contains(label, "outro"):
		return model.Resolution
	case strings.Contains(label, "solo"), strings.Contains(label, "chorus"), strings.Contains(label, "drop"):
		return model.Climax
	}

	if s.Iteration == 1 {
		switch {
		case index == 0:
			return model.Exposition
		case isBridge:
			return model.Contrast
		case s.Flux > 2.8:
			return model.Development
		}
		return model.Contrast
	}

	switch {
	case isBridge:
		return model.Contrast
	case s.Iteration >= 3:
		// pull back a section that has already been heard twice
		return model.Recapitulation
	case s.Flux > 2.2:
		return model.Build
	case index == count-1:
		return model.Recapitulation
	}
	return model.Development
}
