package model

type Section struct {
	ID       string
	Label    string
	Role     Role
	Seamless bool
	Key      string
}

// StepEntry maps the half-open step range [Start, End) onto Progression[Chord].
type StepEntry struct {
	Start int
	End   int
	Chord int
}

// SectionSpan maps the half-open step range [Start, End) onto Sections[Section].
type SectionSpan struct {
	Start     int
	End       int
	SectionID string
	Section   int
}

type Arrangement struct {
	Key   int // tonic pitch class
	Minor bool
	Meter Meter

	Sections    []Section
	Progression []Chord
	StepMap     []StepEntry
	SectionMap  []SectionSpan
	TotalSteps  int
}

func (a *Arrangement) StepsPerMeasure() int {
	return a.Meter.StepsPerMeasure()
}

func (a *Arrangement) Clone() *Arrangement {
	if a == nil {
		return nil
	}
	res := *a
	res.Meter = a.Meter.Clone()
	res.Sections = append([]Section(nil), a.Sections...)
	res.StepMap = append([]StepEntry(nil), a.StepMap...)
	res.SectionMap = append([]SectionSpan(nil), a.SectionMap...)
	res.Progression = make([]Chord, len(a.Progression))
	for i, c := range a.Progression {
		res.Progression[i] = c.Clone()
	}
	return &res
}

type Meter struct {
	Beats        int
	StepsPerBeat int
	Denominator  int
	Grouping     []int
}

var meters = map[string]Meter{
	"2/4":  {Beats: 2, StepsPerBeat: 4, Denominator: 4, Grouping: []int{2}},
	"3/4":  {Beats: 3, StepsPerBeat: 4, Denominator: 4, Grouping: []int{3}},
	"4/4":  {Beats: 4, StepsPerBeat: 4, Denominator: 4, Grouping: []int{2, 2}},
	"5/4":  {Beats: 5, StepsPerBeat: 4, Denominator: 4, Grouping: []int{3, 2}},
	"6/8":  {Beats: 6, StepsPerBeat: 2, Denominator: 8, Grouping: []int{3, 3}},
	"7/8":  {Beats: 7, StepsPerBeat: 2, Denominator: 8, Grouping: []int{2, 2, 3}},
	"7/4":  {Beats: 7, StepsPerBeat: 4, Denominator: 4, Grouping: []int{4, 3}},
	"12/8": {Beats: 12, StepsPerBeat: 2, Denominator: 8, Grouping: []int{3, 3, 3, 3}},
}

// LookupMeter returns the meter for a signature such as "4/4".
func LookupMeter(name string) (Meter, bool) {
	if name == "" {
		name = "4/4"
	}
	m, ok := meters[name]
	return m.Clone(), ok
}

func (m Meter) Clone() Meter {
	m.Grouping = append([]int(nil), m.Grouping...)
	return m
}

func (m Meter) StepsPerMeasure() int {
	return m.Beats * m.StepsPerBeat
}

type BeatInfo struct {
	StepInMeasure  int
	BeatIndex      int
	IsMeasureStart bool
	IsBeatStart    bool
	IsGroupStart   bool
}

func (m Meter) StepInfo(step int) BeatInfo {
	spm := m.StepsPerMeasure()
	if spm <= 0 || m.StepsPerBeat <= 0 {
		return BeatInfo{}
	}
	mStep := ((step % spm) + spm) % spm
	info := BeatInfo{
		StepInMeasure:  mStep,
		BeatIndex:      mStep / m.StepsPerBeat,
		IsMeasureStart: mStep == 0,
		IsBeatStart:    mStep%m.StepsPerBeat == 0,
	}
	grouping := m.Grouping
	if len(grouping) == 0 {
		grouping = []int{m.Beats}
	}
	acc := 0
	for _, beats := range grouping {
		if mStep == acc {
			info.IsGroupStart = true
			break
		}
		acc += beats * m.StepsPerBeat
	}
	return info
}
