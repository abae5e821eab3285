package generator

import (
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

const (
	LeadLow       = 60
	LeadHigh      = 88
	MotifCapacity = 16
)

type leadConfig struct {
	cells      [][]int
	phraseLen  [2]int // notes per phrase, min and max
	restSteps  [2]int
	maxLeap    int
	doubleStop float64
	bend       float64
	replay     float64
	blues      bool
	// sustain multiplier over the gap to the next onset
	legato float64
}

var leadConfigs = map[model.LeadStyle]leadConfig{
	model.LeadScalar: {
		cells:     [][]int{{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}, {1, 0, 0, 0, 1, 0, 1, 0, 1, 0, 0, 0, 1, 0, 0, 0}},
		phraseLen: [2]int{6, 12}, restSteps: [2]int{4, 12}, maxLeap: 5, replay: 0.2, legato: 0.9,
	},
	model.LeadShred: {
		cells:     [][]int{{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, {1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1}},
		phraseLen: [2]int{12, 24}, restSteps: [2]int{4, 8}, maxLeap: 4, bend: 0.1, replay: 0.1, legato: 0.8,
	},
	model.LeadBlues: {
		cells:     [][]int{{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0}, {0, 0, 1, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
		phraseLen: [2]int{3, 7}, restSteps: [2]int{8, 20}, maxLeap: 7, doubleStop: 0.2, bend: 0.35, replay: 0.35, blues: true, legato: 1,
	},
	model.LeadNeo: {
		cells:     [][]int{{1, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 0}, {0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0}},
		phraseLen: [2]int{3, 6}, restSteps: [2]int{8, 16}, maxLeap: 9, doubleStop: 0.1, bend: 0.2, replay: 0.3, legato: 1,
	},
	model.LeadFunk: {
		cells:     [][]int{{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 0}, {0, 1, 0, 1, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0}},
		phraseLen: [2]int{4, 8}, restSteps: [2]int{4, 12}, maxLeap: 7, doubleStop: 0.25, replay: 0.4, legato: 0.5,
	},
	model.LeadMinimal: {
		cells:     [][]int{{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, {1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		phraseLen: [2]int{2, 4}, restSteps: [2]int{12, 24}, maxLeap: 5, replay: 0.4, legato: 1,
	},
	model.LeadBird: {
		cells:     [][]int{{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}, {0, 0, 1, 0, 1, 0, 1, 0, 1, 1, 1, 0, 1, 0, 0, 0}},
		phraseLen: [2]int{8, 16}, restSteps: [2]int{2, 8}, maxLeap: 4, replay: 0.15, legato: 0.9,
	},
	model.LeadDisco: {
		cells:     [][]int{{1, 0, 1, 0, 0, 0, 1, 0, 1, 0, 1, 0, 0, 0, 1, 0}},
		phraseLen: [2]int{4, 8}, restSteps: [2]int{4, 12}, maxLeap: 7, doubleStop: 0.15, replay: 0.5, legato: 0.7,
	},
	model.LeadBossa: {
		cells:     [][]int{{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 0}, {1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0}},
		phraseLen: [2]int{4, 8}, restSteps: [2]int{6, 14}, maxLeap: 5, replay: 0.3, legato: 1,
	},
}

func resolveLeadStyle(style model.LeadStyle, genre model.Genre) model.LeadStyle {
	if style != model.LeadSmart {
		return style
	}
	switch genre {
	case model.Jazz:
		return model.LeadBird
	case model.Blues:
		return model.LeadBlues
	case model.Funk:
		return model.LeadFunk
	case model.Disco:
		return model.LeadDisco
	case model.Bossa:
		return model.LeadBossa
	case model.NeoSoul:
		return model.LeadNeo
	case model.Reggae, model.Acoustic:
		return model.LeadMinimal
	}
	return model.LeadScalar
}

type motifNote struct {
	interval int // semitones above the chord root
	duration float64
}

type LeadState struct {
	Cell          []int
	Resting       bool
	RestLeft      int
	PhraseLeft    int
	NotesInPhrase int
	BusyLeft      int
	Motif         []motifNote
	Replaying     bool
	ReplayIndex   int
	LastPitch     int
}

type Lead struct {
	Style model.LeadStyle
	State LeadState
	rng   util.Rand
}

func NewLead(style model.LeadStyle, rng util.Rand) *Lead {
	l := &Lead{Style: style, rng: rng}
	l.Reset()
	return l
}

func (l *Lead) Instrument() model.Instrument { return model.Lead }

func (l *Lead) Reset() {
	l.State = LeadState{Resting: true, RestLeft: 0}
}

// ScaleFor returns the scale intervals the lead draws from over ch.
func ScaleFor(ch *model.Chord, blues bool) []int {
	has := func(iv int) bool {
		for _, v := range ch.Intervals {
			if v%12 == iv {
				return true
			}
		}
		return false
	}
	switch {
	case blues && ch.IsMinor():
		return []int{0, 3, 5, 6, 7, 10}
	case blues:
		return []int{0, 3, 4, 7, 9, 10}
	case has(3) && has(6) && has(9):
		return []int{0, 2, 3, 5, 6, 8, 9, 11}
	case has(3) && has(6):
		return []int{0, 1, 3, 5, 6, 8, 10}
	case has(4) && has(8):
		return []int{0, 2, 4, 6, 8, 10}
	case has(4) && has(10):
		return []int{0, 2, 4, 5, 7, 9, 10}
	case has(3):
		return []int{0, 2, 3, 5, 7, 9, 10}
	case has(5) && !has(4):
		return []int{0, 2, 5, 7, 9, 10}
	}
	return []int{0, 2, 4, 5, 7, 9, 11}
}

func (l *Lead) Generate(f *Frame) []model.NoteEvent {
	ch := f.Chord()
	band := f.Band
	st := &l.State
	if ch == nil {
		l.publish(band, false)
		return nil
	}
	cfg := leadConfigs[resolveLeadStyle(l.Style, band.Genre)]
	spm := f.StepsPerMeasure()
	mStep := f.Beat.StepInMeasure

	if st.Cell == nil || mStep == 0 {
		raw := cfg.cells[0]
		if len(cfg.cells) > 1 && util.Chance(l.rng, 0.3+0.5*band.Complexity) {
			raw = util.Pick(l.rng, cfg.cells[1:])
		}
		st.Cell = stretch(raw, spm)
	}
	if st.BusyLeft > 0 {
		st.BusyLeft--
	}

	if st.Resting {
		if st.RestLeft > 0 {
			st.RestLeft--
			l.publish(band, false)
			return nil
		}
		l.startPhrase(cfg)
	}

	if mStep >= len(st.Cell) || st.Cell[mStep] == 0 {
		l.publish(band, false)
		return nil
	}

	duration := l.gap(mStep) * cfg.legato
	if duration < 0.5 {
		duration = 0.5
	}

	var pitch int
	if st.Replaying && st.ReplayIndex < len(st.Motif) {
		m := st.Motif[st.ReplayIndex]
		st.ReplayIndex++
		pitch = nearestPitch(ch.Root+m.interval, l.ref(), LeadLow, LeadHigh)
		duration = m.duration
	} else {
		st.Replaying = false
		pitch = l.choose(f, ch, cfg)
		if len(st.Motif) < MotifCapacity {
			st.Motif = append(st.Motif, motifNote{interval: util.Mod(pitch-ch.Root, 12), duration: duration})
		} else {
			copy(st.Motif, st.Motif[1:])
			st.Motif[len(st.Motif)-1] = motifNote{interval: util.Mod(pitch-ch.Root, 12), duration: duration}
		}
	}

	velocity := 0.7
	if f.Beat.IsBeatStart {
		velocity = 0.82
	}
	velocity *= 0.7 + 0.3*band.Intensity
	primary := noteEvent(pitch, velocity*util.Between(l.rng, 0.95, 1.05), duration, util.Jitter(l.rng, 0.04))
	if st.NotesInPhrase == 0 && util.Chance(l.rng, cfg.bend) {
		primary.Bend = 1 + l.rng.Intn(2)
	}

	res := []model.NoteEvent{primary}
	if util.Chance(l.rng, cfg.doubleStop) {
		if second := l.doubleStop(ch, pitch, cfg); second > 0 {
			ds := noteEvent(second, primary.Velocity*0.8, duration, primary.Offset)
			ds.DoubleStop = true
			res = append(res, ds)
		}
	}

	st.LastPitch = pitch
	st.NotesInPhrase++
	st.BusyLeft = int(duration + 0.5)
	st.PhraseLeft--
	if st.PhraseLeft <= 0 {
		st.Resting = true
		st.Replaying = false
		st.RestLeft = cfg.restSteps[0] + l.rng.Intn(cfg.restSteps[1]-cfg.restSteps[0]+1)
	}
	l.publish(band, true)
	return res
}

func (l *Lead) startPhrase(cfg leadConfig) {
	st := &l.State
	st.Resting = false
	st.NotesInPhrase = 0
	st.PhraseLeft = cfg.phraseLen[0] + l.rng.Intn(cfg.phraseLen[1]-cfg.phraseLen[0]+1)
	st.Replaying = len(st.Motif) >= 4 && util.Chance(l.rng, cfg.replay)
	st.ReplayIndex = 0
	if st.Replaying && len(st.Motif) > 0 {
		st.ReplayIndex = l.rng.Intn(len(st.Motif) / 2)
	}
}

func (l *Lead) publish(b *Band, onset bool) {
	st := &l.State
	b.SoloistEnabled = true
	b.SoloistResting = st.Resting
	b.SoloistBusy = !st.Resting && (onset || st.BusyLeft > 0)
	b.SoloistReplaying = st.Replaying
	b.NotesInPhrase = st.NotesInPhrase
}

func (l *Lead) ref() int {
	if l.State.LastPitch > 0 {
		return l.State.LastPitch
	}
	return 72
}

// gap is the number of steps until the next onset in the current cell.
func (l *Lead) gap(mStep int) float64 {
	cell := l.State.Cell
	for i := mStep + 1; i < len(cell); i++ {
		if cell[i] > 0 {
			return float64(i - mStep)
		}
	}
	return float64(len(cell) - mStep)
}

// choose picks a pitch by weighting scale tones near the last pitch.
func (l *Lead) choose(f *Frame, ch *model.Chord, cfg leadConfig) int {
	ref := l.ref()
	scale := ScaleFor(ch, cfg.blues)
	inScale := make(map[int]bool, len(scale))
	for _, iv := range scale {
		inScale[iv] = true
	}
	chordTone := make(map[int]bool, len(ch.Intervals))
	for _, iv := range ch.Intervals {
		chordTone[iv%12] = true
	}

	lo := util.Max(LeadLow, ref-cfg.maxLeap)
	hi := util.Min(LeadHigh, ref+cfg.maxLeap)
	var candidates []int
	var weights []float64
	for p := lo; p <= hi; p++ {
		iv := util.Mod(p-ch.Root, 12)
		if !inScale[iv] {
			continue
		}
		w := 1.0
		if chordTone[iv] {
			w = 3
			if f.Beat.IsBeatStart {
				w = 4
			}
		}
		if guideIntervals[iv] {
			w *= 1.5
		}
		d := util.Abs(p - ref)
		switch {
		case d == 0:
			w *= 0.3
		case d <= 2:
			w *= 2
		}
		// lean back toward the middle of the register
		if (p > 80 && p > ref) || (p < 66 && p < ref) {
			w *= 0.5
		}
		candidates = append(candidates, p)
		weights = append(weights, w)
	}
	i := util.PickWeighted(l.rng, weights)
	if i < 0 {
		return nearestPitch(ch.Root, ref, LeadLow, LeadHigh)
	}
	return candidates[i]
}

// doubleStop finds a scale tone a third or sixth under pitch.
func (l *Lead) doubleStop(ch *model.Chord, pitch int, cfg leadConfig) int {
	scale := ScaleFor(ch, cfg.blues)
	for _, down := range []int{3, 4, 8, 9} {
		p := pitch - down
		iv := util.Mod(p-ch.Root, 12)
		for _, s := range scale {
			if s == iv && p >= LeadLow-5 {
				return p
			}
		}
	}
	return 0
}
