package generator

import (
	"hash/fnv"

	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

const (
	HarmonyMinIntensity   = 0.22
	HarmonyLatchIntensity = 0.6
	HarmonyHigh           = 100
	harmonyCut            = 55
)

type harmonyConfig struct {
	stabs    bool
	auto     bool
	velocity float64
	jitter   float64 // steps
	octave   int
	minPoly  int
}

var harmonyConfigs = map[model.HarmonyStyle]harmonyConfig{
	model.HarmonyHorns:   {stabs: true, velocity: 0.85, jitter: 0.04},
	model.HarmonyStrings: {velocity: 0.6, jitter: 0.16, minPoly: 2},
	model.HarmonyOrgan:   {stabs: true, velocity: 0.85, jitter: 0.12, minPoly: 2},
	model.HarmonyPlucks:  {stabs: true, velocity: 0.7, jitter: 0.02, octave: 24},
	model.HarmonyCounter: {velocity: 0.75, jitter: 0.24, octave: -12},
	model.HarmonySmart:   {auto: true, velocity: 0.75, jitter: 0.06},
}

// genrePatterns are the fixed stab bitmaps. Genres without an entry build
// a pattern from the section seed.
var genrePatterns = map[model.Genre][][]int{
	model.Bossa:    {{1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0}, {0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0}},
	model.Disco:    {{0, 0, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1}, {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}},
	model.Rock:     {{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, {1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0}},
	model.Reggae:   {{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, {0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0, 0}},
	model.Acoustic: {{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, {1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
}

// seeded is the small LCG the section patterns are drawn from, so a
// section sounds the same every time it comes around.
type seeded struct{ seed uint32 }

func (s *seeded) next() float64 {
	s.seed = (s.seed*9301 + 49297) % 233280
	return float64(s.seed) / 233280
}

// HarmonyPattern builds the 16 slot stab pattern for a section. Values are
// intensity gates: 1 always, 2 above 0.4, 3 above 0.7.
func HarmonyPattern(genre model.Genre, seed uint32) []int {
	r := &seeded{seed: seed % 233280}
	if templates, ok := genrePatterns[genre]; ok {
		t := templates[int(r.next()*float64(len(templates)))]
		return append([]int(nil), t...)
	}
	pattern := make([]int, 16)
	switch genre {
	case model.Jazz:
		if r.next() < 0.6 {
			pattern[0] = 1
			if r.next() < 0.7 {
				pattern[6] = 1
			}
			if r.next() < 0.5 {
				pattern[14] = 3
			}
		} else {
			pattern[4] = 1
			if r.next() < 0.7 {
				pattern[10] = 1
			}
		}
		for _, g := range []int{3, 9, 13} {
			if r.next() < 0.3 {
				pattern[g] = 2
			}
		}
	case model.Funk:
		pattern[0] = 1
		for _, s := range []int{3, 6, 9, 12, 14} {
			x := r.next()
			switch {
			case x < 0.4:
				pattern[s] = 1
			case x < 0.7:
				pattern[s] = 2
			default:
				pattern[s] = 3
			}
		}
	case model.NeoSoul:
		if r.next() < 0.6 {
			pattern[0] = 1
		}
		if r.next() < 0.5 {
			pattern[7] = 1
		}
		pattern[15] = 3
	default:
		pattern[0] = 1
		pattern[6] = 2
		pattern[12] = 3
	}
	return pattern
}

func sectionSeed(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

func resolveHarmonyStyle(style model.HarmonyStyle, genre model.Genre) model.HarmonyStyle {
	if style == model.HarmonySmart {
		switch genre {
		case model.Blues:
			style = model.HarmonyOrgan
		case model.Disco:
			style = model.HarmonyPlucks
		case model.Funk:
			style = model.HarmonyHorns
		default:
			style = model.HarmonyStrings
		}
	}
	if (genre == model.Jazz || genre == model.Funk) && style == model.HarmonyStrings {
		style = model.HarmonyOrgan
	}
	return style
}

type HarmonyState struct {
	Motifs     map[string][]int
	LastPlayed int
	LastMidis  []int
}

type Harmony struct {
	Style model.HarmonyStyle
	State HarmonyState
	rng   util.Rand
}

func NewHarmony(style model.HarmonyStyle, rng util.Rand) *Harmony {
	h := &Harmony{Style: style, rng: rng}
	h.Reset()
	return h
}

func (h *Harmony) Instrument() model.Instrument { return model.Harmony }

func (h *Harmony) Reset() {
	h.State = HarmonyState{Motifs: make(map[string][]int), LastPlayed: -1}
}

func (h *Harmony) motif(id string, genre model.Genre) []int {
	if id == "" {
		id = "default"
	}
	if m, ok := h.State.Motifs[id]; ok {
		return m
	}
	m := HarmonyPattern(genre, sectionSeed(id))
	h.State.Motifs[id] = m
	return m
}

func (h *Harmony) Generate(f *Frame) []model.NoteEvent {
	ch := f.Chord()
	band := f.Band
	if ch == nil || band.Intensity < HarmonyMinIntensity {
		return nil
	}
	st := &h.State
	if st.LastPlayed >= 0 && f.Step == st.LastPlayed+1 && band.LeadNote != nil {
		return nil
	}

	genre := band.Genre
	style := resolveHarmonyStyle(h.Style, genre)
	cfg := harmonyConfigs[style]
	stabs := cfg.stabs
	if h.Style == model.HarmonySmart {
		stabs = !(genre == model.Rock || genre == model.Acoustic || genre == model.NeoSoul)
	}
	if genre == model.Jazz || genre == model.Funk {
		stabs = true
	}

	intervals := append([]int(nil), ch.Intervals...)
	if len(intervals) == 0 {
		intervals = []int{0, 4, 7}
	}
	busy := band.SoloistEnabled && !band.SoloistResting
	if busy {
		stabs = false
		intervals = safeIntervalsOf(intervals)
		if band.NotesInPhrase > 3 || band.Complexity < 0.4 {
			if guides := guideIntervalsOf(intervals); len(guides) > 0 {
				intervals = append([]int{0}, guides...)
			} else {
				intervals = []int{0, 7}
			}
		}
	} else if band.Complexity < 0.4 || band.Intensity < 0.4 {
		if guides := guideIntervalsOf(intervals); len(guides) > 0 {
			intervals = guides
		}
	}

	motif := h.motif(f.Pos.SectionID(), genre)
	spm := f.StepsPerMeasure()
	mStep := f.Beat.StepInMeasure

	play := false
	latched := false
	duration := 1.0
	if band.SoloistEnabled && band.SoloistReplaying && band.LeadNote != nil && band.Intensity > HarmonyLatchIntensity {
		play, latched = true, true
	}
	if !latched {
		if !stabs {
			if f.IsChordStart() || mStep == 0 {
				play = true
				duration = float64(util.Min(spm-mStep, f.ChordStepsLeft()))
			}
		} else {
			if v := motif[mStep%len(motif)]; v > 0 && band.Intensity >= stabGate(v) {
				play = true
				duration = 2
			}
			if !play && band.SoloistEnabled && band.SoloistResting && band.NotesInPhrase > 0 &&
				util.Chance(h.rng, 0.3*band.Complexity) {
				play = true
				duration = 2
			}
		}
	}
	if !play {
		return nil
	}

	poly := 1 + int(3*band.Intensity*band.Complexity)
	if latched {
		poly++
	}
	poly = util.Max(poly, cfg.minPoly)
	intervals = reduceToGuides(intervals, util.Clamp(poly, 1, len(intervals)))

	lo := 53
	if style == model.HarmonyOrgan {
		lo = 57
	}
	midis := voiceInRange(ch.Root, intervals, st.LastMidis, lo, chord.VoicingHigh)
	if len(midis) == 0 {
		return nil
	}

	velocity := cfg.velocity * (0.6 + 0.4*band.Intensity)
	if latched {
		velocity *= 1.2
	}
	res := make([]model.NoteEvent, 0, len(midis))
	var played []int
	for i, p := range midis {
		p += cfg.octave
		if p < harmonyCut && style != model.HarmonyCounter && style != model.HarmonyPlucks {
			continue
		}
		if p > HarmonyHigh {
			p -= 12
		}
		if p > HarmonyHigh {
			continue
		}
		stagger := (float64(i) - float64(len(midis)-1)/2) * 0.04
		ev := noteEvent(p, velocity, duration, stagger+h.rng.Float64()*cfg.jitter)
		if genre == model.NeoSoul && util.Chance(h.rng, 0.3) {
			ev.Bend = 1 + h.rng.Intn(2)
		}
		res = append(res, ev)
		played = append(played, p)
	}
	if latched {
		if p := doubleBelow(band.LeadNote.Midi); !containsPitch(played, p) {
			res = append(res, noteEvent(p, velocity, duration, 0))
			played = append(played, p)
		}
	}
	if len(res) > 0 {
		st.LastPlayed = f.Step
		st.LastMidis = played
	}
	return res
}

// doubleBelow places the lead pitch an octave down, folded into the
// harmony register.
func doubleBelow(lead int) int {
	p := lead - 12
	for p < harmonyCut {
		p += 12
	}
	for p > HarmonyHigh {
		p -= 12
	}
	return p
}

func containsPitch(pitches []int, p int) bool {
	for _, v := range pitches {
		if v == p {
			return true
		}
	}
	return false
}

func stabGate(v int) float64 {
	switch v {
	case 1:
		return 0
	case 2:
		return 0.4
	}
	return 0.7
}

// reduceToGuides keeps up to n intervals, guide tones first.
func reduceToGuides(intervals []int, n int) []int {
	if len(intervals) <= n {
		return intervals
	}
	guides := guideIntervalsOf(intervals)
	if len(guides) >= n {
		return guides[:n]
	}
	res := append([]int(nil), guides...)
	for _, iv := range intervals {
		if len(res) == n {
			break
		}
		if !guideIntervals[util.Mod(iv, 12)] {
			res = append(res, iv)
		}
	}
	return res
}

// voiceInRange voice-leads from prev and then shifts the voicing by
// octaves until its lowest note is at or above lo.
func voiceInRange(root int, intervals, prev []int, lo, hi int) []int {
	v := chord.Voice(root, intervals, prev)
	if len(v) == 0 {
		return nil
	}
	for v[0] < lo {
		for i := range v {
			v[i] += 12
		}
	}
	for v[len(v)-1] > hi+12 && v[0]-12 >= lo {
		for i := range v {
			v[i] -= 12
		}
	}
	return v
}
