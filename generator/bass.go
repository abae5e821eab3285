package generator

import (
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

const (
	BassCenter      = 41
	BassRange       = 15
	BassFloor       = 26
	RootAccent      = 1.15
	bassGhostChance = 0.3
)

type BassState struct {
	LastPitch int
}

type Bass struct {
	Style model.BassStyle
	State BassState
	rng   util.Rand
}

func NewBass(style model.BassStyle, rng util.Rand) *Bass {
	return &Bass{Style: style, rng: rng}
}

func (b *Bass) Instrument() model.Instrument { return model.Bass }

func (b *Bass) Reset() { b.State = BassState{} }

// resolveStyle maps the smart style onto the genre's idiomatic bass line.
func resolveBassStyle(style model.BassStyle, genre model.Genre) model.BassStyle {
	if style != model.BassSmart {
		return style
	}
	switch genre {
	case model.Rock:
		return model.BassRock
	case model.Jazz, model.Blues:
		return model.BassQuarter
	case model.Funk:
		return model.BassFunk
	case model.Disco:
		return model.BassDisco
	case model.Reggae:
		return model.BassDub
	case model.Acoustic:
		return model.BassHalf
	case model.Bossa:
		return model.BassBossa
	case model.NeoSoul:
		return model.BassNeo
	}
	return model.BassHalf
}

func bassRange(style model.BassStyle) (lo, hi, center int) {
	center = BassCenter
	switch style {
	case model.BassDub:
		center = 32
	case model.BassDisco:
		center = 45
	}
	lo = util.Max(BassFloor, center-BassRange)
	hi = center + BassRange
	if style == model.BassRock || style == model.BassFunk {
		lo, hi = 28, 52
	}
	return lo, hi, center
}

type bassHit struct {
	tone     int // 0 root, 1 third, 2 fifth, 3 octave, 4 approach
	duration float64
	velocity float64
	offset   float64
}

func (b *Bass) Generate(f *Frame) []model.NoteEvent {
	ch := f.Chord()
	if ch == nil {
		return nil
	}
	style := resolveBassStyle(b.Style, f.Band.Genre)
	hit, ok := b.pattern(f, style)
	if !ok {
		return nil
	}

	lo, hi, center := bassRange(style)
	ref := b.State.LastPitch
	if ref == 0 || util.Abs(ref-center) > 9 {
		ref = center
	}
	root := ch.Root
	if f.IsChordStart() {
		root = ch.Bass
	}

	var pitch int
	switch hit.tone {
	case 0:
		pitch = nearestPitch(root, ref, lo, hi)
	case 1:
		third := 4
		if ch.IsMinor() {
			third = 3
		}
		pitch = nearestPitch(ch.Root+third, ref, lo, hi)
	case 2:
		pitch = nearestPitch(ch.Root+fifthOf(ch), ref, lo, hi)
	case 3:
		pitch = nearestPitch(ch.Root, ref, lo, hi) + 12
		if pitch > hi+12 {
			pitch -= 12
		}
	case 4:
		pitch = b.approach(f, ref, lo, hi)
	}

	velocity := hit.velocity * (0.75 + 0.35*f.Band.Intensity)
	if f.IsChordStart() && hit.tone == 0 {
		velocity *= RootAccent
	}
	b.State.LastPitch = pitch
	if hit.tone == 3 {
		b.State.LastPitch = pitch - 12
	}
	return []model.NoteEvent{noteEvent(pitch, velocity, hit.duration, hit.offset)}
}

func fifthOf(ch *model.Chord) int {
	for _, iv := range ch.Intervals {
		switch iv {
		case 6, 7, 8:
			return iv
		}
	}
	return 7
}

// approach walks into the next chord's root from a semitone away.
func (b *Bass) approach(f *Frame, ref, lo, hi int) int {
	next := f.Next
	if next == nil {
		next = f.Chord()
	}
	target := nearestPitch(next.Bass, ref, lo, hi)
	if util.Chance(b.rng, 0.5) && target+1 <= hi {
		return target + 1
	}
	if target-1 >= lo {
		return target - 1
	}
	return target + 1
}

// pattern decides whether the bass plays on this step and which chord tone.
func (b *Bass) pattern(f *Frame, style model.BassStyle) (bassHit, bool) {
	spb := f.StepsPerBeat()
	spm := f.StepsPerMeasure()
	mStep := f.Beat.StepInMeasure
	left := f.ChordStepsLeft()
	chordStart := f.IsChordStart()
	fspb := float64(spb)

	switch style {
	case model.BassWhole:
		if chordStart || mStep == 0 {
			return bassHit{tone: 0, duration: float64(util.Min(left, spm)), velocity: 0.8}, true
		}
	case model.BassHalf:
		half := util.Max(1, spm/2)
		if chordStart {
			return bassHit{tone: 0, duration: float64(util.Min(left, half)), velocity: 0.8}, true
		}
		if mStep%half == 0 {
			return bassHit{tone: 2, duration: float64(util.Min(left, half)), velocity: 0.7}, true
		}
	case model.BassArp:
		if f.Beat.IsBeatStart {
			tones := []int{0, 1, 2, 1}
			return bassHit{tone: tones[f.Beat.BeatIndex%len(tones)], duration: fspb, velocity: 0.75}, true
		}
	case model.BassQuarter:
		if !f.Beat.IsBeatStart {
			return bassHit{}, false
		}
		if chordStart {
			return bassHit{tone: 0, duration: fspb * 0.9, velocity: 0.8}, true
		}
		if left <= spb && f.Next != nil && f.Next.Index != f.Chord().Index {
			return bassHit{tone: 4, duration: fspb * 0.9, velocity: 0.7}, true
		}
		return bassHit{tone: util.Pick(b.rng, []int{1, 2, 2, 3}), duration: fspb * 0.9, velocity: 0.7}, true
	case model.BassRock:
		if mStep%2 == 0 {
			v := 0.65
			if f.Beat.IsBeatStart {
				v = 0.8
			}
			return bassHit{tone: 0, duration: 1.5, velocity: v}, true
		}
	case model.BassFunk:
		switch mStep % 16 {
		case 0:
			return bassHit{tone: 0, duration: 2, velocity: 0.9}, true
		case 3, 9:
			if util.Chance(b.rng, 0.7) {
				return bassHit{tone: 0, duration: 0.5, velocity: 0.5}, true
			}
		case 6, 14:
			return bassHit{tone: 3, duration: 0.75, velocity: 0.85}, true
		case 10:
			if util.Chance(b.rng, bassGhostChance+0.4*f.Band.Intensity) {
				return bassHit{tone: 2, duration: 1, velocity: 0.6}, true
			}
		}
	case model.BassBossa:
		switch mStep % 16 {
		case 0:
			return bassHit{tone: 0, duration: 5, velocity: 0.8}, true
		case 6:
			return bassHit{tone: 2, duration: 2, velocity: 0.65}, true
		case 8:
			return bassHit{tone: 2, duration: 5, velocity: 0.75}, true
		case 14:
			return bassHit{tone: 0, duration: 2, velocity: 0.65}, true
		}
	case model.BassNeo:
		if chordStart || mStep == 0 {
			return bassHit{tone: 0, duration: float64(util.Min(left, spm)) * 0.8, velocity: 0.8, offset: 0.12}, true
		}
		if mStep == spm-2 && left <= 2 {
			return bassHit{tone: 4, duration: 1.5, velocity: 0.6, offset: 0.12}, true
		}
	case model.BassDisco:
		if mStep%2 == 0 {
			tone := 0
			if (mStep/2)%2 == 1 {
				tone = 3
			}
			return bassHit{tone: tone, duration: 1, velocity: 0.8}, true
		}
	case model.BassDub:
		switch mStep % 16 {
		case 0:
			return bassHit{tone: 0, duration: 6, velocity: 0.9}, true
		case 10:
			return bassHit{tone: 2, duration: 4, velocity: 0.75}, true
		}
	case model.BassSmart:
		return b.pattern(f, resolveBassStyle(style, f.Band.Genre))
	}
	return bassHit{}, false
}
