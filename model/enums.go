package model

import (
	"strings"

	"github.com/pkg/errors"
)

type Instrument int

const (
	Bass Instrument = iota
	Lead
	Comping
	Harmony
	Drums
)

// AllInstruments is the fixed generation order within a step.
var AllInstruments = []Instrument{Bass, Lead, Comping, Harmony, Drums}

var instrumentNames = []string{"bass", "lead", "comping", "harmony", "drums"}

func (i Instrument) String() string { return nameOf(instrumentNames, int(i)) }

func ParseInstrument(s string) (Instrument, error) {
	v, err := parseName("instrument", instrumentNames, s)
	return Instrument(v), err
}

func (i Instrument) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Instrument) UnmarshalText(b []byte) error {
	v, err := ParseInstrument(string(b))
	*i = v
	return err
}

type Genre int

const (
	Rock Genre = iota
	Jazz
	Funk
	Blues
	Disco
	Reggae
	Acoustic
	Bossa
	NeoSoul
)

var genreNames = []string{"rock", "jazz", "funk", "blues", "disco", "reggae", "acoustic", "bossa", "neo-soul"}

func (g Genre) String() string { return nameOf(genreNames, int(g)) }

func ParseGenre(s string) (Genre, error) {
	v, err := parseName("genre", genreNames, s)
	return Genre(v), err
}

func (g Genre) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Genre) UnmarshalText(b []byte) error {
	v, err := ParseGenre(string(b))
	*g = v
	return err
}

// Staccato genres release sustain instead of holding it and play without ambience.
func (g Genre) Staccato() bool {
	return g == Reggae || g == Funk || g == Disco
}

type BassStyle int

const (
	BassSmart BassStyle = iota
	BassWhole
	BassHalf
	BassArp
	BassQuarter
	BassRock
	BassFunk
	BassBossa
	BassNeo
	BassDisco
	BassDub
)

var bassStyleNames = []string{"smart", "whole", "half", "arp", "quarter", "rock", "funk", "bossa", "neo", "disco", "dub"}

func (s BassStyle) String() string { return nameOf(bassStyleNames, int(s)) }

func ParseBassStyle(s string) (BassStyle, error) {
	v, err := parseName("bass style", bassStyleNames, s)
	return BassStyle(v), err
}

func (s BassStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BassStyle) UnmarshalText(b []byte) error {
	v, err := ParseBassStyle(string(b))
	*s = v
	return err
}

type CompingStyle int

const (
	CompSmart CompingStyle = iota
	CompPad
	CompStab
	CompStrum
)

var compingStyleNames = []string{"smart", "pad", "stab", "strum"}

func (s CompingStyle) String() string { return nameOf(compingStyleNames, int(s)) }

func ParseCompingStyle(s string) (CompingStyle, error) {
	v, err := parseName("comping style", compingStyleNames, s)
	return CompingStyle(v), err
}

func (s CompingStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CompingStyle) UnmarshalText(b []byte) error {
	v, err := ParseCompingStyle(string(b))
	*s = v
	return err
}

type LeadStyle int

const (
	LeadSmart LeadStyle = iota
	LeadScalar
	LeadShred
	LeadBlues
	LeadNeo
	LeadFunk
	LeadMinimal
	LeadBird
	LeadDisco
	LeadBossa
)

var leadStyleNames = []string{"smart", "scalar", "shred", "blues", "neo", "funk", "minimal", "bird", "disco", "bossa"}

func (s LeadStyle) String() string { return nameOf(leadStyleNames, int(s)) }

func ParseLeadStyle(s string) (LeadStyle, error) {
	v, err := parseName("lead style", leadStyleNames, s)
	return LeadStyle(v), err
}

func (s LeadStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LeadStyle) UnmarshalText(b []byte) error {
	v, err := ParseLeadStyle(string(b))
	*s = v
	return err
}

type HarmonyStyle int

const (
	HarmonySmart HarmonyStyle = iota
	HarmonyHorns
	HarmonyStrings
	HarmonyOrgan
	HarmonyPlucks
	HarmonyCounter
)

var harmonyStyleNames = []string{"smart", "horns", "strings", "organ", "plucks", "counter"}

func (s HarmonyStyle) String() string { return nameOf(harmonyStyleNames, int(s)) }

func ParseHarmonyStyle(s string) (HarmonyStyle, error) {
	v, err := parseName("harmony style", harmonyStyleNames, s)
	return HarmonyStyle(v), err
}

func (s HarmonyStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *HarmonyStyle) UnmarshalText(b []byte) error {
	v, err := ParseHarmonyStyle(string(b))
	*s = v
	return err
}

// Role is the functional role of a section within the form.
type Role int

const (
	RoleNone Role = iota
	Exposition
	Development
	Contrast
	Build
	Climax
	Recapitulation
	Resolution
)

var roleNames = []string{"", "exposition", "development", "contrast", "build", "climax", "recapitulation", "resolution"}

func (r Role) String() string { return nameOf(roleNames, int(r)) }

func ParseRole(s string) (Role, error) {
	if strings.TrimSpace(s) == "" {
		return RoleNone, nil
	}
	v, err := parseName("role", roleNames, s)
	return Role(v), err
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	*r = v
	return err
}

func nameOf(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func parseName(kind string, names []string, s string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	for i, name := range names {
		if name == key || strings.ReplaceAll(name, "-", "") == key {
			return i, nil
		}
	}
	return 0, errors.Errorf("unknown %s %q", kind, s)
}
