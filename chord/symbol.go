package chord

import (
	"strconv"
	"strings"

	"github.com/jsphweid/backingband/model"
	"github.com/pkg/errors"
)

var ErrUnknownSymbol = errors.New("unknown chord symbol")

var letterClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var qualities = map[string][]int{
	"":      {0, 4, 7},
	"maj":   {0, 4, 7},
	"M":     {0, 4, 7},
	"m":     {0, 3, 7},
	"min":   {0, 3, 7},
	"-":     {0, 3, 7},
	"dim":   {0, 3, 6},
	"o":     {0, 3, 6},
	"aug":   {0, 4, 8},
	"+":     {0, 4, 8},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"sus":   {0, 5, 7},
	"5":     {0, 7},
	"6":     {0, 4, 7, 9},
	"m6":    {0, 3, 7, 9},
	"7":     {0, 4, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"M7":    {0, 4, 7, 11},
	"m7":    {0, 3, 7, 10},
	"-7":    {0, 3, 7, 10},
	"m7b5":  {0, 3, 6, 10},
	"dim7":  {0, 3, 6, 9},
	"o7":    {0, 3, 6, 9},
	"mmaj7": {0, 3, 7, 11},
	"7sus4": {0, 5, 7, 10},
	"7b5":   {0, 4, 6, 10},
	"add9":  {0, 4, 7, 14},
	"madd9": {0, 3, 7, 14},
	"9":     {0, 4, 7, 10, 14},
	"maj9":  {0, 4, 7, 11, 14},
	"m9":    {0, 3, 7, 10, 14},
	"7b9":   {0, 4, 7, 10, 13},
	"7#9":   {0, 4, 7, 10, 15},
	"7#11":  {0, 4, 7, 10, 18},
	"7alt":  {0, 4, 8, 10, 13},
	"11":    {0, 4, 7, 10, 14, 17},
	"m11":   {0, 3, 7, 10, 14, 17},
	"13":    {0, 4, 7, 10, 14, 21},
	"maj13": {0, 4, 7, 11, 14, 21},
}

// parsePitchClass reads a note name such as "Bb" or "F#" from the start of s
// and returns its pitch class and the remaining text.
func parsePitchClass(s string) (int, string, bool) {
	if s == "" {
		return 0, s, false
	}
	pc, ok := letterClasses[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, s, false
	}
	rest := s[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return (pc + 12) % 12, rest, true
		}
		rest = rest[1:]
	}
	return (pc + 12) % 12, rest, true
}

// Parse turns a symbol such as "Dm7", "Bb7#9" or "C/E" into a chord with
// root, quality and intervals. Voicing is left empty.
func Parse(symbol string) (model.Chord, error) {
	var c model.Chord
	sym := strings.TrimSpace(symbol)
	c.Symbol = sym

	body := sym
	slash := ""
	if i := strings.LastIndex(sym, "/"); i > 0 {
		body, slash = sym[:i], sym[i+1:]
	}

	root, suffix, ok := parsePitchClass(body)
	if !ok {
		return c, errors.Wrapf(ErrUnknownSymbol, "%q", symbol)
	}
	intervals, ok := qualities[suffix]
	if !ok {
		return c, errors.Wrapf(ErrUnknownSymbol, "%q", symbol)
	}
	c.Root = root
	c.Bass = root
	c.Quality = model.Quality(suffix)
	if suffix == "" {
		c.Quality = "maj"
	}
	c.Intervals = append([]int(nil), intervals...)

	if slash != "" {
		bass, rest, ok := parsePitchClass(slash)
		if !ok || rest != "" {
			return c, errors.Wrapf(ErrUnknownSymbol, "%q", symbol)
		}
		c.Bass = bass
	}
	return c, nil
}

// ParseKey reads a key such as "Eb" or "F#m" and returns the tonic pitch
// class and whether it is minor.
func ParseKey(key string) (int, bool, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return 0, false, nil
	}
	pc, rest, ok := parsePitchClass(k)
	if !ok {
		return 0, false, errors.Errorf("unknown key %q", key)
	}
	switch strings.ToLower(rest) {
	case "":
		return pc, false, nil
	case "m", "min", "minor":
		return pc, true, nil
	case "maj", "major":
		return pc, false, nil
	}
	return 0, false, errors.Errorf("unknown key %q", key)
}

// ParseBeats splits "G7:2" into its symbol and explicit beat count.
func ParseBeats(token string) (string, float64, error) {
	i := strings.LastIndex(token, ":")
	if i < 0 {
		return token, 0, nil
	}
	beats, err := strconv.ParseFloat(token[i+1:], 64)
	if err != nil || beats <= 0 {
		return token, 0, errors.Errorf("invalid beat count in %q", token)
	}
	return token[:i], beats, nil
}
