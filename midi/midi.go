package midi

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &smf.SMF{}, errors.Wrapf(err, "could not read midi file %s", filepath)
	}
	res, err := Decode(dat)
	if err != nil {
		return res, errors.Wrapf(err, "could not parse %s", filepath)
	}
	return res, nil
}

// Decode parses a Standard MIDI File. smf can panic on malformed input
// (https://github.com/gomidi/midi/issues/20), so that is reported as an error.
func Decode(dat []byte) (s *smf.SMF, e error) {
	defer func() {
		if r := recover(); r != nil {
			s = &smf.SMF{}
			e = errors.Errorf("panic parsing midi data: %v", r)
		}
	}()

	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return &smf.SMF{}, errors.Wrap(err, "invalid midi data")
	}
	return res, nil
}

// Encode writes s as a Standard MIDI File.
func Encode(s *smf.SMF) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "could not encode midi file")
	}
	return buf.Bytes(), nil
}

// Describe is a one line summary used by the cli: track count, time format,
// the first tempo found and the length of the longest track in ticks.
func Describe(s *smf.SMF) string {
	var bpm float64
	var longest int64
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			if bpm == 0 {
				ev.Message.GetMetaTempo(&bpm)
			}
		}
		if abs > longest {
			longest = abs
		}
	}
	return fmt.Sprintf("%d tracks, %v, %.1f bpm, %d ticks", len(s.Tracks), s.TimeFormat, bpm, longest)
}
