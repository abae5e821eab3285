package arrangement

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/model"
	"github.com/pkg/errors"
)

var ErrEmpty = errors.New("arrangement has no steps")

// Build parses every section's progression and lays the chords out on the
// step grid. An empty document yields an arrangement with zero steps.
func Build(doc model.Document) (*model.Arrangement, error) {
	meter, ok := model.LookupMeter(doc.Meter)
	if !ok {
		return nil, errors.Errorf("unsupported meter %q", doc.Meter)
	}
	key, minor, err := chord.ParseKey(doc.Key)
	if err != nil {
		return nil, err
	}

	arr := &model.Arrangement{
		Key:   key,
		Minor: minor || doc.Minor,
		Meter: meter,
	}

	var prevVoicing []int
	step := 0
	for _, sd := range doc.Sections {
		section := model.Section{
			ID:       sd.ID,
			Label:    sd.Label,
			Role:     sd.Role,
			Seamless: sd.Seamless,
			Key:      sd.Key,
		}
		if section.ID == "" {
			section.ID = uuid.New().String()
		}
		sectionIndex := len(arr.Sections)
		arr.Sections = append(arr.Sections, section)

		chords, err := parseProgression(sd.Progression, meter)
		if err != nil {
			return nil, errors.Wrapf(err, "section %q", sd.Label)
		}
		sectionStart := step
		for _, c := range chords {
			c.Index = len(arr.Progression)
			c.SectionID = section.ID
			c.SectionLabel = section.Label
			c.Key = section.Key
			c.Voicing = chord.Voice(c.Root, c.Intervals, prevVoicing)
			prevVoicing = c.Voicing

			steps := int(math.Round(c.Beats * float64(meter.StepsPerBeat)))
			if steps < 1 {
				steps = 1
			}
			arr.Progression = append(arr.Progression, c)
			arr.StepMap = append(arr.StepMap, model.StepEntry{Start: step, End: step + steps, Chord: c.Index})
			step += steps
		}
		if step > sectionStart {
			arr.SectionMap = append(arr.SectionMap, model.SectionSpan{
				Start:     sectionStart,
				End:       step,
				SectionID: section.ID,
				Section:   sectionIndex,
			})
		}
	}
	arr.TotalSteps = step
	return arr, nil
}

func parseProgression(progression string, meter model.Meter) ([]model.Chord, error) {
	var res []model.Chord
	for _, bar := range strings.Split(progression, "|") {
		tokens := strings.Fields(bar)
		if len(tokens) == 0 {
			continue
		}
		var barChords []model.Chord
		explicit := 0.0
		implicit := 0
		for _, token := range tokens {
			symbol, beats, err := chord.ParseBeats(token)
			if err != nil {
				return nil, err
			}
			c, err := chord.Parse(symbol)
			if err != nil {
				return nil, err
			}
			c.Beats = beats
			if beats > 0 {
				explicit += beats
			} else {
				implicit++
			}
			barChords = append(barChords, c)
		}
		if implicit > 0 {
			share := (float64(meter.Beats) - explicit) / float64(implicit)
			if share <= 0 {
				return nil, errors.Errorf("bar %q has no beats left", strings.TrimSpace(bar))
			}
			for i := range barChords {
				if barChords[i].Beats == 0 {
					barChords[i].Beats = share
				}
			}
		}
		res = append(res, barChords...)
	}
	return res, nil
}
