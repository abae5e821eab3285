package generator

import (
	"strings"

	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/util"
)

var drumNotes = map[string]int{
	"Kick":  constants.KickNote,
	"Snare": constants.SnareNote,
	"HiHat": constants.HiHatNote,
	"Open":  constants.OpenNote,
	"Crash": constants.CrashNote,
}

var rowOrder = []string{"Kick", "Snare", "HiHat", "Open"}

// drumPresets are the 4/4 grooves per genre, one or two measures long.
var drumPresets = map[model.Genre]map[string]string{
	model.Rock: {
		"Kick":  "2000000020100000",
		"Snare": "0000200000002000",
		"HiHat": "2121212121212121",
		"Open":  "0000000000000000",
	},
	model.Funk: {
		"Kick":  "20010020010000102001002001001020",
		"Snare": "00002000000020000000200001012000",
		"HiHat": "21212121212121212121212121212121",
		"Open":  "00000000000000000000000000000000",
	},
	model.NeoSoul: {
		"Kick":  "20000001002000002000010000200010",
		"Snare": "00002000000020000000200000002000",
		"HiHat": "11111111111111111111111111111111",
		"Open":  "00000000000000200000000000000020",
	},
	model.Blues: {
		"Kick":  "2000000020000010",
		"Snare": "0000200000002000",
		"HiHat": "2010201020102010",
		"Open":  "1000000000001000",
	},
	model.Reggae: {
		"Kick":  "0000000020000000",
		"Snare": "0000000020000000",
		"HiHat": "2010201020102010",
		"Open":  "0000002000000020",
	},
	model.Acoustic: {
		"Kick":  "2000000010000000",
		"Snare": "0000200000002000",
		"HiHat": "1010101010101010",
		"Open":  "0000000000000000",
	},
	model.Disco: {
		"Kick":  "2000200020002000",
		"Snare": "0000200000002000",
		"HiHat": "1010101010101010",
		"Open":  "0020002000200020",
	},
	model.Jazz: {
		"Kick":  "10001000100010001000100010001000",
		"Snare": "00000000000000000000000001001000",
		"HiHat": "00002000000020000000200000002000",
		"Open":  "20001020200010202000102020101020",
	},
	model.Bossa: {
		"Kick":  "20000020200000202000002020000020",
		"Snare": "20000020000020000000200000200000",
		"HiHat": "11111111111111111111111111111111",
		"Open":  "00000000000000000000000000000000",
	},
}

func parseRow(row string) []int {
	steps := make([]int, 0, len(row))
	for _, r := range row {
		if r >= '0' && r <= '2' {
			steps = append(steps, int(r-'0'))
		}
	}
	return steps
}

// PresetGrid returns the genre's groove for the meter. Meters other than
// 4/4 get a grid built from the meter's beat grouping.
func PresetGrid(genre model.Genre, meter model.Meter) []model.DrumRow {
	spm := meter.StepsPerMeasure()
	preset, ok := drumPresets[genre]
	if spm == 0 || (spm == 16 && meter.Beats == 4) {
		if !ok {
			preset = drumPresets[model.Rock]
		}
		rows := make([]model.DrumRow, 0, len(rowOrder))
		for _, name := range rowOrder {
			rows = append(rows, model.DrumRow{Name: name, Note: drumNotes[name], Steps: parseRow(preset[name])})
		}
		return rows
	}
	return meterGrid(meter)
}

func meterGrid(meter model.Meter) []model.DrumRow {
	spm := meter.StepsPerMeasure()
	kick := make([]int, spm)
	snare := make([]int, spm)
	hat := make([]int, spm)
	open := make([]int, spm)

	grouping := meter.Grouping
	if len(grouping) == 0 {
		grouping = []int{meter.Beats}
	}
	acc := 0
	for i, beats := range grouping {
		if i%2 == 0 {
			kick[acc] = 2
		} else {
			snare[acc] = 2
		}
		acc += beats * meter.StepsPerBeat
	}
	if len(grouping) == 1 && meter.Beats > 1 {
		snare[(meter.Beats-1)*meter.StepsPerBeat] = 2
	}
	half := util.Max(1, meter.StepsPerBeat/2)
	for i := 0; i < spm; i += half {
		hat[i] = 1
		if i%meter.StepsPerBeat == 0 {
			hat[i] = 2
		}
	}
	return []model.DrumRow{
		{Name: "Kick", Note: constants.KickNote, Steps: kick},
		{Name: "Snare", Note: constants.SnareNote, Steps: snare},
		{Name: "HiHat", Note: constants.HiHatNote, Steps: hat},
		{Name: "Open", Note: constants.OpenNote, Steps: open},
	}
}

type Drums struct {
	Grid  []model.DrumRow
	Genre model.Genre
	// true when the grid came from the user and must not follow the genre
	custom bool
	meter  model.Meter
	rng    util.Rand
}

func NewDrums(grid []model.DrumRow, genre model.Genre, meter model.Meter, rng util.Rand) *Drums {
	d := &Drums{Genre: genre, meter: meter, rng: rng}
	if grid != nil {
		d.custom = true
		d.Grid = make([]model.DrumRow, len(grid))
		for i, row := range grid {
			row.Steps = append([]int(nil), row.Steps...)
			if row.Note == 0 {
				row.Note = drumNotes[strings.TrimSpace(row.Name)]
			}
			d.Grid[i] = row
		}
	} else {
		d.Grid = PresetGrid(genre, meter)
	}
	return d
}

func (d *Drums) Instrument() model.Instrument { return model.Drums }

func (d *Drums) Reset() {}

// Pocket is the timing offset in steps the kit plays against the grid.
func Pocket(genre model.Genre, intensity float64) float64 {
	offset := 0.0
	if genre == model.NeoSoul {
		offset += 0.12
	}
	switch {
	case intensity > 0.75:
		offset -= 0.06
	case intensity < 0.3:
		offset += 0.08
	}
	return offset
}

func (d *Drums) Generate(f *Frame) []model.NoteEvent {
	band := f.Band
	if !d.custom && band.Genre != d.Genre {
		d.Genre = band.Genre
		d.Grid = PresetGrid(d.Genre, d.meter)
	}
	pocket := Pocket(band.Genre, band.Intensity)
	scale := 0.7 + 0.4*band.Intensity

	var res []model.NoteEvent
	fill := band.Fill
	if fill != nil && fill.Crash && f.Step == fill.End {
		res = append(res,
			d.hit(constants.CrashNote, scale, 0),
			d.hit(constants.KickNote, scale, 0))
		band.Fill = nil
		return res
	}
	// the groove carries on under fill steps that have no hits
	if band.FillActive(f.Step) && len(fill.Hits[f.Step]) > 0 {
		for _, h := range fill.Hits[f.Step] {
			res = append(res, d.hit(h.Note, h.Velocity*scale, pocket))
		}
		return res
	}

	for _, row := range d.Grid {
		if row.Muted || len(row.Steps) == 0 {
			continue
		}
		v := row.Steps[util.Mod(f.Step, len(row.Steps))]
		if v == 0 {
			continue
		}
		base := 0.7
		if v >= 2 {
			base = 1
		}
		res = append(res, d.hit(row.Note, base*scale*util.Between(d.rng, 0.95, 1.05), pocket))
	}
	return res
}

func (d *Drums) hit(note int, velocity, offset float64) model.NoteEvent {
	return noteEvent(note, velocity, 1, offset)
}
