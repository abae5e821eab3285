package model

// DrumRow is one instrument lane of the drum grid. Steps holds one value
// per step: 0 rest, 1 hit, 2 accent.
type DrumRow struct {
	Name  string `json:"name" yaml:"name"`
	Note  int    `json:"note" yaml:"note"`
	Steps []int  `json:"steps" yaml:"steps"`
	Muted bool   `json:"muted,omitempty" yaml:"muted,omitempty"`
}

// Snapshot is the full performance configuration handed to the worker.
// It is passed by value and must be Cloned before crossing a goroutine.
type Snapshot struct {
	Arrangement *Arrangement `json:"-" yaml:"-"`

	Genre          Genre   `json:"genre" yaml:"genre"`
	BPM            float64 `json:"bpm" yaml:"bpm"`
	Swing          float64 `json:"swing" yaml:"swing"`
	SwingEighths   bool    `json:"swing_eighths" yaml:"swing_eighths"`
	Intensity      float64 `json:"intensity" yaml:"intensity"`
	Complexity     float64 `json:"complexity" yaml:"complexity"`
	AutoIntensity  bool    `json:"auto_intensity" yaml:"auto_intensity"`
	DriftIntensity float64 `json:"drift_intensity" yaml:"drift_intensity"`
	Seed           int64   `json:"seed" yaml:"seed"`

	Enabled      map[Instrument]bool `json:"enabled" yaml:"enabled"`
	BassStyle    BassStyle           `json:"bass_style" yaml:"bass_style"`
	CompingStyle CompingStyle        `json:"comping_style" yaml:"comping_style"`
	LeadStyle    LeadStyle           `json:"lead_style" yaml:"lead_style"`
	HarmonyStyle HarmonyStyle        `json:"harmony_style" yaml:"harmony_style"`

	// nil means the genre preset
	DrumGrid []DrumRow `json:"drum_grid,omitempty" yaml:"drum_grid,omitempty"`
}

func DefaultSnapshot() Snapshot {
	return Snapshot{
		Genre:         Rock,
		BPM:           100,
		Intensity:     0.5,
		Complexity:    0.3,
		AutoIntensity: true,
		Seed:          1,
		Enabled: map[Instrument]bool{
			Bass:    true,
			Lead:    true,
			Comping: true,
			Harmony: false,
			Drums:   true,
		},
	}
}

func (s Snapshot) IsEnabled(i Instrument) bool {
	return s.Enabled[i]
}

func (s Snapshot) Clone() Snapshot {
	res := s
	res.Arrangement = s.Arrangement.Clone()
	if s.Enabled != nil {
		res.Enabled = make(map[Instrument]bool, len(s.Enabled))
		for k, v := range s.Enabled {
			res.Enabled[k] = v
		}
	}
	if s.DrumGrid != nil {
		res.DrumGrid = make([]DrumRow, len(s.DrumGrid))
		for i, row := range s.DrumGrid {
			row.Steps = append([]int(nil), row.Steps...)
			res.DrumGrid[i] = row
		}
	}
	return res
}
