package cmd

import (
	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// performanceFlags are shared by export and play.
type performanceFlags struct {
	bpm        float64
	swing      float64
	genre      string
	seed       int64
	intensity  float64
	complexity float64
	harmony    bool
}

func (p *performanceFlags) register(c *cobra.Command) {
	c.Flags().Float64Var(&p.bpm, "bpm", 0, "tempo, defaults to the arrangement settings")
	c.Flags().Float64Var(&p.swing, "swing", -1, "swing amount 0-100")
	c.Flags().StringVar(&p.genre, "genre", "", "rock, jazz, funk, blues, disco, reggae, acoustic, bossa or neo-soul")
	c.Flags().Int64Var(&p.seed, "seed", 0, "random seed, defaults to BACKINGBAND_SEED or the clock")
	c.Flags().Float64Var(&p.intensity, "intensity", -1, "starting intensity 0-1")
	c.Flags().Float64Var(&p.complexity, "complexity", -1, "complexity 0-1")
	c.Flags().BoolVar(&p.harmony, "harmony", false, "enable the harmony section")
}

// snapshotFromDocument builds the arrangement and merges the document's
// settings over the defaults.
func snapshotFromDocument(doc model.Document) (model.Snapshot, error) {
	arr, err := arrangement.Build(doc)
	if err != nil {
		return model.Snapshot{}, err
	}
	if arr.TotalSteps == 0 {
		return model.Snapshot{}, arrangement.ErrEmpty
	}
	snap := model.DefaultSnapshot()
	if doc.Settings != nil {
		snap = doc.Settings.Clone()
		if snap.Enabled == nil {
			snap.Enabled = model.DefaultSnapshot().Enabled
		}
		if snap.BPM <= 0 {
			snap.BPM = model.DefaultSnapshot().BPM
		}
	}
	snap.Arrangement = arr
	if snap.Seed == 0 {
		snap.Seed = constants.GetSeed()
	}
	return snap, nil
}

func loadSnapshot(path string, p performanceFlags) (model.Snapshot, error) {
	doc, err := arrangement.Load(path)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap, err := snapshotFromDocument(doc)
	if err != nil {
		return snap, errors.Wrapf(err, "could not build %s", path)
	}
	if p.bpm > 0 {
		snap.BPM = p.bpm
	}
	if p.swing >= 0 {
		snap.Swing = p.swing
	}
	if p.genre != "" {
		genre, err := model.ParseGenre(p.genre)
		if err != nil {
			return snap, err
		}
		snap.Genre = genre
	}
	if p.seed != 0 {
		snap.Seed = p.seed
	}
	if p.intensity >= 0 {
		snap.Intensity = p.intensity
	}
	if p.complexity >= 0 {
		snap.Complexity = p.complexity
	}
	if p.harmony {
		snap.Enabled[model.Harmony] = true
	}
	return snap, nil
}
