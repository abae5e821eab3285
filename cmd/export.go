package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/backingband/file"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/timeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	exportFlags  performanceFlags
	exportLoops  int
	exportTracks string
	exportOut    string
)

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().IntVar(&exportLoops, "loops", 4, "number of passes through the arrangement")
	exportCmd.Flags().StringVar(&exportTracks, "tracks", "", "comma separated instruments to write, defaults to the enabled ones")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, defaults to EXPORT_PATH")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <arrangement>",
	Short: "Renders an arrangement to a midi file",
	Long:  `Renders an arrangement to a midi file, closing with a V-I cadence.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return export(args[0])
	},
}

func parseTracks(list string) ([]model.Instrument, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var res []model.Instrument
	for _, name := range strings.Split(list, ",") {
		inst, err := model.ParseInstrument(name)
		if err != nil {
			return nil, err
		}
		res = append(res, inst)
	}
	return res, nil
}

func export(path string) error {
	snap, err := loadSnapshot(path, exportFlags)
	if err != nil {
		return err
	}
	tracks, err := parseTracks(exportTracks)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := timeline.Render(snap, timeline.Options{Loops: exportLoops, Tracks: tracks, Name: name})
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out, err = file.ExportPath(name)
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, res.Data, 0644); err != nil {
		return errors.Wrapf(err, "could not write %s", out)
	}
	fmt.Printf("wrote %s: %d notes, %d ticks (seed %d)\n", out, res.Notes, res.TotalTicks, snap.Seed)
	return nil
}
