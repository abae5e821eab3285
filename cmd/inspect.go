package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/backingband/chord"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/sample"
	"github.com/jsphweid/backingband/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	inspectFrom    uint64
	inspectLimit   int
	inspectExcerpt string
	inspectChords  bool
)

func init() {
	inspectCmd.Flags().Uint64Var(&inspectFrom, "from", 0, "first tick to show")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 20, "notes shown per track")
	inspectCmd.Flags().StringVar(&inspectExcerpt, "excerpt", "", "write the shown notes to this midi file")
	inspectCmd.Flags().BoolVar(&inspectChords, "chords", false, "list the voicings struck together on each track")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Inspects a midi file",
	Long:  `Prints the notes of each track of a midi file, optionally writing them as an excerpt.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	mf, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", path, midi.Describe(mf))

	spans := chord.ReadNotes(mf)
	shown := map[int]int{}
	totals := map[int]int{}
	for _, span := range spans {
		totals[span.Track]++
		if span.OnTick < int64(inspectFrom) || shown[span.Track] >= inspectLimit {
			continue
		}
		shown[span.Track]++
		fmt.Printf("track %d ch %2d key %3d vel %3d  %8d - %8d\n",
			span.Track, span.Channel, span.Key, span.Velocity, span.OnTick, span.OffTick)
	}

	for _, track := range util.GetKeys(totals) {
		fmt.Printf("track %d: %d notes\n", track, totals[track])
	}

	if inspectChords {
		printChords(spans)
	}

	if inspectExcerpt != "" {
		data, err := midi.Encode(sample.Create(mf, inspectFrom, inspectLimit))
		if err != nil {
			return err
		}
		if err := os.WriteFile(inspectExcerpt, data, 0644); err != nil {
			return errors.Wrapf(err, "could not write %s", inspectExcerpt)
		}
		fmt.Printf("wrote excerpt to %s\n", inspectExcerpt)
	}
	return nil
}

type onset struct {
	track int
	tick  int64
}

// printChords lists every onset of three or more notes from the first
// shown tick onward.
func printChords(spans []chord.NoteSpan) {
	struck := map[onset][]int{}
	var order []onset
	for _, span := range spans {
		if span.OnTick < int64(inspectFrom) {
			continue
		}
		key := onset{span.Track, span.OnTick}
		if _, ok := struck[key]; !ok {
			order = append(order, key)
		}
		struck[key] = append(struck[key], int(span.Key))
	}
	shown := map[int]int{}
	for _, key := range order {
		notes := struck[key]
		if len(notes) < 3 || shown[key.track] >= inspectLimit {
			continue
		}
		shown[key.track]++
		fmt.Printf("track %d %8d  %s\n", key.track, key.tick, chord.CreateChordKey(notes))
	}
}
