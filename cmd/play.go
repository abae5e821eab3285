package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/midi"
	"github.com/jsphweid/backingband/transport"
	"github.com/jsphweid/backingband/worker"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	playFlags    performanceFlags
	playPort     int
	playPortName string
	playDry      bool
)

func init() {
	playFlags.register(playCmd)
	playCmd.Flags().IntVar(&playPort, "port", 0, "index of the midi output port, see ports")
	playCmd.Flags().StringVar(&playPortName, "port-name", "", "name of the midi output port")
	playCmd.Flags().BoolVar(&playDry, "dry", false, "print messages instead of sending them")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <arrangement>",
	Short: "Performs an arrangement live",
	Long:  `Performs an arrangement live on a midi output port until interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(args[0])
	},
}

func play(path string) error {
	snap, err := loadSnapshot(path, playFlags)
	if err != nil {
		return err
	}

	var sink transport.Sink
	if playDry {
		sink = transport.NewLogSink(os.Stdout)
	} else {
		port, err := midi.OpenPort(playPort, playPortName)
		if err != nil {
			return err
		}
		defer port.Close()
		sink = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := worker.New(worker.Options{Lookahead: constants.GetLookahead(), Snapshot: &snap})
	clock := transport.NewTickerClock(snap.BPM, snap.Arrangement.Meter.StepsPerBeat)
	player := transport.NewPlayer(clock, w, sink, snap)

	go w.Run(ctx)
	go clock.Run(ctx)
	log.Printf("playing %s at %v bpm (seed %d), ctrl-c to stop", path, snap.BPM, snap.Seed)
	player.Run(ctx)
	return nil
}
