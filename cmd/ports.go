package cmd

import (
	"fmt"

	"github.com/jsphweid/backingband/midi"
	"github.com/spf13/cobra"
	gm "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists midi output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer gm.CloseDriver()
		names, err := midi.ListOutPorts()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("no midi output ports")
		}
		for i, name := range names {
			fmt.Printf("%d: %s\n", i, name)
		}
		return nil
	},
}
