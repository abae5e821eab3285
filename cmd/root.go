package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backingband",
	Short: "An algorithmic backing band",
	Long: `backingband improvises bass, comping, a lead line, harmony and drums
over a chord arrangement. It plays live to a midi port, renders to a
midi file, or serves sessions over http.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
