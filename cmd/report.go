package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/backingband/arrangement"
	"github.com/jsphweid/backingband/conductor"
	"github.com/spf13/cobra"
)

var reportIterations int

func init() {
	reportCmd.Flags().IntVar(&reportIterations, "iterations", 8, "passes of the macro arc to plan")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <arrangement>",
	Short: "Reports the form analysis of an arrangement",
	Long:  `Prints each section's role, harmonic flux and the intensity the conductor aims for on each pass.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(args[0])
	},
}

func report(path string) error {
	doc, err := arrangement.Load(path)
	if err != nil {
		return err
	}
	arr, err := arrangement.Build(doc)
	if err != nil {
		return err
	}
	if arr.TotalSteps == 0 {
		return arrangement.ErrEmpty
	}
	form := arrangement.AnalyzeForm(arr)

	fmt.Printf("steps: %v, measures: %v, chords: %v\n", arr.TotalSteps, arr.TotalSteps/arr.StepsPerMeasure(), len(arr.Progression))
	for _, fs := range form.Sections {
		fs := fs
		var targets []string
		for i := 0; i < reportIterations; i++ {
			targets = append(targets, fmt.Sprintf("%.2f", conductor.TargetFor(i, &fs, fs.Label, 0.5)))
		}
		fmt.Printf("%-12s %-15s steps %4d-%-4d flux %.2f repeat %d energy %.2f\n",
			fs.Label, fs.Role, fs.Start, fs.End, fs.Flux, fs.Iteration, arrangement.SectionEnergy(fs.Label))
		fmt.Printf("  targets: %s\n", strings.Join(targets, " "))
	}
	return nil
}
