package main

import (
	"github.com/cottand/kinfer/cmd"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/internal/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "kinfer [subcommand]",
	Short:        "kinfer completes groups of mutually dependent calls with one shared constraint system",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		if len(debugSections) > 0 {
			log.EnableSection(debugSections...)
		}
		stacks, err := cmd.ParseStackPrinting(errorStacks)
		if err != nil {
			return err
		}
		ilerr.SetStackPrinting(stacks)
		return nil
	},
}

var (
	noColor       bool
	debugSections []string
	errorStacks   string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringSliceVar(&debugSections, "debug", nil, "log sections to show debug records for (inference, constraints)")
	rootCmd.PersistentFlags().StringVar(&errorStacks, "error-stacks", "", "print where errors were created: 'frame' or 'full'")
	rootCmd.AddCommand(cmd.SolveCmd)
	rootCmd.AddCommand(cmd.CheckCmd)
}
