package cmd

import (
	"github.com/cottand/kinfer/frontend/scenario"
	"github.com/cottand/kinfer/internal/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"log/slog"
)

var SolveCmd = &cobra.Command{
	Use:          "solve scenario.yaml",
	Short:        "Complete the calls of a scenario together and print what got inferred",
	RunE:         runSolve,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var logLevel *int

func init() {
	logLevel = SolveCmd.Flags().IntP("log-level", "l", int(slog.LevelDebug), "minimum log level (records below warn also need --debug sections)")
}

func runSolve(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("log-level") {
		log.SetLevel(slog.Level(*logLevel))
	}
	report, err := solveFile(args[0])
	if err != nil {
		return err
	}
	render(cmd.OutOrStdout(), report)
	return nil
}

func solveFile(path string) (scenario.Report, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return scenario.Report{}, err
	}
	built, err := s.Build()
	if err != nil {
		return scenario.Report{}, errors.Wrap(err, "could not build scenario")
	}
	return built.Solve(), nil
}

var CheckCmd = &cobra.Command{
	Use:          "check scenario.yaml",
	Short:        "Like solve, but only fails when any completed call has errors",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

func runCheck(cmd *cobra.Command, args []string) error {
	report, err := solveFile(args[0])
	if err != nil {
		return err
	}
	if report.HasErrors() {
		render(cmd.ErrOrStderr(), report)
		return errors.Errorf("%s has inference errors", args[0])
	}
	return nil
}
