package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/metrics"
)

type statsFlags struct {
	inputFile string
}

func newStatsCmd() *cobra.Command {
	flags := &statsFlags{}

	cmd := &cobra.Command{
		Use:   "stats <metrics.csv>",
		Short: "Summarize a metrics CSV file",
		Long: `Reads a metrics CSV file written by --metrics-csv and prints the same
summary statistics (counts, error kinds, duration percentiles, per-command
breakdown) that the service reports at GET /v1/metrics.

If --input is omitted, the first positional argument is used.`,
		Example: `  blecal stats metrics.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.inputFile == "" && len(args) > 0 {
				flags.inputFile = args[0]
			}
			if flags.inputFile == "" {
				return missingFlagError(cmd, "--input")
			}
			return runStats(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.inputFile, "input", "", "Input metrics CSV file (required)")
	return cmd
}

func runStats(cmd *cobra.Command, flags *statsFlags) error {
	rows, first, last, err := metrics.ReadMetricsCSV(flags.inputFile)
	if err != nil {
		return err
	}

	sink := metrics.NewSink()
	for _, m := range rows {
		sink.Record(m)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Metrics: %s (%d rows)\n", flags.inputFile, len(rows))
	if !first.IsZero() {
		fmt.Fprintf(out, "Time range: %s to %s (%s)\n",
			first.Format(time.RFC3339), last.Format(time.RFC3339), last.Sub(first).Round(time.Millisecond))
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, metrics.FormatSummary(sink.GetSummary()))
	return nil
}
