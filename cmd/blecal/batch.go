package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/metrics"
)

type batchFlags struct {
	inputFile   string
	format      string
	outputFile  string
	metricsCSV  string
	metricsJSON string
	pcapOut     string
}

func newBatchCmd() *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch request file",
		Long: `Run a request envelope {id, mode, payload} read from a JSON, YAML or TOML
file. mode is encode or decode; payload is one item or a list. The first
failing item aborts the batch and no partial results are written.

The input format follows the file extension unless --format is given. The
outcome is written in the --output-format (json when text is selected and
--output is set).

If --input is omitted, the first positional argument is used.`,
		Example: `  # Encode every request in a YAML batch and keep the frames
  blecal batch --input session.yaml --pcap session.pcap

  # Decode a JSON batch, write the outcome and timing metrics
  blecal batch --input frames.json --output result.json --metrics-csv metrics.csv`,
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
			return runBatch(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.inputFile, "input", "", "Batch request file (required)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Input format: json, yaml, toml (default from extension)")
	cmd.Flags().StringVar(&flags.outputFile, "output", "", "Write the outcome to this file instead of stdout")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write per-item metrics to this CSV file")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write per-item metrics to this JSON file")
	cmd.Flags().StringVar(&flags.pcapOut, "pcap", "", "Record every frame to this pcap file")

	return cmd
}

func runBatch(cmd *cobra.Command, flags *batchFlags) error {
	format := batch.FormatFromPath(flags.inputFile)
	if flags.format != "" {
		f, err := batch.ParseFormat(flags.format)
		if err != nil {
			return fmt.Errorf("--format: %w", err)
		}
		format = f
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	req, err := batch.LoadFile(flags.inputFile, format)
	if err != nil {
		return err
	}

	sink := metrics.NewSink()
	d, closeCapture, err := env.dispatcher(flags.inputFile, sink, flags.pcapOut)
	if err != nil {
		return err
	}
	out := d.Dispatch(req)
	if err := closeCapture(); err != nil {
		return err
	}
	if err := writeMetrics(sink, flags.metricsCSV, flags.metricsJSON); err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if flags.outputFile != "" {
		file, err := os.Create(flags.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer file.Close()
		w = file
		if env.format == "text" {
			env.format = string(batch.FormatJSON)
		}
	}
	if err := env.printOutcome(w, out); err != nil {
		return err
	}

	if out.Err != nil {
		return fmt.Errorf("batch %s failed: %w", out.ID, out.Err)
	}
	env.logger.Verbose("batch %s: %d operation(s)", out.ID, len(sink.GetMetrics()))
	return nil
}
