package main

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/capture"
	blecalErrors "github.com/tturner/blecal/internal/errors"
	"github.com/tturner/blecal/internal/metrics"
)

type decodeFlags struct {
	hex         []string
	pcapIn      string
	skipInvalid bool
	metricsCSV  string
	metricsJSON string
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Parse one or more frames",
		Long: `Parse frames given as hex (arguments or --hex), read from a pcap capture
written by blecal (--pcap), or read one per line from stdin ("-").

Whitespace inside the hex is ignored. Frames whose length or checksum do not
match are still decoded and reported as not valid; frames without the start
and end markers are errors. When several frames are given the first error
stops the run.`,
		Example: `  # Decode a reset request
  blecal decode 7E7E7E5A0600DA7EA5

  # Decode the version response as JSON
  blecal decode --hex "7E 7E 7E 5A 0A 85 00 01 02 01 67 7E A5" -o json

  # Decode every frame of a capture, skipping broken records
  blecal decode --pcap bench.pcap --skip-invalid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return runDecode(cmd, flags, args)
		},
	}

	cmd.Flags().StringArrayVar(&flags.hex, "hex", nil, "Frame as hex (repeatable)")
	cmd.Flags().StringVar(&flags.pcapIn, "pcap", "", "Read frames from this pcap file")
	cmd.Flags().BoolVar(&flags.skipInvalid, "skip-invalid", false, "With --pcap, skip records that fail to parse")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write per-frame metrics to this CSV file")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write per-frame metrics to this JSON file")

	return cmd
}

func runDecode(cmd *cobra.Command, flags *decodeFlags, args []string) error {
	inputs, err := decodeInputs(cmd, flags, args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return missingFlagError(cmd, "--hex or --pcap")
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	sink := metrics.NewSink()
	d, _, err := env.dispatcher("cli", sink, "")
	if err != nil {
		return err
	}
	if flags.pcapIn != "" {
		d.Source = flags.pcapIn
	}

	out := d.Dispatch(batch.NewDecodeRequest(inputs...))
	if err := writeMetrics(sink, flags.metricsCSV, flags.metricsJSON); err != nil {
		return err
	}
	if out.Err != nil {
		return blecalErrors.WrapDecodeError(out.Err, inputs[0].String())
	}
	return env.printOutcome(cmd.OutOrStdout(), out)
}

func decodeInputs(cmd *cobra.Command, flags *decodeFlags, args []string) ([]batch.Input, error) {
	var inputs []batch.Input
	for _, h := range flags.hex {
		inputs = append(inputs, batch.HexInput(h))
	}
	for _, arg := range args {
		if arg != "-" {
			inputs = append(inputs, batch.HexInput(arg))
			continue
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				inputs = append(inputs, batch.HexInput(line))
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if flags.pcapIn != "" {
		records, err := capture.Open(flags.pcapIn)
		if err != nil {
			return nil, blecalErrors.WrapInputError(err, flags.pcapIn)
		}
		for _, rec := range records {
			if rec.Err != nil && flags.skipInvalid {
				continue
			}
			inputs = append(inputs, batch.BytesInput(rec.Data))
		}
	}
	return inputs, nil
}
