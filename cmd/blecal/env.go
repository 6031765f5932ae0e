package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/capture"
	"github.com/tturner/blecal/internal/config"
	"github.com/tturner/blecal/internal/logging"
	"github.com/tturner/blecal/internal/metrics"
	"github.com/tturner/blecal/internal/ui"
)

type globalFlags struct {
	configPath   string
	logLevel     string
	logFile      string
	outputFormat string
	noColor      bool
}

var globals globalFlags

func registerGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&globals.configPath, "config", "", "Config file (default ./blecal.yaml when present)")
	pf.StringVar(&globals.logLevel, "log-level", "", "Log level: silent, error, info, verbose, debug")
	pf.StringVar(&globals.logFile, "log-file", "", "Write logs to this file (rotated)")
	pf.StringVarP(&globals.outputFormat, "output-format", "o", "", "Output format: text, json, yaml")
	pf.BoolVar(&globals.noColor, "no-color", false, "Disable colored output")
}

// cliEnv carries the loaded configuration and logger for one command run.
type cliEnv struct {
	cfg    *config.Config
	logger *logging.Logger
	format string
	color  bool
}

func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	path := globals.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if globals.logLevel != "" {
		cfg.Logging.Level = globals.logLevel
	}
	if globals.logFile != "" {
		cfg.Logging.File = globals.logFile
	}

	opts, err := cfg.Logging.LoggerOptions()
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	// Command output owns stdout.
	opts.Stdout = cmd.ErrOrStderr()
	opts.Stderr = cmd.ErrOrStderr()
	logger, err := logging.NewLoggerWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	format := strings.ToLower(cfg.Output.Format)
	if globals.outputFormat != "" {
		format = strings.ToLower(globals.outputFormat)
	}
	switch format {
	case "text", "json", "yaml":
	default:
		logger.Close()
		return nil, fmt.Errorf("--output-format must be text, json or yaml, got %q", format)
	}

	return &cliEnv{
		cfg:    cfg,
		logger: logger,
		format: format,
		color:  cfg.Output.Color && !globals.noColor,
	}, nil
}

func (e *cliEnv) Close() {
	_ = e.logger.Close()
}

// printOutcome writes out in the selected output format.
func (e *cliEnv) printOutcome(w io.Writer, out batch.Outcome) error {
	if e.format == "text" {
		_, err := fmt.Fprintln(w, ui.RenderOutcome(out, e.color))
		return err
	}
	return batch.WriteOutcome(w, out, batch.Format(e.format))
}

// dispatcher builds a Dispatcher that records into sink and, when pcapPath
// is set, a new capture file. The returned func closes the capture.
func (e *cliEnv) dispatcher(source string, sink *metrics.Sink, pcapPath string) (*batch.Dispatcher, func() error, error) {
	d := &batch.Dispatcher{Logger: e.logger, Sink: sink, Source: source}
	if pcapPath == "" {
		return d, func() error { return nil }, nil
	}
	w, err := capture.Create(pcapPath, e.cfg.Capture.Snaplen)
	if err != nil {
		return nil, nil, err
	}
	d.Recorder = w
	return d, func() error {
		if err := w.Close(); err != nil {
			return err
		}
		e.logger.Info("wrote %d frame(s) to %s", w.Count(), pcapPath)
		return nil
	}, nil
}

// writeMetrics flushes sink to the requested CSV and JSON files.
func writeMetrics(sink *metrics.Sink, csvPath, jsonPath string) error {
	if csvPath == "" && jsonPath == "" {
		return nil
	}
	w, err := metrics.NewWriter(csvPath, jsonPath)
	if err != nil {
		return err
	}
	if err := w.WriteAll(sink); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
