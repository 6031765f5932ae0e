package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/capture"
	"github.com/tturner/blecal/internal/metrics"
	"github.com/tturner/blecal/internal/server"
)

type serveFlags struct {
	listen      string
	mode        string
	pcapOut     string
	metricsCSV  string
	metricsJSON string
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP codec service",
		Long: `Serve the codec over HTTP for bench tools that are not written in Go.

Endpoints:
  GET  /healthz          liveness
  GET  /v1/commands      command table
  GET  /v1/metrics       summary of every request served
  POST /v1/dispatch      batch envelope {id, mode, payload}
  POST /v1/encode        one encode request object
  POST /v1/decode        {"frame": hex, byte array or Buffer object}
  POST /v1/itemcontent   {"expr": "..."} segment breakdown

The service stops on SIGINT or SIGTERM; metrics files are written then.`,
		Example: `  # Listen on all interfaces and record every frame
  blecal serve --listen 0.0.0.0:8086 --pcap served.pcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.listen, "listen", "", "Listen address (default from config, 127.0.0.1:8086)")
	cmd.Flags().StringVar(&flags.mode, "gin-mode", "", "Router mode: release, debug or test")
	cmd.Flags().StringVar(&flags.pcapOut, "pcap", "", "Record every frame to this pcap file")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write request metrics to this CSV file on shutdown")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write request metrics to this JSON file on shutdown")

	return cmd
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg.Server
	if flags.listen != "" {
		cfg.Listen = flags.listen
	}
	if flags.mode != "" {
		cfg.Mode = flags.mode
	}

	var recorder batch.FrameRecorder
	if flags.pcapOut != "" {
		w, err := capture.Create(flags.pcapOut, env.cfg.Capture.Snaplen)
		if err != nil {
			return err
		}
		defer func() {
			_ = w.Close()
			env.logger.Info("wrote %d frame(s) to %s", w.Count(), flags.pcapOut)
		}()
		recorder = w
	}

	sink := metrics.NewSink()
	srv := server.NewServer(cfg, env.logger, sink, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return err
	}

	if summary := sink.GetSummary(); summary.TotalOperations > 0 {
		fmt.Fprint(cmd.OutOrStdout(), metrics.FormatSummary(summary))
	}
	return writeMetrics(sink, flags.metricsCSV, flags.metricsJSON)
}
