package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/ui"
)

type composeFlags struct {
	frameOnly bool
	copy      bool
	pcapOut   string
}

func newComposeCmd() *cobra.Command {
	flags := &composeFlags{}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build a request frame interactively",
		Long: `Pick a command and fill in its parameters in a terminal form, then print
the encoded frame as "blecal encode" would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return runCompose(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.frameOnly, "frame-only", false, "Print only the frame as hex")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the frame hex to the clipboard")
	cmd.Flags().StringVar(&flags.pcapOut, "pcap", "", "Also record the frame to this pcap file")

	return cmd
}

func runCompose(cmd *cobra.Command, flags *composeFlags) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	req, err := ui.RunCompose()
	if err != nil {
		return err
	}
	return encodeAndPrint(cmd, env, req, flags.frameOnly, flags.copy, flags.pcapOut)
}
