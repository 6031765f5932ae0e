package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tturner/blecal/internal/meterble"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List supported commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			return printCommands(cmd, env.format)
		},
	}
}

func printCommands(cmd *cobra.Command, format string) error {
	specs := meterble.Commands()
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(specs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(specs); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREQ\tRESP\tREQUEST DATA\tRESPONSE DATA")
	for _, s := range specs {
		fmt.Fprintf(tw, "%s\t0x%02X\t0x%02X\t%s\t%s\n", s.Name, s.Code, s.ResponseCode, s.Request, s.Response)
	}
	return tw.Flush()
}
