package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	blecalErrors "github.com/tturner/blecal/internal/errors"
	"github.com/tturner/blecal/internal/meterble"
	"github.com/tturner/blecal/internal/ui"
)

type segmentView struct {
	meterble.Segment `yaml:",inline"`
	Hex              string `json:"hex" yaml:"hex"`
}

func newItemContentCmd() *cobra.Command {
	var packedOnly bool

	cmd := &cobra.Command{
		Use:   "itemcontent <expr>",
		Short: "Show how an itemContent expression packs",
		Long: `Break an itemContent expression into its segments and show the bytes each
one contributes. Segments are separated by "|". A segment is a number
with an optional ":width" in bytes and "@le" or "@be" byte order. Numbers
are always hex, with or without 0x: "10" packs as 0x10.`,
		Example: `  blecal itemcontent "12|09D0|0x01:2@be"
  blecal itemcontent "5:2" --packed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 {
				return missingFlagError(cmd, "<expr>")
			}
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if _, err := meterble.ParseItemContent(args[0]); err != nil {
				return blecalErrors.WrapEncodeError(err, "meter_test")
			}
			segs, err := meterble.ItemSegments(args[0])
			if err != nil {
				return err
			}
			return printSegments(cmd, env, segs, packedOnly)
		},
	}

	cmd.Flags().BoolVar(&packedOnly, "packed", false, "Print only the packed bytes as hex")
	return cmd
}

func printSegments(cmd *cobra.Command, env *cliEnv, segs []meterble.Segment, packedOnly bool) error {
	out := cmd.OutOrStdout()
	var packed []byte
	views := make([]segmentView, 0, len(segs))
	for _, seg := range segs {
		packed = append(packed, seg.Bytes...)
		views = append(views, segmentView{Segment: seg, Hex: meterble.EncodeHex(seg.Bytes)})
	}

	if packedOnly {
		_, err := fmt.Fprintln(out, meterble.EncodeHex(packed))
		return err
	}

	switch env.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"segments": views, "packed": meterble.EncodeHex(packed)})
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"segments": views, "packed": meterble.EncodeHex(packed)}); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err := fmt.Fprintln(out, ui.RenderSegments(segs, env.color))
	return err
}
