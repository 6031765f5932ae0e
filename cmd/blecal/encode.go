package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/blecal/internal/batch"
	blecalErrors "github.com/tturner/blecal/internal/errors"
	"github.com/tturner/blecal/internal/meterble"
	"github.com/tturner/blecal/internal/metrics"
	"github.com/tturner/blecal/internal/ui"
)

type encodeFlags struct {
	oad         string
	addr        string
	addrASCII6  string
	barCode     string
	itemContent string
	meterNo     int
	slot        int
	pulse       string
	power       int
	mode        string
	rfu1        int
	rfu2        int
	baud        string
	frameOnly   bool
	copy        bool
	pcapOut     string
}

func newEncodeCmd() *cobra.Command {
	flags := &encodeFlags{}

	cmd := &cobra.Command{
		Use:   "encode <oad>",
		Short: "Build a request frame",
		Long: `Build the request frame for one command. The command is given by name
(see "blecal commands") either as the first argument or with --oad; its
parameters are set with the flags below. Flags that do not apply to the
command are ignored.

meter_test and conv_test pick their payload form from the flags given:
--item-content sends the expression verbatim, --meter-no selects the 8-byte
meter-index form, and neither selects the legacy 4-byte form.`,
		Example: `  # Connect to a meter by its 6-byte address
  blecal encode connect --addr AABBCCDDEEFF

  # BLE connect form
  blecal encode connect --barcode 0150000004998 --addr-ascii6 000123

  # Meter test for bench position 2, frame only, copied to the clipboard
  blecal encode meter_test --meter-no 2 --frame-only --copy

  # Switch the link to 57600 baud
  blecal encode set_baud --baud 57600`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.oad == "" && len(args) > 0 {
				flags.oad = args[0]
			}
			if flags.oad == "" {
				return missingFlagError(cmd, "--oad")
			}
			return runEncode(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.oad, "oad", "", "Command name, e.g. connect (or first argument)")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "connect: 12-hex-digit meter address")
	cmd.Flags().StringVar(&flags.addrASCII6, "addr-ascii6", "", "connect: 6-character display address (BLE form)")
	cmd.Flags().StringVar(&flags.barCode, "barcode", "", "connect: meter barcode, at least 13 characters (BLE form)")
	cmd.Flags().StringVar(&flags.itemContent, "item-content", "", "meter_test/conv_test: itemContent expression")
	cmd.Flags().IntVar(&flags.meterNo, "meter-no", 0, "meter_test/conv_test: bench position (meter-index form)")
	cmd.Flags().IntVar(&flags.slot, "slot", 0, "meter_test/conv_test: slot")
	cmd.Flags().StringVar(&flags.pulse, "pulse", "", "meter_test/conv_test: pulse name or number")
	cmd.Flags().IntVar(&flags.power, "power", 0, "meter_test/conv_test: power")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "meter_test/conv_test: test mode name or number")
	cmd.Flags().IntVar(&flags.rfu1, "rfu1", 0, "meter_test/conv_test: reserved byte 1 (meter-index form)")
	cmd.Flags().IntVar(&flags.rfu2, "rfu2", 0, "meter_test/conv_test: reserved byte 2 (meter-index form)")
	cmd.Flags().StringVar(&flags.baud, "baud", "", "set_baud: rate, e.g. 9600")
	cmd.Flags().BoolVar(&flags.frameOnly, "frame-only", false, "Print only the frame as hex")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the frame hex to the clipboard")
	cmd.Flags().StringVar(&flags.pcapOut, "pcap", "", "Also record the frame to this pcap file")

	return cmd
}

// request converts the flags into an EncodeRequest. Integer flags are only
// set when given so the codec defaults apply.
func (f *encodeFlags) request(cmd *cobra.Command) meterble.EncodeRequest {
	req := meterble.EncodeRequest{
		OAD:         f.oad,
		Addr:        f.addr,
		AddrASCII6:  f.addrASCII6,
		BarCode:     f.barCode,
		ItemContent: f.itemContent,
	}
	intFlag := func(name string, v int) *int {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	req.MeterNo = intFlag("meter-no", f.meterNo)
	req.Slot = intFlag("slot", f.slot)
	req.Power = intFlag("power", f.power)
	req.RFU1 = intFlag("rfu1", f.rfu1)
	req.RFU2 = intFlag("rfu2", f.rfu2)
	if f.pulse != "" {
		req.Pulse = meterble.ParseSymbol(f.pulse)
	}
	if f.mode != "" {
		req.Mode = meterble.ParseSymbol(f.mode)
	}
	if f.baud != "" {
		req.Baud = meterble.ParseSymbol(f.baud)
	}
	return req
}

func runEncode(cmd *cobra.Command, flags *encodeFlags) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	return encodeAndPrint(cmd, env, flags.request(cmd), flags.frameOnly, flags.copy, flags.pcapOut)
}

// encodeAndPrint is shared by encode and compose.
func encodeAndPrint(cmd *cobra.Command, env *cliEnv, req meterble.EncodeRequest, frameOnly, copyFrame bool, pcapOut string) error {
	d, closeCapture, err := env.dispatcher("cli", metrics.NewSink(), pcapOut)
	if err != nil {
		return err
	}
	out := d.Dispatch(batch.NewEncodeRequest(req))
	if err := closeCapture(); err != nil {
		return err
	}
	if out.Err != nil {
		return blecalErrors.WrapEncodeError(out.Err, req.OAD)
	}

	items := out.Encoded()
	hex := items[0].Payload
	if frameOnly {
		fmt.Fprintln(cmd.OutOrStdout(), hex)
	} else if err := env.printOutcome(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if copyFrame {
		if err := ui.CopyToClipboard(hex); err != nil {
			return err
		}
		env.logger.Info("copied %s to clipboard", hex)
	}
	return nil
}
