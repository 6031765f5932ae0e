package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/tturner/blecal/internal/meterble"
)

// ComposeState holds the form fields as typed by the user.
type ComposeState struct {
	OAD         string
	ConnectForm string // legacy or ble
	Addr        string
	AddrASCII6  string
	BarCode     string
	TestForm    string // items, index or legacy
	ItemContent string
	MeterNo     string
	Slot        string
	Pulse       string
	Power       string
	Mode        string
	Baud        string
}

// NewComposeState returns the defaults shown when the form opens.
func NewComposeState() *ComposeState {
	return &ComposeState{
		OAD:         meterble.CmdConnectMeter.String(),
		ConnectForm: "legacy",
		TestForm:    "index",
		MeterNo:     "1",
		Pulse:       "ACTIVE",
		Mode:        "NORMAL",
		Baud:        "9600",
	}
}

// ComposeForm builds the interactive form. Groups that do not apply to the
// selected command are hidden.
func ComposeForm(s *ComposeState) *huh.Form {
	commandOptions := make([]huh.Option[string], 0, 9)
	for _, spec := range meterble.Commands() {
		commandOptions = append(commandOptions, huh.NewOption(fmt.Sprintf("%s (0x%02X)", spec.Name, spec.Code), spec.Name))
	}

	is := func(names ...string) func() bool {
		return func() bool {
			for _, n := range names {
				if s.OAD == n {
					return false
				}
			}
			return true
		}
	}
	connect := meterble.CmdConnectMeter.String()
	tests := []string{meterble.CmdMeterTest.String(), meterble.CmdConvTest.String()}

	commandGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Command").
			Description("Request to encode.").
			Key("oad").
			Options(commandOptions...).
			Value(&s.OAD),
	)

	connectFormGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Address form").
			Key("connect_form").
			Options(
				huh.NewOption("Legacy 6-byte address", "legacy"),
				huh.NewOption("BLE barcode + display address", "ble"),
			).
			Value(&s.ConnectForm),
	).WithHideFunc(is(connect))

	legacyGroup := huh.NewGroup(
		huh.NewInput().
			Title("Meter address").
			Description("12 hex digits, e.g. 112233445566.").
			Key("addr").
			Value(&s.Addr).
			Validate(func(v string) error {
				_, err := meterble.AddrToLE(v)
				return err
			}),
	).WithHideFunc(func() bool { return s.OAD != connect || s.ConnectForm != "legacy" })

	bleGroup := huh.NewGroup(
		huh.NewInput().
			Title("Barcode").
			Description("At least 13 characters; the address is taken from the 12 before the check digit.").
			Key("barcode").
			Value(&s.BarCode).
			Validate(func(v string) error {
				_, err := meterble.BarcodeAddr(v)
				return err
			}),
		huh.NewInput().
			Title("Display address").
			Description("6 alphanumeric characters.").
			Key("addr_ascii6").
			CharLimit(6).
			Value(&s.AddrASCII6),
	).WithHideFunc(func() bool { return s.OAD != connect || s.ConnectForm != "ble" })

	testFormGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Payload form").
			Key("test_form").
			Options(
				huh.NewOption("Meter index (8 bytes)", "index"),
				huh.NewOption("Legacy (4 bytes)", "legacy"),
				huh.NewOption("itemContent expression", "items"),
			).
			Value(&s.TestForm),
	).WithHideFunc(is(tests...))

	itemsGroup := huh.NewGroup(
		huh.NewInput().
			Title("itemContent").
			Description("Segments separated by |, e.g. 01|06|0x0102:2@be.").
			Key("item_content").
			Value(&s.ItemContent).
			Validate(func(v string) error {
				_, err := meterble.ParseItemContent(v)
				return err
			}),
	).WithHideFunc(func() bool { return is(tests...)() || s.TestForm != "items" })

	fieldsGroup := huh.NewGroup(
		huh.NewInput().
			Title("Meter number").
			Description("Position on the bench (index form only).").
			Key("meter_no").
			Value(&s.MeterNo),
		huh.NewInput().
			Title("Slot").
			Description("Blank for the default.").
			Key("slot").
			Value(&s.Slot),
		huh.NewSelect[string]().
			Title("Pulse").
			Key("pulse").
			Options(huh.NewOptions(meterble.PulseNames()...)...).
			Value(&s.Pulse),
		huh.NewInput().
			Title("Power").
			Description("Blank for the default.").
			Key("power").
			Value(&s.Power),
		huh.NewSelect[string]().
			Title("Mode").
			Key("mode").
			Options(huh.NewOptions(meterble.ModeNames()...)...).
			Value(&s.Mode),
	).WithHideFunc(func() bool { return is(tests...)() || s.TestForm == "items" })

	baudGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Baud rate").
			Key("baud").
			Options(huh.NewOptions(meterble.BaudRates()...)...).
			Value(&s.Baud),
	).WithHideFunc(is(meterble.CmdSetBaud.String()))

	return huh.NewForm(commandGroup, connectFormGroup, legacyGroup, bleGroup, testFormGroup, itemsGroup, fieldsGroup, baudGroup)
}

// Request converts the form state into an EncodeRequest.
func (s *ComposeState) Request() (meterble.EncodeRequest, error) {
	req := meterble.EncodeRequest{OAD: s.OAD}
	switch s.OAD {
	case meterble.CmdConnectMeter.String():
		if s.ConnectForm == "ble" {
			req.BarCode = strings.TrimSpace(s.BarCode)
			req.AddrASCII6 = strings.TrimSpace(s.AddrASCII6)
		} else {
			req.Addr = strings.TrimSpace(s.Addr)
		}
	case meterble.CmdMeterTest.String(), meterble.CmdConvTest.String():
		if s.TestForm == "items" {
			req.ItemContent = s.ItemContent
			break
		}
		var err error
		if s.TestForm == "index" {
			if req.MeterNo, err = optionalInt("meterNo", s.MeterNo); err != nil {
				return req, err
			}
		}
		if req.Slot, err = optionalInt("slot", s.Slot); err != nil {
			return req, err
		}
		if req.Power, err = optionalInt("power", s.Power); err != nil {
			return req, err
		}
		if p := strings.TrimSpace(s.Pulse); p != "" {
			req.Pulse = meterble.ParseSymbol(p)
		}
		if m := strings.TrimSpace(s.Mode); m != "" {
			req.Mode = meterble.ParseSymbol(m)
		}
	case meterble.CmdSetBaud.String():
		req.Baud = meterble.ParseSymbol(s.Baud)
	}
	return req, nil
}

func optionalInt(field, text string) (*int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", field, text)
	}
	n := int(v)
	return &n, nil
}

// RunCompose shows the form and returns the composed request.
func RunCompose(opts ...tea.ProgramOption) (meterble.EncodeRequest, error) {
	state := NewComposeState()
	form := ComposeForm(state).WithProgramOptions(opts...)
	if err := form.Run(); err != nil {
		return meterble.EncodeRequest{}, err
	}
	return state.Request()
}
