package meterble

// Calibration-link protocol types.
//
// Frame layout (all multi-byte fields as written on the wire):
//
//	Start(7E 7E 7E 5A) L(1) OAD(1) DATA(N) CS(1) End(7E A5)
//
// L = 6 + N. CS is the low byte of the sum of Start through the last DATA byte.
// Response frames carry the request OAD with bit 7 set.

import (
	"fmt"
	"sort"
	"strings"
)

// Command is the one-byte operation code (OAD) of a frame.
type Command uint8

const (
	CmdReset          Command = 0x00 // Reset the converter
	CmdConnectMeter   Command = 0x01 // Connect to a meter by address
	CmdMeterTest      Command = 0x02 // Meter under test enters/switches calibration item
	CmdConvTest       Command = 0x03 // Converter enters/leaves calibration
	CmdSetBaud        Command = 0x04 // Set RS-485 baud rate
	CmdReadMcuVersion Command = 0x05 // Read management unit firmware version
	CmdReadBleVersion Command = 0x06 // Read Bluetooth module firmware version
	CmdPrepare        Command = 0x07 // Calibration pre-processing
	CmdPrepareQuery   Command = 0x08 // Query pre-processing state
)

// ResponseFlag is OR-ed into the OAD of response frames.
const ResponseFlag byte = 0x80

type commandInfo struct {
	name     string
	request  string
	response string
}

var commandTable = map[Command]commandInfo{
	CmdReset:          {"reset", "-", "1B result"},
	CmdConnectMeter:   {"connect", "6B LE BCD addr, or 6B LE BCD + 6B ASCII", "1B result"},
	CmdMeterTest:      {"meter_test", "4B, 6B+2B tail, or itemContent", "1B result"},
	CmdConvTest:       {"conv_test", "4B, 6B+2B tail, or itemContent", "1B result"},
	CmdSetBaud:        {"set_baud", "1B rate code", "1B result"},
	CmdReadMcuVersion: {"ver_mcu", "-", "4B: HW LE16, SW LE16"},
	CmdReadBleVersion: {"ver_ble", "-", "4B: HW LE16, SW LE16"},
	CmdPrepare:        {"prepare", "-", "1B result"},
	CmdPrepareQuery:   {"prepare_q", "-", "1B: 00 done, 01 failed, 02 in progress"},
}

var commandNames = func() map[string]Command {
	m := make(map[string]Command, len(commandTable))
	for c, info := range commandTable {
		m[info.name] = c
	}
	return m
}()

// String returns the wire name of the command ("connect", "set_baud", ...).
func (c Command) String() string {
	if info, ok := commandTable[c]; ok {
		return info.name
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(c))
}

// Response returns the OAD used by the response to c.
func (c Command) Response() byte {
	return byte(c) | ResponseFlag
}

// IsKnownCommand reports whether c is one of the defined operation codes.
func IsKnownCommand(c Command) bool {
	_, ok := commandTable[c]
	return ok
}

// LookupCommand resolves a wire name, case-insensitively.
func LookupCommand(name string) (Command, bool) {
	c, ok := commandNames[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// CommandSpec describes one row of the command table.
type CommandSpec struct {
	Name         string `json:"name" yaml:"name"`
	Code         uint8  `json:"code" yaml:"code"`
	ResponseCode uint8  `json:"responseCode" yaml:"responseCode"`
	Request      string `json:"request" yaml:"request"`
	Response     string `json:"response" yaml:"response"`
}

// Commands returns the command table ordered by code.
func Commands() []CommandSpec {
	out := make([]CommandSpec, 0, len(commandTable))
	for c, info := range commandTable {
		out = append(out, CommandSpec{
			Name:         info.name,
			Code:         uint8(c),
			ResponseCode: c.Response(),
			Request:      info.request,
			Response:     info.response,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ResultCode is the first data byte of most response frames.
type ResultCode uint8

const (
	ResultOK            ResultCode = 0x00
	ResultFailOrTimeout ResultCode = 0x01
	ResultBadParam      ResultCode = 0x02
	ResultAuthFail      ResultCode = 0x03
)

// String returns a human-readable name for the result code.
func (r ResultCode) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultFailOrTimeout:
		return "FAIL_OR_TIMEOUT"
	case ResultBadParam:
		return "BAD_PARAM"
	case ResultAuthFail:
		return "AUTH_FAIL"
	default:
		return "UNKNOWN"
	}
}

// PrepareState is the prepare_q response byte.
type PrepareState uint8

const (
	PrepareDone       PrepareState = 0x00
	PrepareFailed     PrepareState = 0x01
	PrepareInProgress PrepareState = 0x02
)

// String names the state; unknown values are "UNKNOWN".
func (s PrepareState) String() string {
	switch s {
	case PrepareDone:
		return "DONE"
	case PrepareFailed:
		return "FAILED"
	case PrepareInProgress:
		return "IN_PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// PulseType selects the quantity a calibration pulse train represents.
type PulseType uint8

const (
	PulseSec                   PulseType = 0x00
	PulseDemand                PulseType = 0x01
	PulseTariff                PulseType = 0x02
	PulseHarmonicActivePower   PulseType = 0x03
	PulseHarmonicReactivePower PulseType = 0x04
	PulseReactive              PulseType = 0x05
	PulseActive                PulseType = 0x06
	PulseExit                  PulseType = 0xFF
)

var pulseNames = map[string]PulseType{
	"SEC":      PulseSec,
	"DEMAND":   PulseDemand,
	"TARIFF":   PulseTariff,
	"HARMO_P":  PulseHarmonicActivePower,
	"HARMO_R":  PulseHarmonicReactivePower,
	"REACTIVE": PulseReactive,
	"ACTIVE":   PulseActive,
	"EXIT":     PulseExit,
}

// String returns the pulse name used in requests.
func (p PulseType) String() string {
	for name, v := range pulseNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("0x%02X", uint8(p))
}

// PulseNames lists the symbolic pulse names in code order.
func PulseNames() []string {
	return sortedNames(pulseNames)
}

// TestMode is the calibration communication mode.
type TestMode uint8

const (
	ModeNormal      TestMode = 0x00
	ModePulseFollow TestMode = 0x01
)

var modeNames = map[string]TestMode{
	"NORMAL": ModeNormal,
	"FOLLOW": ModePulseFollow,
}

// String returns the mode name used in requests.
func (m TestMode) String() string {
	for name, v := range modeNames {
		if v == m {
			return name
		}
	}
	return fmt.Sprintf("0x%02X", uint8(m))
}

// ModeNames lists the symbolic test mode names in code order.
func ModeNames() []string {
	return sortedNames(modeNames)
}

// RS-485 baud rate codes for set_baud.
var baudCodes = map[string]byte{
	"2400":  0x00,
	"4800":  0x01,
	"9600":  0x02,
	"19200": 0x03,
	"38400": 0x04,
	"57600": 0x05,
}

// BaudCode returns the set_baud code for a textual rate.
func BaudCode(rate string) (byte, bool) {
	code, ok := baudCodes[strings.TrimSpace(rate)]
	return code, ok
}

// BaudRate returns the textual rate for a set_baud code.
func BaudRate(code byte) (string, bool) {
	for rate, c := range baudCodes {
		if c == code {
			return rate, true
		}
	}
	return "", false
}

// BaudRates lists the supported rates in code order.
func BaudRates() []string {
	return sortedNames(baudCodes)
}

func sortedNames[T ~uint8](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })
	return names
}
