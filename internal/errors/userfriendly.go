package errors

import (
	"fmt"
	"strings"

	"github.com/tturner/blecal/internal/meterble"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapEncodeError wraps request encoding errors with user-friendly context
func WrapEncodeError(err error, oad string) error {
	if err == nil {
		return nil
	}

	ufe := UserFriendlyError{
		Message: fmt.Sprintf("Failed to encode %q request", oad),
		Reason:  codecReason(err),
		Err:     err,
	}
	switch meterble.KindOf(err) {
	case meterble.KindUnknownCommand:
		ufe.Hint = "Command names are reset, connect, meter_test, conv_test, set_baud, ver_mcu, ver_ble, prepare, prepare_q"
		ufe.Try = "blecal commands"
	case meterble.KindInvalidParam:
		ufe.Hint = encodeHint(err)
		ufe.Try = fmt.Sprintf("blecal encode %s --help", oad)
	}
	return ufe
}

// WrapDecodeError wraps frame decoding errors with user-friendly context
func WrapDecodeError(err error, input string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to decode frame %s", abbreviate(input, 48)),
		Reason:  codecReason(err),
		Hint:    "Frames start with 7E 7E 7E 5A, end with 7E A5, and carry L = 6 + data length",
		Try:     "blecal decode --hex \"7E7E7E5A0600DA7EA5\"",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Keys may also be set through BLECAL_* environment variables",
		Try:     fmt.Sprintf("Regenerate a starting point: blecal config init --output %s", configPath),
		Err:     err,
	}
}

// WrapInputError wraps batch input file errors with user-friendly context
func WrapInputError(err error, path string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Cannot read batch request %s", path),
		Reason:  inputReason(err),
		Hint:    "Batch files hold {\"mode\": \"encode\"|\"decode\", \"payload\": object or list} as JSON, YAML or TOML",
		Try:     fmt.Sprintf("blecal batch --input %s --format json", path),
		Err:     err,
	}
}

func codecReason(err error) string {
	switch meterble.KindOf(err) {
	case meterble.KindMalformedFrame:
		return "Frame structure is malformed"
	case meterble.KindUnknownCommand:
		return "Command name is not recognised"
	case meterble.KindInvalidParam:
		return "A request parameter is missing or invalid"
	default:
		return "Codec error occurred"
	}
}

func encodeHint(err error) string {
	errStr := err.Error()

	// Common parameter mistakes
	if strings.Contains(errStr, "addrAscii6") || strings.Contains(errStr, "barCode") {
		return "The BLE connect form needs a 6-character alphanumeric addrAscii6 and a barcode of at least 13 characters"
	}
	if strings.Contains(errStr, "addr") {
		return "Meter addresses are 12 hex digits, e.g. 112233445566"
	}
	if strings.Contains(errStr, "itemContent") {
		return "itemContent segments look like 09D0, 0x0102:4@be or 5:2, separated by |"
	}
	if strings.Contains(errStr, "baud") {
		return "Supported rates are 2400, 4800, 9600, 19200, 38400 and 57600"
	}
	if strings.Contains(errStr, "pulse") || strings.Contains(errStr, "mode") {
		return "pulse and mode accept a name (ACTIVE, NORMAL) or a number from 0 to 255"
	}

	return "Check the request fields against the command table"
}

func inputReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "no such file") {
		return "File does not exist"
	}
	if strings.Contains(errStr, "permission denied") {
		return "File is not readable"
	}
	if strings.Contains(errStr, "mode") {
		return "Request mode must be encode or decode"
	}

	return "Request could not be parsed"
}

func abbreviate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
