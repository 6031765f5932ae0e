package meterble

import (
	"regexp"
	"strings"
)

// EncodeRequest names a command and its parameters. Field names follow the
// JSON objects exchanged with the calibration host.
type EncodeRequest struct {
	OAD string `json:"oad" yaml:"oad" toml:"oad"`

	// connect
	Addr       string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
	AddrASCII6 string `json:"addrAscii6,omitempty" yaml:"addrAscii6,omitempty" toml:"addrAscii6,omitempty"`
	BarCode    string `json:"barCode,omitempty" yaml:"barCode,omitempty" toml:"barCode,omitempty"`

	// meter_test / conv_test
	ItemContent string  `json:"itemContent,omitempty" yaml:"itemContent,omitempty" toml:"itemContent,omitempty"`
	MeterNo     *int    `json:"meterNo,omitempty" yaml:"meterNo,omitempty" toml:"meterNo,omitempty"`
	Slot        *int    `json:"slot,omitempty" yaml:"slot,omitempty" toml:"slot,omitempty"`
	Pulse       *Symbol `json:"pulse,omitempty" yaml:"pulse,omitempty" toml:"pulse,omitempty"`
	Power       *int    `json:"power,omitempty" yaml:"power,omitempty" toml:"power,omitempty"`
	Mode        *Symbol `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`
	RFU1        *int    `json:"rfu1,omitempty" yaml:"rfu1,omitempty" toml:"rfu1,omitempty"`
	RFU2        *int    `json:"rfu2,omitempty" yaml:"rfu2,omitempty" toml:"rfu2,omitempty"`

	// set_baud
	Baud *Symbol `json:"baud,omitempty" yaml:"baud,omitempty" toml:"baud,omitempty"`
}

// Defaults for the meter-index (8-byte) test payload.
const (
	defaultSlot  = 1
	defaultPower = 1
	defaultRFU   = 1
)

// Legacy 4-byte test payload defaults.
const legacyDefaultPower = 0

var asciiAddr = regexp.MustCompile(`^[0-9A-Za-z]{6}$`)

// Encode builds the complete request frame for req.
func Encode(req EncodeRequest) ([]byte, error) {
	cmd, payload, err := EncodePayload(req)
	if err != nil {
		return nil, err
	}
	frame, err := BuildFrame(byte(cmd), payload)
	if err != nil {
		return nil, &EncodeError{Command: cmd.String(), Err: err}
	}
	return frame, nil
}

// EncodePayload resolves the command and builds its DATA bytes.
func EncodePayload(req EncodeRequest) (Command, []byte, error) {
	cmd, ok := LookupCommand(req.OAD)
	if !ok {
		return 0, nil, &EncodeError{Command: req.OAD, Err: ErrUnknownCommand}
	}

	var (
		payload []byte
		err     error
	)
	switch cmd {
	case CmdConnectMeter:
		payload, err = encodeConnect(req)
	case CmdMeterTest, CmdConvTest:
		payload, err = encodeTest(req)
	case CmdSetBaud:
		payload, err = encodeBaud(req)
	default:
		// reset, ver_mcu, ver_ble, prepare, prepare_q carry no data.
		payload = []byte{}
	}
	if err != nil {
		return cmd, nil, &EncodeError{Command: cmd.String(), Err: err}
	}
	return cmd, payload, nil
}

// encodeConnect builds either the 12-byte BLE form (barcode address + ASCII
// display address) or the 6-byte legacy form.
func encodeConnect(req EncodeRequest) ([]byte, error) {
	ascii := strings.TrimSpace(req.AddrASCII6)
	barCode := strings.TrimSpace(req.BarCode)
	if ascii != "" && barCode != "" {
		if !asciiAddr.MatchString(ascii) {
			return nil, invalidParam("addrAscii6", "must be 6 letters or digits, got %q", ascii)
		}
		addr, err := BarcodeAddr(barCode)
		if err != nil {
			return nil, err
		}
		head, err := AddrToLE(addr)
		if err != nil {
			return nil, invalidParam("barCode", "embedded address %q is not 12 hex digits", addr)
		}
		return append(head, ascii...), nil
	}

	addr := strings.TrimSpace(req.Addr)
	if addr == "" {
		return nil, invalidParam("addr", "connect needs addr, or addrAscii6 with barCode")
	}
	return AddrToLE(addr)
}

func encodeTest(req EncodeRequest) ([]byte, error) {
	if strings.TrimSpace(req.ItemContent) != "" {
		return ParseItemContent(req.ItemContent)
	}
	if req.MeterNo != nil {
		return encodeMeterIndexTest(req)
	}
	return encodeLegacyTest(req)
}

func encodeMeterIndexTest(req EncodeRequest) ([]byte, error) {
	slot, err := byteField("slot", req.Slot, defaultSlot)
	if err != nil {
		return nil, err
	}
	pulse := byte(PulseActive)
	if isSet(req.Pulse) {
		if pulse, err = resolveSymbol("pulse", req.Pulse, pulseNames); err != nil {
			return nil, err
		}
	}
	power, err := byteField("power", req.Power, defaultPower)
	if err != nil {
		return nil, err
	}
	mode := byte(ModeNormal)
	if isSet(req.Mode) {
		if mode, err = resolveSymbol("mode", req.Mode, modeNames); err != nil {
			return nil, err
		}
	}
	rfu1, err := byteField("rfu1", req.RFU1, defaultRFU)
	if err != nil {
		return nil, err
	}
	rfu2, err := byteField("rfu2", req.RFU2, defaultRFU)
	if err != nil {
		return nil, err
	}

	payload := []byte{slot, pulse, power, mode, rfu1, rfu2}
	return append(payload, MeterIndexTail(*req.MeterNo)...), nil
}

func encodeLegacyTest(req EncodeRequest) ([]byte, error) {
	if !isSet(req.Pulse) {
		return nil, invalidParam("pulse", "required when neither itemContent nor meterNo is given")
	}
	if !isSet(req.Mode) {
		return nil, invalidParam("mode", "required when neither itemContent nor meterNo is given")
	}
	slot, err := byteField("slot", req.Slot, defaultSlot)
	if err != nil {
		return nil, err
	}
	pulse, err := resolveSymbol("pulse", req.Pulse, pulseNames)
	if err != nil {
		return nil, err
	}
	power, err := byteField("power", req.Power, legacyDefaultPower)
	if err != nil {
		return nil, err
	}
	mode, err := resolveSymbol("mode", req.Mode, modeNames)
	if err != nil {
		return nil, err
	}
	return []byte{slot, pulse, power, mode}, nil
}

func encodeBaud(req EncodeRequest) ([]byte, error) {
	if !isSet(req.Baud) {
		return nil, invalidParam("baud", "required, one of %s", strings.Join(BaudRates(), ", "))
	}
	code, ok := BaudCode(req.Baud.String())
	if !ok {
		return nil, invalidParam("baud", "unsupported rate %q, want one of %s", req.Baud.String(), strings.Join(BaudRates(), ", "))
	}
	return []byte{code}, nil
}

func byteField(field string, v *int, def byte) (byte, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 || *v > 0xFF {
		return 0, invalidParam(field, "%d out of range 0..255", *v)
	}
	return byte(*v), nil
}

func isSet(s *Symbol) bool {
	return s != nil && (s.Numeric || strings.TrimSpace(s.Name) != "")
}
