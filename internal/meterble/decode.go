package meterble

import (
	"bytes"
	"fmt"
)

// connectBLEPrefix marks the 12-byte connect payload sent by the BLE tooling.
var connectBLEPrefix = []byte{0x99, 0x04, 0x00, 0x00, 0x50, 0x01}

// Connect payload shapes reported in Decoded.ConnectFmt.
const (
	ConnectFmtBLE    = "12B(BLE)"
	ConnectFmtLegacy = "6B(LE)"
)

// Decoded is the structured view of one frame. Command-specific fields are
// populated only when the payload has a recognised shape.
type Decoded struct {
	OK      bool   `json:"ok" yaml:"ok"`
	Len     uint8  `json:"len" yaml:"len"`
	OADHex  string `json:"oadHex" yaml:"oadHex"`
	OADName string `json:"oadName,omitempty" yaml:"oadName,omitempty"`
	IsResp  bool   `json:"isResp" yaml:"isResp"`
	OADReq  uint8  `json:"oadReq" yaml:"oadReq"`
	DataHex string `json:"dataHex" yaml:"dataHex"`
	CSHex   string `json:"csHex" yaml:"csHex"`

	// responses
	Result       *uint8 `json:"result,omitempty" yaml:"result,omitempty"`
	ResultName   string `json:"resultName,omitempty" yaml:"resultName,omitempty"`
	HWVer        string `json:"hwVer,omitempty" yaml:"hwVer,omitempty"`
	SWVer        string `json:"swVer,omitempty" yaml:"swVer,omitempty"`
	PrepareState string `json:"prepareState,omitempty" yaml:"prepareState,omitempty"`

	// requests
	AddrASCII6 string `json:"addrAscii6,omitempty" yaml:"addrAscii6,omitempty"`
	ConnectFmt string `json:"connectFmt,omitempty" yaml:"connectFmt,omitempty"`
	Addr       string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Slot       *uint8 `json:"slot,omitempty" yaml:"slot,omitempty"`
	Pulse      *uint8 `json:"pulse,omitempty" yaml:"pulse,omitempty"`
	Power      *uint8 `json:"power,omitempty" yaml:"power,omitempty"`
	Mode       *uint8 `json:"mode,omitempty" yaml:"mode,omitempty"`
	MeterNo    *int   `json:"meterNo,omitempty" yaml:"meterNo,omitempty"`
	BaudCode   *uint8 `json:"baudCode,omitempty" yaml:"baudCode,omitempty"`
	Baud       string `json:"baud,omitempty" yaml:"baud,omitempty"`

	Frame *Frame `json:"-" yaml:"-"`
}

// Decode parses b and interprets its payload.
func Decode(b []byte) (*Decoded, error) {
	f, err := ParseFrame(b)
	if err != nil {
		return nil, err
	}
	return DecodeFrame(f), nil
}

// DecodeString decodes a hex-encoded frame. Whitespace is ignored.
func DecodeString(s string) (*Decoded, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// DecodeFrame interprets an already parsed frame. It never fails; payloads
// with unrecognised shapes leave the command-specific fields empty.
func DecodeFrame(f *Frame) *Decoded {
	base := f.Base()
	d := &Decoded{
		OK:      f.Valid,
		Len:     f.Length,
		OADHex:  fmt.Sprintf("0x%02x", f.Command),
		IsResp:  f.IsResponse(),
		OADReq:  uint8(base),
		DataHex: EncodeHex(f.Data),
		CSHex:   fmt.Sprintf("0x%02x", f.Checksum),
		Frame:   f,
	}
	if IsKnownCommand(base) {
		d.OADName = base.String()
	}
	if d.IsResp {
		decodeResponse(d, base, f.Data)
	} else {
		decodeRequest(d, base, f.Data)
	}
	return d
}

func decodeResponse(d *Decoded, base Command, data []byte) {
	if len(data) == 0 {
		return
	}
	result := data[0]
	d.Result = &result
	d.ResultName = ResultCode(result).String()

	switch base {
	case CmdReadMcuVersion, CmdReadBleVersion:
		if len(data) >= 4 {
			d.HWVer = versionString(data[0:2])
			d.SWVer = versionString(data[2:4])
		}
	case CmdPrepareQuery:
		d.PrepareState = PrepareState(result).String()
	}
}

func decodeRequest(d *Decoded, base Command, data []byte) {
	switch base {
	case CmdConnectMeter:
		switch {
		case len(data) == 12 && bytes.Equal(data[:6], connectBLEPrefix):
			d.AddrASCII6 = string(data[6:12])
			d.ConnectFmt = ConnectFmtBLE
		case len(data) == 6:
			d.Addr = AddrFromLE(data)
			d.ConnectFmt = ConnectFmtLegacy
		}
	case CmdMeterTest, CmdConvTest:
		if len(data) == 4 || len(data) == 8 {
			d.Slot, d.Pulse, d.Power, d.Mode = bytePtr(data[0]), bytePtr(data[1]), bytePtr(data[2]), bytePtr(data[3])
		}
		if len(data) == 8 {
			if n, ok := MeterNoFromTail(data[6:8]); ok {
				d.MeterNo = &n
			}
		}
	case CmdSetBaud:
		if len(data) >= 1 {
			d.BaudCode = bytePtr(data[0])
			d.Baud, _ = BaudRate(data[0])
		}
	}
}

// versionString renders a little-endian 16-bit version as V<hi>.<lo>.
func versionString(le []byte) string {
	return fmt.Sprintf("V%d.%d", le[1], le[0])
}

func bytePtr(b byte) *uint8 {
	return &b
}
