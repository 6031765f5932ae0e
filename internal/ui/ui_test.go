package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/meterble"
)

func TestRenderDecodedResponse(t *testing.T) {
	d, err := meterble.DecodeString("7E7E7E5A0A8500010201677EA5")
	require.NoError(t, err)

	out := RenderDecoded(d, false)
	assert.Contains(t, out, "ver_mcu response (0x85)")
	assert.Contains(t, out, "V1.0")
	assert.Contains(t, out, "V1.2")
	assert.Contains(t, out, "0x00 OK")
	assert.NotContains(t, out, "addr")
}

func TestRenderDecodedRequest(t *testing.T) {
	frame, err := meterble.Encode(meterble.EncodeRequest{
		OAD:     "meter_test",
		MeterNo: func() *int { n := 2; return &n }(),
	})
	require.NoError(t, err)
	d, err := meterble.Decode(frame)
	require.NoError(t, err)

	out := RenderDecoded(d, false)
	assert.Contains(t, out, "meter_test request")
	assert.Contains(t, out, "0x06 ACTIVE")
	assert.Contains(t, out, "0x00 NORMAL")
	assert.Contains(t, out, "meterNo")

	frame[len(frame)-3] ^= 0xFF
	bad, err := meterble.Decode(frame)
	require.NoError(t, err)
	assert.Contains(t, RenderDecoded(bad, false), "checksum or length mismatch")
}

func TestRenderOutcome(t *testing.T) {
	d := &batch.Dispatcher{}
	enc := d.Dispatch(batch.NewEncodeRequest(meterble.EncodeRequest{OAD: "connect", Addr: "AABBCCDDEEFF"}))
	require.NoError(t, enc.Err)
	out := RenderOutcome(enc, false)
	assert.Contains(t, out, "7E 7E 7E 5A 0C 01 FF EE DD CC BB AA DC 7E A5")
	assert.Contains(t, out, "FF EE DD CC BB AA")

	dec := d.Dispatch(batch.NewDecodeRequest(batch.HexInput("7E7E7E5A0600DA7EA5"), batch.HexInput("7E7E7E5A0605DF7EA5")))
	require.NoError(t, dec.Err)
	out = RenderOutcome(dec, false)
	assert.Contains(t, out, "reset request")
	assert.Contains(t, out, "ver_mcu request")

	failed := batch.Outcome{Mode: batch.ModeDecode, Error: "boom", Err: errors.New("boom")}
	assert.Equal(t, "error: boom", RenderOutcome(failed, false))
}

func TestRenderSegments(t *testing.T) {
	segs, err := meterble.ItemSegments("12|09D0|0x01:2@be")
	require.NoError(t, err)
	out := RenderSegments(segs, false)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "#1")
	assert.Contains(t, lines[0], "12 ")
	assert.Contains(t, lines[1], "D0 09")
	assert.Contains(t, lines[2], "00 01")
	assert.Contains(t, lines[3], "12D0090001")
}

func TestComposeStateRequest(t *testing.T) {
	s := NewComposeState()
	s.Addr = "112233445566"
	req, err := s.Request()
	require.NoError(t, err)
	assert.Equal(t, "connect", req.OAD)
	assert.Equal(t, "112233445566", req.Addr)

	s.ConnectForm = "ble"
	s.BarCode = "0150000004998"
	s.AddrASCII6 = "000123"
	req, err = s.Request()
	require.NoError(t, err)
	assert.Empty(t, req.Addr)
	assert.Equal(t, "000123", req.AddrASCII6)

	s = NewComposeState()
	s.OAD = "conv_test"
	s.Slot = "2"
	req, err = s.Request()
	require.NoError(t, err)
	require.NotNil(t, req.MeterNo)
	assert.Equal(t, 1, *req.MeterNo)
	assert.Equal(t, 2, *req.Slot)
	_, err = meterble.Encode(req)
	require.NoError(t, err)

	s.TestForm = "legacy"
	req, err = s.Request()
	require.NoError(t, err)
	assert.Nil(t, req.MeterNo)
	_, payload, err := meterble.EncodePayload(req)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x06, 0x00, 0x00}, payload)

	s.Power = "x"
	_, err = s.Request()
	assert.Error(t, err)

	s = NewComposeState()
	s.OAD = "set_baud"
	s.Baud = "57600"
	req, err = s.Request()
	require.NoError(t, err)
	_, payload, err = meterble.EncodePayload(req)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05}, payload)
}

func TestComposeFormBuilds(t *testing.T) {
	assert.NotNil(t, ComposeForm(NewComposeState()))
}
