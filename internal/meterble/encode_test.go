package meterble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestAddrToLE(t *testing.T) {
	b, err := AddrToLE("112233445566")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, b)
	assert.Equal(t, "112233445566", AddrFromLE(b))

	b, err = AddrToLE("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "AABBCCDDEEFF", AddrFromLE(b))

	for _, bad := range []string{"", "11223344556", "1122334455667", "11223344556G"} {
		_, err := AddrToLE(bad)
		assert.ErrorIs(t, err, ErrInvalidParam, bad)
	}
}

func TestBarcodeAddr(t *testing.T) {
	addr, err := BarcodeAddr("XX0000123456789")
	require.NoError(t, err)
	assert.Equal(t, "000012345678", addr)

	addr, err = BarcodeAddr("1122334455667")
	require.NoError(t, err)
	assert.Equal(t, "112233445566", addr)

	_, err = BarcodeAddr("112233445566")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestMeterIndexTail(t *testing.T) {
	assert.Equal(t, []byte{0xBC, 0x09}, MeterIndexTail(0))
	assert.Equal(t, []byte{0xD0, 0x09}, MeterIndexTail(1))
	// 2492 + 3152*20 = 65532
	assert.Equal(t, []byte{0xFC, 0xFF}, MeterIndexTail(3152))
	// wraps modulo 65536
	assert.Equal(t, []byte{0x10, 0x00}, MeterIndexTail(3153))

	n, ok := MeterNoFromTail([]byte{0xD0, 0x09})
	require.True(t, ok)
	assert.Equal(t, 1, n)
	_, ok = MeterNoFromTail([]byte{0xD1, 0x09})
	assert.False(t, ok)
}

func TestEncodeConnectLegacy(t *testing.T) {
	raw, err := Encode(EncodeRequest{OAD: "connect", Addr: "AABBCCDDEEFF"})
	require.NoError(t, err)
	want := []byte{0x7E, 0x7E, 0x7E, 0x5A, 0x0C, 0x01, 0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA, 0xDC, 0x7E, 0xA5}
	assert.Equal(t, want, raw)

	d, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, d.OK)
	assert.Equal(t, "AABBCCDDEEFF", d.Addr)
	assert.Equal(t, ConnectFmtLegacy, d.ConnectFmt)
}

func TestEncodeConnectBLE(t *testing.T) {
	// barcode address 000050000499 reversed is 99 04 00 50 00 00
	_, payload, err := EncodePayload(EncodeRequest{
		OAD:        "connect",
		AddrASCII6: "A1B2C3",
		BarCode:    "ZZ0000500004997",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x99, 0x04, 0x00, 0x50, 0x00, 0x00, 'A', '1', 'B', '2', 'C', '3'}, payload)

	// The BLE prefix 99 04 00 00 50 01 comes from address 015000000499.
	raw, err := Encode(EncodeRequest{OAD: "connect", AddrASCII6: "000123", BarCode: "0150000004998"})
	require.NoError(t, err)
	d, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "000123", d.AddrASCII6)
	assert.Equal(t, ConnectFmtBLE, d.ConnectFmt)
	assert.Empty(t, d.Addr)
}

func TestEncodeConnectErrors(t *testing.T) {
	tests := []struct {
		name string
		req  EncodeRequest
	}{
		{"nothing", EncodeRequest{OAD: "connect"}},
		{"ascii without barcode", EncodeRequest{OAD: "connect", AddrASCII6: "ABC123"}},
		{"bad ascii", EncodeRequest{OAD: "connect", AddrASCII6: "AB-123", BarCode: "0150000004998"}},
		{"short barcode", EncodeRequest{OAD: "connect", AddrASCII6: "ABC123", BarCode: "015000000499"}},
		{"non-hex barcode", EncodeRequest{OAD: "connect", AddrASCII6: "ABC123", BarCode: "01500000049Z8"}},
		{"short addr", EncodeRequest{OAD: "connect", Addr: "AABBCC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.req)
			require.ErrorIs(t, err, ErrInvalidParam)
			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, "connect", encErr.Command)
		})
	}
}

func TestEncodeTestTiers(t *testing.T) {
	tests := []struct {
		name string
		req  EncodeRequest
		want []byte
	}{
		{
			name: "itemContent wins",
			req:  EncodeRequest{OAD: "meter_test", ItemContent: "01|02", MeterNo: intPtr(3), Pulse: Named("ACTIVE")},
			want: []byte{0x01, 0x02},
		},
		{
			name: "meterNo defaults",
			req:  EncodeRequest{OAD: "meter_test", MeterNo: intPtr(0)},
			want: []byte{0x01, 0x06, 0x01, 0x00, 0x01, 0x01, 0xBC, 0x09},
		},
		{
			name: "meterNo overrides",
			req: EncodeRequest{
				OAD: "conv_test", MeterNo: intPtr(1), Slot: intPtr(3), Pulse: Named("reactive"),
				Power: intPtr(2), Mode: Named("FOLLOW"), RFU1: intPtr(0), RFU2: intPtr(9),
			},
			want: []byte{0x03, 0x05, 0x02, 0x01, 0x00, 0x09, 0xD0, 0x09},
		},
		{
			name: "meterNo numeric pulse",
			req:  EncodeRequest{OAD: "meter_test", MeterNo: intPtr(0), Pulse: Number(0xFF), Mode: Number(1)},
			want: []byte{0x01, 0xFF, 0x01, 0x01, 0x01, 0x01, 0xBC, 0x09},
		},
		{
			name: "legacy",
			req:  EncodeRequest{OAD: "meter_test", Pulse: Named("EXIT"), Mode: Named("normal")},
			want: []byte{0x01, 0xFF, 0x00, 0x00},
		},
		{
			name: "legacy explicit",
			req:  EncodeRequest{OAD: "conv_test", Slot: intPtr(2), Pulse: Number(3), Power: intPtr(1), Mode: Number(1)},
			want: []byte{0x02, 0x03, 0x01, 0x01},
		},
		{
			name: "legacy numeric text",
			req:  EncodeRequest{OAD: "meter_test", Pulse: Named("6"), Mode: Named("0")},
			want: []byte{0x01, 0x06, 0x00, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, payload, err := EncodePayload(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestEncodeTestErrors(t *testing.T) {
	tests := []struct {
		name string
		req  EncodeRequest
	}{
		{"legacy missing pulse", EncodeRequest{OAD: "meter_test", Mode: Named("NORMAL")}},
		{"legacy missing mode", EncodeRequest{OAD: "meter_test", Pulse: Named("ACTIVE")}},
		{"legacy blank pulse", EncodeRequest{OAD: "meter_test", Pulse: Named(" "), Mode: Named("NORMAL")}},
		{"unknown pulse", EncodeRequest{OAD: "meter_test", MeterNo: intPtr(0), Pulse: Named("VOLTS")}},
		{"unknown mode", EncodeRequest{OAD: "conv_test", Pulse: Named("SEC"), Mode: Named("FAST")}},
		{"slot out of range", EncodeRequest{OAD: "meter_test", MeterNo: intPtr(0), Slot: intPtr(256)}},
		{"negative power", EncodeRequest{OAD: "meter_test", Pulse: Number(1), Mode: Number(0), Power: intPtr(-1)}},
		{"pulse out of range", EncodeRequest{OAD: "meter_test", Pulse: Number(300), Mode: Number(0)}},
		{"bad itemContent", EncodeRequest{OAD: "meter_test", ItemContent: "ZZ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.req)
			require.ErrorIs(t, err, ErrInvalidParam)
			assert.Equal(t, KindInvalidParam, KindOf(err))
		})
	}
}

func TestEncodeSetBaud(t *testing.T) {
	raw, err := Encode(EncodeRequest{OAD: "set_baud", Baud: Named("38400")})
	require.NoError(t, err)
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04}, f.Data)

	_, payload, err := EncodePayload(EncodeRequest{OAD: "SET_BAUD", Baud: Number(2400)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, payload)

	raw, err = Encode(EncodeRequest{OAD: "set_baud", Baud: Named("115200")})
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Nil(t, raw)

	_, err = Encode(EncodeRequest{OAD: "set_baud"})
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestEncodeEmptyPayloadCommands(t *testing.T) {
	for _, name := range []string{"reset", "ver_mcu", "ver_ble", "prepare", "prepare_q"} {
		cmd, payload, err := EncodePayload(EncodeRequest{OAD: name})
		require.NoError(t, err, name)
		assert.Empty(t, payload, name)
		assert.Equal(t, name, cmd.String())

		raw, err := Encode(EncodeRequest{OAD: name})
		require.NoError(t, err)
		assert.Len(t, raw, MinFrameSize)
	}
}

func TestEncodeUnknownCommand(t *testing.T) {
	_, err := Encode(EncodeRequest{OAD: "reboot"})
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, KindUnknownCommand, KindOf(err))
	assert.Contains(t, err.Error(), "reboot")
}
