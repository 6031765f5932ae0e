package meterble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemContent(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []byte
	}{
		// hex, no width
		{"hex one digit", "A", []byte{0x0A}},
		{"hex two digits", "FF", []byte{0xFF}},
		{"hex four digits default little-endian", "09D0", []byte{0xD0, 0x09}},
		{"hex four digits big-endian", "09D0@be", []byte{0x09, 0xD0}},
		{"hex four digits explicit little-endian", "09D0@LE", []byte{0xD0, 0x09}},
		{"hex three digits padded to four", "9D0", []byte{0xD0, 0x09}},
		{"hex long default big-endian", "01020304050A", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x0A}},
		{"hex long little-endian", "01020304050A@le", []byte{0x0A, 0x05, 0x04, 0x03, 0x02, 0x01}},
		{"hex long big-endian tag", "0A0B0C@BE", []byte{0x0A, 0x0B, 0x0C}},
		{"hex five digits padded", "1ABCD", []byte{0x01, 0xAB, 0xCD}},
		{"hex prefix", "0x1F", []byte{0x1F}},
		{"hex separators", "0xAB_CD_EF", []byte{0xAB, 0xCD, 0xEF}},
		{"hex lower case", "beef", []byte{0xEF, 0xBE}},

		// hex with width
		{"hex width little-endian", "ABCD:4", []byte{0xCD, 0xAB, 0x00, 0x00}},
		{"hex width big-endian", "ABCD:4@be", []byte{0x00, 0x00, 0xAB, 0xCD}},
		{"hex width truncates", "0x123456:2", []byte{0x56, 0x34}},
		{"hex width one", "1F:1", []byte{0x1F}},
		{"hex wide value", "0x0102030405060708090A:10@be", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}},

		// digit-only tokens are hex
		{"digits one byte", "10", []byte{0x10}},
		{"digits zero", "0", []byte{0x00}},
		{"digits three padded to four", "255", []byte{0x55, 0x02}},
		{"digits four default little-endian", "0100", []byte{0x00, 0x01}},
		{"digits four big-endian", "0100@be", []byte{0x01, 0x00}},
		{"digits long default big-endian", "010203040506", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
		{"digits long little-endian", "010203040506@le", []byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
		{"digits six", "123456", []byte{0x12, 0x34, 0x56}},
		{"digits width little-endian", "5:2", []byte{0x05, 0x00}},
		{"digits width big-endian", "5:2@be", []byte{0x00, 0x05}},
		{"digits width reads hex", "2492:2", []byte{0x92, 0x24}},
		{"digits width four", "10000:4", []byte{0x00, 0x00, 0x01, 0x00}},

		// segments
		{"multiple segments", "01|06|01|00|01|01|09D0", []byte{0x01, 0x06, 0x01, 0x00, 0x01, 0x01, 0xD0, 0x09}},
		{"multiple segments digit tokens", "01|06|10|00|01|01|09D0", []byte{0x01, 0x06, 0x10, 0x00, 0x01, 0x01, 0xD0, 0x09}},
		{"whitespace and empty segments", " 1 || 0x02 |  | 09D0@be ", []byte{0x01, 0x02, 0x09, 0xD0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemContent(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseItemContentErrors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		segment string
	}{
		{"not hex with digits", "12|3G", "segment 2"},
		{"not hex", "01|XYZ", "segment 2"},
		{"zero width", "1|2|5:0", "segment 3"},
		{"width too large", "5:300", "segment 1"},
		{"tag only", "@be", "segment 1"},
		{"width only", ":2", "segment 1"},
		{"tag before width", "5@be:2", "segment 1"},
		{"empty prefix", "0x", "segment 1"},
		{"no segments", " | ", "itemContent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItemContent(tt.expr)
			require.ErrorIs(t, err, ErrInvalidParam)
			assert.Contains(t, err.Error(), tt.segment)
		})
	}
}

func TestItemSegments(t *testing.T) {
	segs, err := ItemSegments("5:2@be| |0x09D0")
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, 1, segs[0].Index)
	assert.Equal(t, "05", segs[0].Value)
	assert.Equal(t, 2, segs[0].Width)
	assert.Equal(t, BigEndian, segs[0].Endian)
	assert.Equal(t, []byte{0x00, 0x05}, segs[0].Bytes)

	assert.Equal(t, 3, segs[1].Index)
	assert.Equal(t, "09D0", segs[1].Value)
	assert.Equal(t, EndianDefault, segs[1].Endian)
	assert.Equal(t, []byte{0xD0, 0x09}, segs[1].Bytes)
}
