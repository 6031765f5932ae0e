package meterble

import (
	"encoding/hex"
	"strings"
)

const (
	addrHexDigits   = 12
	barcodeTailSize = 13 // 12 address digits + 1 check digit
	meterTailBase   = 2492
	meterTailStep   = 20
)

// AddrToLE converts a 12-digit hex meter address to its 6-byte
// little-endian wire form. "000000000001" becomes 01 00 00 00 00 00.
func AddrToLE(addr string) ([]byte, error) {
	if len(addr) != addrHexDigits {
		return nil, invalidParam("addr", "must be %d hex digits, got %q", addrHexDigits, addr)
	}
	b, err := hex.DecodeString(addr)
	if err != nil {
		return nil, invalidParam("addr", "must be %d hex digits, got %q", addrHexDigits, addr)
	}
	reverse(b)
	return b, nil
}

// AddrFromLE renders 6 little-endian address bytes as uppercase big-endian hex.
func AddrFromLE(b []byte) string {
	out := cloneBytes(b)
	reverse(out)
	return strings.ToUpper(hex.EncodeToString(out))
}

// BarcodeAddr extracts the 12-digit address embedded in a meter barcode:
// the 12 characters immediately before the trailing check digit.
func BarcodeAddr(barCode string) (string, error) {
	if len(barCode) < barcodeTailSize {
		return "", invalidParam("barCode", "needs at least %d characters, got %d", barcodeTailSize, len(barCode))
	}
	start := len(barCode) - barcodeTailSize
	return barCode[start : start+addrHexDigits], nil
}

// MeterIndexTail returns the 2-byte little-endian tail appended to
// meterNo-form test payloads: 2492 + meterNo*20, truncated to 16 bits.
func MeterIndexTail(meterNo int) []byte {
	v := uint16(meterTailBase + meterNo*meterTailStep)
	return []byte{byte(v), byte(v >> 8)}
}

// MeterNoFromTail inverts MeterIndexTail for tails produced by a
// non-negative meter number that did not wrap.
func MeterNoFromTail(tail []byte) (int, bool) {
	if len(tail) != 2 {
		return 0, false
	}
	v := int(tail[0]) | int(tail[1])<<8
	if v < meterTailBase || (v-meterTailBase)%meterTailStep != 0 {
		return 0, false
	}
	return (v - meterTailBase) / meterTailStep, true
}

// DecodeHex parses a hex string, ignoring whitespace. Case is not significant.
func DecodeHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, invalidParam("hex", "%v", err)
	}
	return b, nil
}

// EncodeHex renders b as uppercase hex with no separators.
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
