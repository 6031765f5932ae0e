package meterble

// Frame build and parse.

import (
	"bytes"
	"fmt"
)

// Framing constants.
const (
	StartSize      = 4
	EndSize        = 2
	LengthBias     = 6 // L = LengthBias + len(DATA)
	dataOffset     = StartSize + 2
	MinFrameSize   = StartSize + 1 + 1 + 1 + EndSize // no DATA
	MaxPayloadSize = 0xFF - LengthBias               // L must fit one byte
)

var (
	startMarker = []byte{0x7E, 0x7E, 0x7E, 0x5A}
	endMarker   = []byte{0x7E, 0xA5}
)

// Frame is one parsed wire frame.
type Frame struct {
	Length   uint8  // L field as received
	Command  byte   // raw OAD, bit 7 set on responses
	Data     []byte // N = Length - 6 bytes
	Checksum byte   // CS as received
	// Valid is true when CS matches the recomputed sum and the frame length
	// agrees with L. A mismatch is reported here, not as an error.
	Valid bool
}

// IsResponse reports whether the OAD has the response bit set.
func (f *Frame) IsResponse() bool {
	return f.Command&ResponseFlag != 0
}

// Base returns the request command shared by a request and its response.
func (f *Frame) Base() Command {
	return Command(f.Command &^ ResponseFlag)
}

// Result returns the first data byte of a response frame.
func (f *Frame) Result() (ResultCode, bool) {
	if f.IsResponse() && len(f.Data) >= 1 {
		return ResultCode(f.Data[0]), true
	}
	return 0, false
}

// Bytes returns the wire form using the received L and CS values.
func (f *Frame) Bytes() []byte {
	buf := make([]byte, 0, MinFrameSize+len(f.Data))
	buf = append(buf, startMarker...)
	buf = append(buf, f.Length, f.Command)
	buf = append(buf, f.Data...)
	buf = append(buf, f.Checksum)
	return append(buf, endMarker...)
}

// Checksum returns the low byte of the sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// BuildFrame wraps payload in a complete frame for the given OAD.
func BuildFrame(oad byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (maximum %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	buf := make([]byte, 0, MinFrameSize+len(payload))
	buf = append(buf, startMarker...)
	buf = append(buf, byte(LengthBias+len(payload)), oad)
	buf = append(buf, payload...)
	buf = append(buf, Checksum(buf))
	return append(buf, endMarker...), nil
}

// ParseFrame validates markers and length and splits b into its fields.
//
// Validation order:
//  1. shorter than MinFrameSize
//  2. start marker
//  3. end marker
//  4. L below LengthBias
//
// A checksum mismatch, or an L that disagrees with the frame size, is not
// an error; it clears Frame.Valid.
func ParseFrame(b []byte) (*Frame, error) {
	if len(b) < MinFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrFrameTooShort, len(b), MinFrameSize)
	}
	if !bytes.Equal(b[:StartSize], startMarker) {
		return nil, fmt.Errorf("%w: % X", ErrBadStart, b[:StartSize])
	}
	if !bytes.Equal(b[len(b)-EndSize:], endMarker) {
		return nil, fmt.Errorf("%w: % X", ErrBadEnd, b[len(b)-EndSize:])
	}

	length := b[StartSize]
	if length < LengthBias {
		return nil, fmt.Errorf("%w: L=%d (minimum %d)", ErrBadLength, length, LengthBias)
	}
	csAt := dataOffset + int(length) - LengthBias
	if csAt >= len(b)-EndSize {
		// L overruns the frame; fall back to the markers for layout.
		csAt = len(b) - EndSize - 1
	}

	f := &Frame{
		Length:   length,
		Command:  b[StartSize+1],
		Data:     cloneBytes(b[dataOffset:csAt]),
		Checksum: b[csAt],
	}
	f.Valid = Checksum(b[:csAt]) == f.Checksum && len(b) == int(length)+3
	return f, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
