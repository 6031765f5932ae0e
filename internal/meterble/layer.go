package meterble

import (
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LayerTypeFrame identifies calibration-link frames to gopacket.
var LayerTypeFrame = gopacket.RegisterLayerType(1847, gopacket.LayerTypeMetadata{
	Name:    "MeterBLE",
	Decoder: gopacket.DecodeFunc(decodeFrameLayer),
})

// FrameLayer adapts Frame to gopacket so captures can be decoded and frames
// serialized with the usual gopacket tooling.
type FrameLayer struct {
	layers.BaseLayer
	Frame Frame
}

var (
	_ gopacket.DecodingLayer     = (*FrameLayer)(nil)
	_ gopacket.SerializableLayer = (*FrameLayer)(nil)
	_ gopacket.ApplicationLayer  = (*FrameLayer)(nil)
)

func (l *FrameLayer) LayerType() gopacket.LayerType { return LayerTypeFrame }

func (l *FrameLayer) CanDecode() gopacket.LayerClass { return LayerTypeFrame }

func (l *FrameLayer) NextLayerType() gopacket.LayerType { return gopacket.LayerTypeZero }

// Payload returns the DATA bytes.
func (l *FrameLayer) Payload() []byte { return l.Frame.Data }

// DecodeFromBytes parses one frame, flagging truncation through df.
func (l *FrameLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	f, err := ParseFrame(data)
	if err != nil {
		if errors.Is(err, ErrFrameTooShort) {
			df.SetTruncated()
		}
		return err
	}
	l.Frame = *f
	l.BaseLayer = layers.BaseLayer{Contents: data, Payload: f.Data}
	return nil
}

// SerializeTo writes the frame. FixLengths recomputes L and
// ComputeChecksums recomputes CS; otherwise the stored values are written.
func (l *FrameLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	n := len(l.Frame.Data)
	if n > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes (maximum %d)", ErrPayloadTooLarge, n, MaxPayloadSize)
	}
	if opts.FixLengths {
		l.Frame.Length = byte(LengthBias + n)
	}
	buf, err := b.PrependBytes(MinFrameSize + n)
	if err != nil {
		return err
	}
	copy(buf, startMarker)
	buf[StartSize] = l.Frame.Length
	buf[StartSize+1] = l.Frame.Command
	copy(buf[dataOffset:], l.Frame.Data)
	if opts.ComputeChecksums {
		l.Frame.Checksum = Checksum(buf[:dataOffset+n])
	}
	buf[dataOffset+n] = l.Frame.Checksum
	copy(buf[dataOffset+n+1:], endMarker)
	return nil
}

func decodeFrameLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &FrameLayer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	p.SetApplicationLayer(l)
	return nil
}

// NewFrameLayer returns a layer ready for serialization.
func NewFrameLayer(oad byte, data []byte) *FrameLayer {
	return &FrameLayer{Frame: Frame{Command: oad, Data: data}}
}
