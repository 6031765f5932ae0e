package meterble

// itemContent: a small text DSL that produces raw payload bytes.
//
//	expr    = segment { "|" segment }
//	segment = value [ ":" width ] [ "@le" | "@be" ]
//	value   = hex digits (optional 0x prefix, "_" separators)
//
// Digit-only values are hex too: "10" is 0x10.

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Endian is the byte-order tag of a segment.
type Endian int

const (
	// EndianDefault applies the per-shape default: little-endian for
	// 2-byte and fixed-width values, document order for longer values.
	EndianDefault Endian = iota
	// LittleEndian is the "@le" tag.
	LittleEndian
	// BigEndian is the "@be" tag.
	BigEndian
)

// String returns "le", "be" or "default".
func (e Endian) String() string {
	switch e {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	default:
		return "default"
	}
}

// MarshalText encodes the tag as its String form in JSON and YAML.
func (e Endian) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

var (
	endianSuffix = regexp.MustCompile(`(?i)@(le|be)$`)
	widthSuffix  = regexp.MustCompile(`:(\d+)$`)
	hexToken     = regexp.MustCompile(`^[0-9A-F]+$`)
)

// Segment is one parsed itemContent segment and the bytes it packs to.
type Segment struct {
	Index  int    `json:"index" yaml:"index"`                     // 1-based position in the expression
	Source string `json:"source" yaml:"source"`                   // trimmed segment text
	Value  string `json:"value" yaml:"value"`                     // even-length uppercase hex after suffix removal
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"` // 0 when not given
	Endian Endian `json:"endian" yaml:"endian"`
	Bytes  []byte `json:"-" yaml:"-"`
}

// ParseItemContent converts an itemContent expression into payload bytes.
// Errors identify the failing segment by its 1-based index.
func ParseItemContent(expr string) ([]byte, error) {
	segs, err := ItemSegments(expr)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, invalidParam("itemContent", "%q has no segments", expr)
	}
	var out []byte
	for _, s := range segs {
		out = append(out, s.Bytes...)
	}
	return out, nil
}

// ItemSegments parses expr and returns every non-empty segment with its bytes.
func ItemSegments(expr string) ([]Segment, error) {
	var segs []Segment
	for i, raw := range strings.Split(expr, "|") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		seg, err := parseSegment(i+1, text)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseSegment(index int, text string) (Segment, error) {
	seg := Segment{Index: index, Source: text}
	field := fmt.Sprintf("itemContent segment %d", index)
	body := text

	if m := endianSuffix.FindStringSubmatch(body); m != nil {
		if strings.EqualFold(m[1], "be") {
			seg.Endian = BigEndian
		} else {
			seg.Endian = LittleEndian
		}
		body = body[:len(body)-len(m[0])]
	}
	if m := widthSuffix.FindStringSubmatch(body); m != nil {
		w, err := strconv.Atoi(m[1])
		if err != nil || w < 1 || w > MaxPayloadSize {
			return seg, invalidParam(field, "width %q must be 1..%d", m[1], MaxPayloadSize)
		}
		seg.Width = w
		body = body[:len(body)-len(m[0])]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return seg, invalidParam(field, "%q has no value", text)
	}

	seg.Value = normaliseHex(body)
	if !hexToken.MatchString(seg.Value) {
		return seg, invalidParam(field, "%q is not hex", text)
	}
	var err error
	seg.Bytes, err = hexBytes(seg.Value, seg.Width, seg.Endian)
	if err != nil {
		return seg, invalidParam(field, "%q: %v", text, err)
	}
	return seg, nil
}

// hexBytes encodes normalised, even-length hex digits.
func hexBytes(digits string, width int, endian Endian) ([]byte, error) {
	if width > 0 {
		v, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, fmt.Errorf("bad hex value")
		}
		return fixedWidth(v, width, endian == BigEndian), nil
	}

	groups, err := DecodeHex(digits)
	if err != nil {
		return nil, err
	}
	switch {
	case len(groups) == 1:
		return groups, nil
	case len(groups) == 2:
		// Two-byte values read as a 16-bit number, sent little-endian.
		if endian != BigEndian {
			reverse(groups)
		}
		return groups, nil
	default:
		if endian == LittleEndian {
			reverse(groups)
		}
		return groups, nil
	}
}

// fixedWidth writes the low width bytes of v.
func fixedWidth(v *big.Int, width int, bigEndian bool) []byte {
	src := v.Bytes()
	out := make([]byte, width)
	for i := 0; i < width && i < len(src); i++ {
		out[width-1-i] = src[len(src)-1-i]
	}
	if !bigEndian {
		reverse(out)
	}
	return out
}

func normaliseHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0X")
	s = strings.ReplaceAll(s, "_", "")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}
