package batch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tturner/blecal/internal/meterble"
)

// Input is one frame to decode. It arrives as a hex string, an array of
// byte values, or a Node-RED buffer object {"type":"Buffer","data":[...]}.
// Hex text is kept as given and converted at dispatch time so that bad hex
// is reported on the outcome like any other codec failure.
type Input struct {
	Hex  string
	Data []byte
}

// HexInput wraps hex text.
func HexInput(s string) Input { return Input{Hex: s} }

// BytesInput wraps raw frame bytes.
func BytesInput(b []byte) Input {
	if b == nil {
		b = []byte{}
	}
	return Input{Data: b}
}

// Bytes returns the frame bytes.
func (in Input) Bytes() ([]byte, error) {
	if in.Data != nil {
		return in.Data, nil
	}
	return meterble.DecodeHex(in.Hex)
}

// String returns the input as hex text.
func (in Input) String() string {
	if in.Data != nil {
		return meterble.EncodeHex(in.Data)
	}
	return in.Hex
}

func (in Input) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.String())
}

func (in Input) MarshalYAML() (any, error) {
	return in.String(), nil
}

func (in *Input) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty frame input")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*in = HexInput(s)
		return nil
	case '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("frame byte array: %w", err)
		}
		return in.setValues(values)
	case '{':
		var buf struct {
			Type string `json:"type"`
			Data []int  `json:"data"`
		}
		if err := json.Unmarshal(data, &buf); err != nil {
			return fmt.Errorf("frame buffer object: %w", err)
		}
		if buf.Type != "Buffer" {
			return fmt.Errorf("frame object type %q (want Buffer)", buf.Type)
		}
		return in.setValues(buf.Data)
	default:
		return fmt.Errorf("frame input must be a hex string, byte array or Buffer object")
	}
}

func (in *Input) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*in = HexInput(node.Value)
		return nil
	case yaml.SequenceNode:
		var values []int
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("frame byte array: %w", err)
		}
		return in.setValues(values)
	case yaml.MappingNode:
		var buf struct {
			Type string `yaml:"type"`
			Data []int  `yaml:"data"`
		}
		if err := node.Decode(&buf); err != nil {
			return fmt.Errorf("frame buffer object: %w", err)
		}
		if buf.Type != "Buffer" {
			return fmt.Errorf("frame object type %q (want Buffer)", buf.Type)
		}
		return in.setValues(buf.Data)
	default:
		return fmt.Errorf("frame input must be a hex string, byte array or Buffer object")
	}
}

func (in *Input) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case string:
		*in = HexInput(t)
		return nil
	case []any:
		return in.setAny(t)
	case map[string]any:
		if t["type"] != "Buffer" {
			return fmt.Errorf("frame object type %v (want Buffer)", t["type"])
		}
		data, _ := t["data"].([]any)
		return in.setAny(data)
	default:
		return fmt.Errorf("frame input must be a hex string, byte array or Buffer table")
	}
}

func (in *Input) setAny(items []any) error {
	values := make([]int, len(items))
	for i, item := range items {
		n, ok := item.(int64)
		if !ok {
			return fmt.Errorf("frame byte %d: %v is not an integer", i, item)
		}
		values[i] = int(n)
	}
	return in.setValues(values)
}

func (in *Input) setValues(values []int) error {
	b := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("frame byte %d: %d out of range 0..255", i, v)
		}
		b[i] = byte(v)
	}
	*in = BytesInput(b)
	return nil
}
