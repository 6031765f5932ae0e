package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	blecalErrors "github.com/tturner/blecal/internal/errors"
	"github.com/tturner/blecal/internal/meterble"
)

// Mode selects the direction of a batch request
type Mode string

const (
	ModeEncode Mode = "encode"
	ModeDecode Mode = "decode"
)

// Format identifies the envelope encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml, yml and toml (case-insensitive).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml or toml)", name)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// Request is one batch envelope. Exactly one of Encode or Decode is filled,
// according to Mode; List records whether the payload was an array.
type Request struct {
	ID     string
	Mode   Mode
	List   bool
	Encode []meterble.EncodeRequest
	Decode []Input
}

// NewEncodeRequest wraps a single encode item.
func NewEncodeRequest(item meterble.EncodeRequest) *Request {
	return &Request{ID: uuid.NewString(), Mode: ModeEncode, Encode: []meterble.EncodeRequest{item}}
}

// NewDecodeRequest wraps one or more frames for decoding.
func NewDecodeRequest(inputs ...Input) *Request {
	return &Request{ID: uuid.NewString(), Mode: ModeDecode, List: len(inputs) != 1, Decode: inputs}
}

type jsonEnvelope struct {
	ID      string          `json:"id"`
	Mode    string          `json:"mode"`
	Payload json.RawMessage `json:"payload"`
}

type yamlEnvelope struct {
	ID      string    `yaml:"id"`
	Mode    string    `yaml:"mode"`
	Payload yaml.Node `yaml:"payload"`
}

type tomlEnvelope struct {
	ID      string         `toml:"id"`
	Mode    string         `toml:"mode"`
	Payload toml.Primitive `toml:"payload"`
}

// Parse decodes an envelope {id, mode, payload}. The payload is only parsed
// for the encode and decode modes; any other mode is left for Dispatch to
// reject so the failure surfaces on the outcome.
func Parse(data []byte, format Format) (*Request, error) {
	var (
		req *Request
		err error
	)
	switch format {
	case FormatJSON, "":
		req, err = parseJSON(data)
	case FormatYAML:
		req, err = parseYAML(data)
	case FormatTOML:
		req, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// LoadFile reads and parses an envelope file. An empty format is inferred
// from the file extension.
func LoadFile(path string, format Format) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, blecalErrors.WrapInputError(err, path)
	}
	if format == "" {
		format = FormatFromPath(path)
	}
	req, err := Parse(data, format)
	if err != nil {
		return nil, blecalErrors.WrapInputError(err, path)
	}
	return req, nil
}

func normaliseMode(s string) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(s)))
}

func parseJSON(data []byte) (*Request, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse JSON envelope: %w", err)
	}
	req := &Request{ID: env.ID, Mode: normaliseMode(env.Mode)}
	if req.Mode != ModeEncode && req.Mode != ModeDecode {
		return req, nil
	}
	raw := bytes.TrimSpace(env.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("payload is required")
	}
	req.List = raw[0] == '['

	var err error
	switch {
	case req.Mode == ModeEncode && req.List:
		err = json.Unmarshal(raw, &req.Encode)
	case req.Mode == ModeEncode:
		var item meterble.EncodeRequest
		err = json.Unmarshal(raw, &item)
		req.Encode = []meterble.EncodeRequest{item}
	case req.List:
		err = json.Unmarshal(raw, &req.Decode)
	default:
		var in Input
		err = json.Unmarshal(raw, &in)
		req.Decode = []Input{in}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", req.Mode, err)
	}
	return req, nil
}

func parseYAML(data []byte) (*Request, error) {
	var env yamlEnvelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse YAML envelope: %w", err)
	}
	req := &Request{ID: env.ID, Mode: normaliseMode(env.Mode)}
	if req.Mode != ModeEncode && req.Mode != ModeDecode {
		return req, nil
	}
	node := &env.Payload
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, fmt.Errorf("payload is required")
	}
	req.List = node.Kind == yaml.SequenceNode

	var err error
	switch {
	case req.Mode == ModeEncode && req.List:
		err = node.Decode(&req.Encode)
	case req.Mode == ModeEncode:
		var item meterble.EncodeRequest
		err = node.Decode(&item)
		req.Encode = []meterble.EncodeRequest{item}
	case req.List:
		err = node.Decode(&req.Decode)
	default:
		var in Input
		err = node.Decode(&in)
		req.Decode = []Input{in}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", req.Mode, err)
	}
	return req, nil
}

func parseTOML(data []byte) (*Request, error) {
	var env tomlEnvelope
	md, err := toml.Decode(string(data), &env)
	if err != nil {
		return nil, fmt.Errorf("parse TOML envelope: %w", err)
	}
	req := &Request{ID: env.ID, Mode: normaliseMode(env.Mode)}
	if req.Mode != ModeEncode && req.Mode != ModeDecode {
		return req, nil
	}
	if !md.IsDefined("payload") {
		return nil, fmt.Errorf("payload is required")
	}

	var shape any
	if err := md.PrimitiveDecode(env.Payload, &shape); err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", req.Mode, err)
	}
	switch shape.(type) {
	case []any, []map[string]any:
		req.List = true
	}

	switch {
	case req.Mode == ModeEncode && req.List:
		err = md.PrimitiveDecode(env.Payload, &req.Encode)
	case req.Mode == ModeEncode:
		var item meterble.EncodeRequest
		err = md.PrimitiveDecode(env.Payload, &item)
		req.Encode = []meterble.EncodeRequest{item}
	case req.List:
		err = md.PrimitiveDecode(env.Payload, &req.Decode)
	default:
		var in Input
		err = md.PrimitiveDecode(env.Payload, &in)
		req.Decode = []Input{in}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", req.Mode, err)
	}
	return req, nil
}
