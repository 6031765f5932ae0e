package meterble

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Symbol is a request field given either by name ("ACTIVE") or by number (6).
// Requests arrive as JSON, YAML or TOML, and all three forms are accepted.
type Symbol struct {
	Name    string
	Num     int64
	Numeric bool
}

// Named returns a symbolic value.
func Named(name string) *Symbol {
	return &Symbol{Name: name}
}

// Number returns a numeric value.
func Number(n int64) *Symbol {
	return &Symbol{Num: n, Numeric: true}
}

// ParseSymbol interprets command-line text: integers (decimal or 0x hex)
// become numbers, anything else a name.
func ParseSymbol(text string) *Symbol {
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return Number(n)
	}
	return Named(text)
}

// String returns the number in decimal or the name as given.
func (s Symbol) String() string {
	if s.Numeric {
		return strconv.FormatInt(s.Num, 10)
	}
	return s.Name
}

// MarshalJSON writes numbers as JSON numbers and names as strings.
func (s Symbol) MarshalJSON() ([]byte, error) {
	if s.Numeric {
		return []byte(strconv.FormatInt(s.Num, 10)), nil
	}
	return json.Marshal(s.Name)
}

// UnmarshalJSON accepts a JSON number or string.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.set(v)
}

// MarshalYAML mirrors MarshalJSON.
func (s Symbol) MarshalYAML() (any, error) {
	if s.Numeric {
		return s.Num, nil
	}
	return s.Name, nil
}

// UnmarshalYAML accepts an integer or string scalar.
func (s *Symbol) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a name or number", node.Line)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*s = *Number(n)
		return nil
	}
	*s = *Named(node.Value)
	return nil
}

// UnmarshalTOML receives the primitive value decoded by BurntSushi/toml.
func (s *Symbol) UnmarshalTOML(v any) error {
	return s.set(v)
}

func (s *Symbol) set(v any) error {
	switch x := v.(type) {
	case string:
		*s = *Named(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return fmt.Errorf("expected an integer, got %s", x)
		}
		*s = *Number(n)
	case int64:
		*s = *Number(x)
	case float64:
		if x != float64(int64(x)) {
			return fmt.Errorf("expected an integer, got %v", x)
		}
		*s = *Number(int64(x))
	case nil:
		*s = Symbol{}
	default:
		return fmt.Errorf("expected a name or number, got %T", v)
	}
	return nil
}

// resolveSymbol maps s to a byte through names, or range-checks a number.
func resolveSymbol[T ~uint8](field string, s *Symbol, names map[string]T) (byte, error) {
	if s.Numeric {
		if s.Num < 0 || s.Num > 0xFF {
			return 0, invalidParam(field, "%d out of range 0..255", s.Num)
		}
		return byte(s.Num), nil
	}
	if v, ok := names[strings.ToUpper(strings.TrimSpace(s.Name))]; ok {
		return byte(v), nil
	}
	// Numeric strings such as "6" from form fields.
	if n, err := strconv.ParseInt(strings.TrimSpace(s.Name), 0, 64); err == nil {
		return resolveSymbol(field, Number(n), names)
	}
	return 0, invalidParam(field, "unknown name %q", s.Name)
}
