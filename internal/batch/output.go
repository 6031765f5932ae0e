package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteOutcome writes out as indented JSON or as YAML.
func WriteOutcome(w io.Writer, out Outcome, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write JSON outcome: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write YAML outcome: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("outcome format %q not supported (want json or yaml)", format)
	}
	return nil
}
