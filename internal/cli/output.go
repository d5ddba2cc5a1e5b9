package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printJSON renders v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// dateOrDash renders a day-granular date column, '-' when unset.
func dateOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
