package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date and timestamp columns are TEXT. Dates are day-granular ISO-8601;
// timestamps are RFC 3339 UTC. The empty string is NULL-equivalent (no
// date / not yet set).
const dateLayout = "2006-01-02"

// marshalTags serializes a tag list to its JSON column form.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

// unmarshalTags deserializes a JSON tag column.
func unmarshalTags(column string) ([]string, error) {
	if column == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(column), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags %q: %w", column, err)
	}
	return tags, nil
}

// marshalDate serializes a day-granular date; zero time becomes ''.
func marshalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// unmarshalDate parses a date column; '' becomes the zero time.
func unmarshalDate(column string) (time.Time, error) {
	if column == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, column)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal date %q: %w", column, err)
	}
	return t, nil
}

// marshalTime serializes a timestamp; zero time becomes ''.
func marshalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// unmarshalTime parses a timestamp column; '' becomes the zero time.
func unmarshalTime(column string) (time.Time, error) {
	if column == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, column)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time %q: %w", column, err)
	}
	return t, nil
}
