package charts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Count is one label/count pair of a categorical aggregate.
type Count struct {
	Label string  `json:"label"`
	Count float64 `json:"count"`
}

// Counts is an ordered label to count mapping. The order is the one the
// producer emitted on the wire and is the order charts display.
//
// A nil Counts means the aggregate was absent; an empty non-nil Counts means
// it was present with no categories.
type Counts []Count

// Get returns the count stored for label.
func (c Counts) Get(label string) (float64, bool) {
	for _, entry := range c {
		if entry.Label == label {
			return entry.Count, true
		}
	}
	return 0, false
}

// Labels lists the labels in order.
func (c Counts) Labels() []string {
	out := make([]string, len(c))
	for i, entry := range c {
		out[i] = entry.Label
	}
	return out
}

// UnmarshalJSON decodes a JSON object keeping its key order. Duplicate keys
// keep their first position and take the last value.
func (c *Counts) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("charts: counts must be a JSON object, got %v", tok)
	}
	out := Counts{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("charts: unexpected counts key %v", keyTok)
		}
		var value *float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("charts: counts value for %q: %w", key, err)
		}
		count := 0.0
		if value != nil {
			count = *value
		}
		if pos, seen := index[key]; seen {
			out[pos].Count = count
			continue
		}
		index[key] = len(out)
		out = append(out, Count{Label: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON encodes the counts as a JSON object in order.
func (c Counts) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
