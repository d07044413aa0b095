package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Distribution counts occurrences per category label and remembers the order
// in which each label was first seen. It marshals to a plain JSON object whose
// keys follow that order.
type Distribution struct {
	labels []string
	counts map[string]int
}

func NewDistribution() *Distribution {
	return &Distribution{counts: make(map[string]int)}
}

// Add increments label by n, recording label on its first occurrence.
func (d *Distribution) Add(label string, n int) {
	if d.counts == nil {
		d.counts = make(map[string]int)
	}
	if _, ok := d.counts[label]; !ok {
		d.labels = append(d.labels, label)
	}
	d.counts[label] += n
}

// Labels returns the labels in first-occurrence order.
func (d *Distribution) Labels() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

func (d *Distribution) Count(label string) int {
	if d == nil {
		return 0
	}
	return d.counts[label]
}

func (d *Distribution) Len() int {
	if d == nil {
		return 0
	}
	return len(d.labels)
}

// Total is the sum of all counts.
func (d *Distribution) Total() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, c := range d.counts {
		total += c
	}
	return total
}

// Map returns an unordered copy of the counts.
func (d *Distribution) Map() map[string]int {
	out := make(map[string]int, d.Len())
	if d == nil {
		return out
	}
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

func (d *Distribution) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range d.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", d.counts[label])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of label -> count, keeping key order.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("distribution: expected JSON object, got %v", tok)
	}

	*d = Distribution{counts: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("distribution: expected string key, got %v", tok)
		}

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("distribution: value of %q: %w", label, err)
		}
		count, err := n.Int64()
		if err != nil {
			return fmt.Errorf("distribution: value of %q is not an integer: %w", label, err)
		}
		d.Add(label, int(count))
	}

	_, err = dec.Token()
	return err
}
