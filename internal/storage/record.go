// Package storage implements the adaptive persistence layer: three backend
// drivers sharing one record-store contract and a facade that selects the
// best available driver at startup.
package storage

import (
	"encoding/json"
	"fmt"
)

// Record is one row/document/entry of a collection. Values are restricted to
// JSON-normal types (string, float64, bool, nil) so the same record behaves
// identically across the SQL, document and flat-map backends.
type Record map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// String returns the string value under key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the boolean value under key. Numeric 1/0 is accepted because
// the structured-table backend stores booleans as integers.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}

// Clone returns a deep copy of the record via a JSON round trip. The copy is
// also normalized: every value becomes a JSON-normal type.
func (r Record) Clone() Record {
	out, err := Normalize(r)
	if err != nil {
		// Records are built from JSON-compatible values throughout the
		// application, so marshalling cannot fail for well-formed input.
		return Record{}
	}
	return out
}

// Normalize converts rec to JSON-normal value types so records compare
// equal regardless of which backend produced them.
func Normalize(rec Record) (Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("normalize record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize record: %w", err)
	}
	return out, nil
}

// Matches reports whether every key/value pair of filter is present in rec
// with an equal value. Exact equality only; an empty filter matches all.
// Values are compared after JSON normalization, with 1/0 integers treated
// as equal to booleans for backend parity.
func (r Record) Matches(filter Record) bool {
	for key, want := range filter {
		if !valueEqual(r[key], want) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.(bool); ok {
		if bn, ok := toFloat(b); ok {
			return ab == (bn != 0)
		}
	}
	if bb, ok := b.(bool); ok {
		if an, ok := toFloat(a); ok {
			return bb == (an != 0)
		}
	}
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return an == bn
		}
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
