// Package rowset holds the in-memory tabular value passed between readers,
// the store and the summary transforms.
//
// A Set is either a Row Batch (bounded by the ingest batch size) or a
// materialized query result. Cell values are one of nil, int64, float64 or
// string.
package rowset

import (
	"fmt"
	"strconv"
	"strings"
)

// Set is an ordered list of rows sharing one column schema.
type Set struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty set with the given columns and row capacity.
func New(columns []string, capacity int) *Set {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Set{
		Columns: cols,
		Rows:    make([][]any, 0, capacity),
	}
}

// Len returns the number of rows.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Index returns the position of the named column, or -1.
func (s *Set) Index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MustIndex is like Index but returns an error naming the missing column.
func (s *Set) MustIndex(name string) (int, error) {
	i := s.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("column %q not found", name)
	}
	return i, nil
}

// AddColumn appends a column filled with nil and returns its index.
func (s *Set) AddColumn(name string) int {
	if i := s.Index(name); i >= 0 {
		return i
	}
	s.Columns = append(s.Columns, name)
	for r := range s.Rows {
		s.Rows[r] = append(s.Rows[r], nil)
	}
	return len(s.Columns) - 1
}

// Clone returns a deep copy of the column list and row slices.
// Cell values are immutable scalars, so they are shared.
func (s *Set) Clone() *Set {
	out := New(s.Columns, len(s.Rows))
	for _, row := range s.Rows {
		r := make([]any, len(row))
		copy(r, row)
		out.Rows = append(out.Rows, r)
	}
	return out
}

// missingMarkers are the literal cell texts read as a missing value.
var missingMarkers = map[string]struct{}{
	"NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "NULL": {}, "null": {}, "<NA>": {},
}

// ParseCell converts raw text from a delimited file into a cell value.
// Empty text is a missing value. Integers and floats are recognized the way a
// dataframe reader would; everything else stays text.
func ParseCell(raw string) any {
	if raw == "" {
		return nil
	}
	t := strings.TrimSpace(raw)
	if t == "" {
		return raw
	}
	if _, missing := missingMarkers[t]; missing {
		return nil
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return raw
}

// Float returns the numeric value of a cell. ok is false for nil and for text
// that does not parse as a number.
func Float(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
