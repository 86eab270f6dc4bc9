// Package table holds the counters of one aggregation pass.
package table

import (
	"sort"
	"strings"
)

// Table maps dotted metric names to values. Additive entries are summed
// with Add; derived entries are overwritten with SetDerived after the entries
// they depend on change. A Table is owned by a single goroutine.
type Table struct {
	values map[string]float64
}

func New() *Table {
	return &Table{values: make(map[string]float64)}
}

// Add creates name if needed and adds amount to it.
func (t *Table) Add(name string, amount float64) {
	t.values[name] += amount
}

// SetDerived overwrites name with value.
func (t *Table) SetDerived(name string, value float64) {
	t.values[name] = value
}

func (t *Table) Get(name string) (float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *Table) Len() int { return len(t.values) }

// Snapshot returns a copy of the table that later updates do not affect.
func (t *Table) Snapshot() Snapshot {
	out := make(Snapshot, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Snapshot is a finished set of counters.
type Snapshot map[string]float64

// Point is one named value.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Keys returns the metric names in lexical order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Points returns the snapshot as name-sorted points, keeping only names
// that start with prefix.
func (s Snapshot) Points(prefix string) []Point {
	out := make([]Point, 0, len(s))
	for _, k := range s.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Point{Name: k, Value: s[k]})
		}
	}
	return out
}

// WithPrefix returns a copy with prefix prepended to every name.
func (s Snapshot) WithPrefix(prefix string) Snapshot {
	if prefix == "" {
		return s
	}
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[prefix+k] = v
	}
	return out
}
