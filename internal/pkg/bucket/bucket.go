// Package bucket histograms ages and durations into labelled bins.
package bucket

import (
	"fmt"
	"time"
)

// Longer is the catch-all label for values past the last bound.
const Longer = "longer"

// Bin is one (upper bound, label) pair. Bounds are in seconds.
type Bin struct {
	Bound float64
	Label string
}

// Schema is an ordered sequence of bins with strictly increasing bounds.
// It is immutable once built.
type Schema struct {
	bins []Bin
}

// NewSchema validates bins and returns a Schema over a private copy of them.
func NewSchema(bins ...Bin) (Schema, error) {
	out := make([]Bin, len(bins))
	copy(out, bins)
	for i := 1; i < len(out); i++ {
		if out[i].Bound <= out[i-1].Bound {
			return Schema{}, fmt.Errorf("bin %q bound %v is not greater than %q bound %v",
				out[i].Label, out[i].Bound, out[i-1].Label, out[i-1].Bound)
		}
	}
	return Schema{bins: out}, nil
}

// New builds the standard age schema whose first bin ("recent") ends at the
// base interval.
func New(base time.Duration) (Schema, error) {
	if base <= 0 {
		return Schema{}, fmt.Errorf("base interval must be positive, got %s", base)
	}
	const (
		hour = 3600
		day  = 24 * hour
	)
	return NewSchema(
		Bin{Bound: base.Seconds(), Label: "recent"},
		Bin{Bound: hour, Label: "one_hour"},
		Bin{Bound: 4 * hour, Label: "four_hours"},
		Bin{Bound: 8 * hour, Label: "eight_hours"},
		Bin{Bound: day, Label: "one_day"},
		Bin{Bound: 2 * day, Label: "two_days"},
		Bin{Bound: 7 * day, Label: "one_week"},
	)
}

// Classify returns the label of the first bin whose bound is strictly
// greater than v, or Longer.
func (s Schema) Classify(v float64) string {
	for _, b := range s.bins {
		if v < b.Bound {
			return b.Label
		}
	}
	return Longer
}

// Bins returns a copy of the schema's bins.
func (s Schema) Bins() []Bin {
	out := make([]Bin, len(s.bins))
	copy(out, s.bins)
	return out
}

// Labels lists every label the schema can return, catch-all last.
func (s Schema) Labels() []string {
	out := make([]string, 0, len(s.bins)+1)
	for _, b := range s.bins {
		out = append(out, b.Label)
	}
	return append(out, Longer)
}
