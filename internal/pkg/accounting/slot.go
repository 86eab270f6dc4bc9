package accounting

import (
	"fmt"
	"math"

	"poolmon/internal/pkg/model"
)

// Weighting selects what a standard slot means when counting slot capacity.
type Weighting string

const (
	// WeightCPU counts one standard slot per CPU or per 2000 MB, whichever is larger.
	WeightCPU Weighting = "cpu"
	// WeightGPU counts one standard slot per GPU.
	WeightGPU Weighting = "gpu"
)

func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(s) {
	case WeightCPU, WeightGPU:
		return Weighting(s), nil
	case "":
		return WeightCPU, nil
	}
	return "", fmt.Errorf("unknown slot weighting %q", s)
}

// StdSlots returns the standard slot equivalent of a slot's capacity.
func (w Weighting) StdSlots(r model.Record) float64 {
	if w == WeightGPU {
		return r.FloatOr(model.AttrGpus, 1)
	}
	return math.Max(r.FloatOr(model.AttrCpus, 1), r.FloatOr(model.AttrMemory, 0)/StdSlotMemoryMB)
}

// Unusable reports whether what is left of a partitionable slot is too small
// to run a standard job, i.e. the slot is effectively fully used.
func (w Weighting) Unusable(r model.Record) bool {
	if r.FloatOr(model.AttrCpus, 0) == 0 ||
		r.FloatOr(model.AttrMemory, 0) < StdSlotMemoryMB ||
		r.FloatOr(model.AttrDisk, 0) < 1024*1024 {
		return true
	}
	return w == WeightGPU && r.FloatOr(model.AttrGpus, 0) == 0
}

// Mflops is the slot's floating point rating summed over its CPUs.
func Mflops(r model.Record) int64 {
	return r.IntOr(model.AttrCpus, 1) * r.IntOr(model.AttrKflops, 0) / 1024
}
