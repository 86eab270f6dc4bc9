package table

import (
	"poolmon/internal/pkg/accounting"
	"poolmon/internal/pkg/classify"
	"poolmon/internal/pkg/model"
)

var (
	partitionableAttrs = []string{
		model.AttrTotalDisk, model.AttrTotalSlotDisk, model.AttrDisk,
		model.AttrTotalMemory, model.AttrTotalSlotMemory, model.AttrMemory,
		model.AttrTotalCpus, model.AttrTotalSlotCpus, model.AttrCpus,
		model.AttrTotalGpus, model.AttrTotalSlotGpus, model.AttrGpus,
		model.AttrTotalGpusUsage, model.AttrTotalGpusUsedMem, model.AttrAvgGpusUsage, model.AttrAvgGpusUsedMem,
		model.AttrTotalLoadAvg, model.AttrLoadAvg, model.AttrTotalCondorLoadAvg,
	}
	claimedAttrs = []string{
		model.AttrDisk, model.AttrMemory, model.AttrCpus, model.AttrGpus,
		model.AttrLoadAvg, model.AttrTotalGpusUsage, model.AttrAvgGpusUsage,
	}
	capacityAttrs = []string{model.AttrDisk, model.AttrMemory, model.AttrCpus, model.AttrGpus}
)

// SlotOptions controls how slot records are folded.
type SlotOptions struct {
	Weighting accounting.Weighting
	// TotalsOnly drops the per group and owner breakdown of claimed slots.
	TotalsOnly bool
}

// FoldSlot adds one slot record to the counters rooted at the slot's type.
//
// Partitionable slots contribute their whole resource inventory to both
// <type>.totals and <type>.<state>, plus an <type>.unusable entry when the
// unclaimed remainder cannot host a standard job. Claimed slots are broken
// down by accounting group and owner. Every other slot is counted per state.
func FoldSlot(t *Table, r model.Record, c classify.SlotClass, opts SlotOptions) {
	totals := classify.Prefix(c.Type, "totals")
	state := classify.Prefix(c.Type, c.State)

	switch {
	case c.Partitionable:
		for _, k := range partitionableAttrs {
			v := r.FloatOr(k, 0)
			t.Add(classify.Prefix(totals, k), v)
			t.Add(classify.Prefix(state, k), v)
		}
		t.Add(classify.Prefix(totals, "NumSlots"), 1)
		t.Add(classify.Prefix(totals, "Mflops"), float64(accounting.Mflops(r)))
		t.Add(classify.Prefix(totals, "StdSlots"), opts.Weighting.StdSlots(r))
		if opts.Weighting.Unusable(r) {
			unusable := classify.Prefix(c.Type, "unusable")
			for _, k := range capacityAttrs {
				t.Add(classify.Prefix(unusable, k), r.FloatOr(k, 0))
			}
		}

	case c.Claimed:
		owner := classify.Prefix(state, c.Group, c.Owner)
		for _, k := range claimedAttrs {
			v := r.FloatOr(k, 0)
			if !opts.TotalsOnly {
				t.Add(classify.Prefix(owner, k), v)
			}
			t.Add(classify.Prefix(totals, k), v)
		}
		t.Add(classify.Prefix(totals, "Mflops"), float64(accounting.Mflops(r)))
		if w, err := r.Float(model.AttrSlotWeight); err == nil {
			t.Add(classify.Prefix(owner, "Weighted"), w)
		}
		t.Add(classify.Prefix(owner, "NumSlots"), 1)
		t.Add(classify.Prefix(owner, "StdSlots"), opts.Weighting.StdSlots(r))

	default:
		for _, k := range capacityAttrs {
			v := r.FloatOr(k, 0)
			t.Add(classify.Prefix(state, k), v)
			t.Add(classify.Prefix(totals, k), v)
		}
		t.Add(classify.Prefix(totals, "Mflops"), float64(accounting.Mflops(r)))
		t.Add(classify.Prefix(state, "NumSlots"), 1)
	}
}
