package table

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"poolmon/internal/pkg/accounting"
	"poolmon/internal/pkg/classify"
	"poolmon/internal/pkg/model"
)

func foldSlots(opts SlotOptions, ads ...map[string]any) Snapshot {
	tb := New()
	for _, ad := range ads {
		r := model.NewRecord(ad)
		FoldSlot(tb, r, classify.Slot(r), opts)
	}
	return tb.Snapshot()
}

var claimedAd = map[string]any{
	"SlotType":        "Dynamic",
	"State":           "Claimed",
	"AccountingGroup": "group_nova.alice@fnal.gov",
	"Cpus":            1,
	"Memory":          2500,
	"Disk":            100,
	"Gpus":            0,
	"SlotWeight":      1,
	"KFlops":          2048,
}

func TestFoldSlotClaimed(t *testing.T) {
	s := foldSlots(SlotOptions{Weighting: accounting.WeightCPU}, claimedAd, claimedAd)

	assert.Equal(t, 2.0, s["Dynamic.Claimed.nova.alice.Cpus"])
	assert.Equal(t, 5000.0, s["Dynamic.Claimed.nova.alice.Memory"])
	assert.Equal(t, 5000.0, s["Dynamic.totals.Memory"])
	assert.Equal(t, 4.0, s["Dynamic.totals.Mflops"])
	assert.Equal(t, 2.0, s["Dynamic.Claimed.nova.alice.Weighted"])
	assert.Equal(t, 2.0, s["Dynamic.Claimed.nova.alice.NumSlots"])
	assert.Equal(t, 2.5, s["Dynamic.Claimed.nova.alice.StdSlots"])
	assert.NotContains(t, s, "Dynamic.Claimed.NumSlots")
}

func TestFoldSlotClaimedTotalsOnly(t *testing.T) {
	s := foldSlots(SlotOptions{Weighting: accounting.WeightGPU, TotalsOnly: true}, claimedAd)

	assert.NotContains(t, s, "Dynamic.Claimed.nova.alice.Cpus")
	assert.Equal(t, 1.0, s["Dynamic.totals.Cpus"])
	assert.Equal(t, 1.0, s["Dynamic.Claimed.nova.alice.NumSlots"])
	assert.Equal(t, 0.0, s["Dynamic.Claimed.nova.alice.StdSlots"])
}

func TestFoldSlotPartitionable(t *testing.T) {
	s := foldSlots(SlotOptions{Weighting: accounting.WeightCPU}, map[string]any{
		"SlotType":   "Partitionable",
		"IS_GLIDEIN": true,
		"State":      "Unclaimed",
		"Cpus":       0,
		"Memory":     1000,
		"Disk":       5000000,
		"TotalCpus":  32,
		"KFlops":     1024,
	})

	assert.Equal(t, 32.0, s["PartitionableGlidein.totals.TotalCpus"])
	assert.Equal(t, 32.0, s["PartitionableGlidein.Unclaimed.TotalCpus"])
	assert.Equal(t, 1.0, s["PartitionableGlidein.totals.NumSlots"])
	assert.Equal(t, 0.0, s["PartitionableGlidein.totals.Mflops"])
	assert.Equal(t, 0.5, s["PartitionableGlidein.totals.StdSlots"])
	assert.Equal(t, 1000.0, s["PartitionableGlidein.unusable.Memory"])
	assert.Equal(t, 5000000.0, s["PartitionableGlidein.unusable.Disk"])
}

func TestFoldSlotPartitionableUsable(t *testing.T) {
	s := foldSlots(SlotOptions{Weighting: accounting.WeightCPU}, map[string]any{
		"SlotType": "Partitionable",
		"State":    "Unclaimed",
		"Cpus":     8,
		"Memory":   16000,
		"Disk":     50000000,
	})

	assert.Equal(t, 8.0, s["Partitionable.totals.StdSlots"])
	assert.NotContains(t, s, "Partitionable.unusable.Cpus")
}

func TestFoldSlotOtherStates(t *testing.T) {
	s := foldSlots(SlotOptions{Weighting: accounting.WeightCPU},
		map[string]any{"State": "Unclaimed", "Cpus": 1, "Memory": 2000},
		map[string]any{"State": "Owner", "Cpus": 2, "KFlops": 1024},
	)

	assert.Equal(t, 1.0, s["Static.Unclaimed.NumSlots"])
	assert.Equal(t, 1.0, s["Static.Owner.NumSlots"])
	assert.Equal(t, 3.0, s["Static.totals.Cpus"])
	assert.Equal(t, 2000.0, s["Static.Unclaimed.Memory"])
	assert.Equal(t, 2.0, s["Static.totals.Mflops"])
}
