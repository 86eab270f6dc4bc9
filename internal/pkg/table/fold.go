package table

import (
	"poolmon/internal/pkg/accounting"
)

// FoldJob adds one job's accounting result to the counters under metric.
// Efficiency, wastetime and wastetime_avg are recomputed from the summed
// walltime, cputime and count every time they change.
func FoldJob(t *Table, metric string, res accounting.Result) {
	t.Add(metric+".count", 1)
	if res.Bin != "" {
		t.Add(metric+res.Bin, 1)
	}

	if res.Walltime > 0 && res.Cputime > 0 {
		t.Add(metric+".walltime", res.Walltime)
		t.Add(metric+".cputime", res.Cputime)
		wall, _ := t.Get(metric + ".walltime")
		cpu, _ := t.Get(metric + ".cputime")
		count, _ := t.Get(metric + ".count")
		t.SetDerived(metric+".efficiency", accounting.Efficiency(cpu, wall))
		waste := wall - cpu
		t.SetDerived(metric+".wastetime", waste)
		if count > 0 {
			t.SetDerived(metric+".wastetime_avg", waste/count)
		}
	}

	addAmount(t, metric+".cpu_request", res.CPURequest)
	addAmount(t, metric+".gpu_request", res.GPURequest)
	addAmount(t, metric+".memory_request_b", res.MemoryRequest)
	addAmount(t, metric+".disk_request_b", res.DiskRequest)
	t.Add(metric+".std_slots", res.StdSlots)
	t.Add(metric+".std_slots_gpu", res.StdSlotsGPU)

	addAmount(t, metric+".gpus_usage", res.GPUUsage)
	addAmount(t, metric+".gpus_provisioned", res.GPUsProvisioned)
	addAmount(t, metric+".memory_usage_b", res.MemoryUsage)
	addAmount(t, metric+".disk_usage_b", res.DiskUsage)
}

func addAmount(t *Table, name string, a accounting.Amount) {
	if a.OK {
		t.Add(name, a.Value)
	}
}
