// Package accounting derives resource quantities from job and slot records:
// walltime and cputime, standard slot equivalents, and byte-normalised
// requests and usage.
package accounting

import (
	"math"
	"time"

	"poolmon/internal/pkg/bucket"
	"poolmon/internal/pkg/model"
)

// One standard slot is 1 CPU and 2000 MB of memory.
const StdSlotMemoryMB = 2000

const (
	kib = 1024
	mib = 1024 * 1024
)

// Amount is a quantity that may be missing from a record.
type Amount struct {
	Value float64
	OK    bool
}

func some(v float64) Amount { return Amount{Value: v, OK: true} }

// Result holds everything one job contributes to its metrics.
type Result struct {
	Status model.JobStatus
	// Bin is the histogram counter suffix, e.g. ".count_recent"; empty when
	// the status is not histogrammed.
	Bin         string
	Walltime    float64
	Cputime     float64
	StdSlots    float64
	StdSlotsGPU float64

	CPURequest    Amount
	MemoryRequest Amount // bytes
	DiskRequest   Amount // bytes
	GPURequest    Amount

	// Observed usage, running jobs only.
	GPUUsage        Amount
	GPUsProvisioned Amount
	MemoryUsage     Amount // bytes
	DiskUsage       Amount // bytes
}

// Job accounts one job record at time now. Every field is evaluated on its
// own; a malformed attribute only loses the quantities derived from it.
func Job(r model.Record, s bucket.Schema, now time.Time) Result {
	res := Result{
		Status:   model.Status(r),
		Walltime: Walltime(r, now),
		Cputime:  Cputime(r),
		StdSlots: 1,
	}
	res.Bin = binFor(r, res.Status, res.Walltime, s, now)

	if cpus, err := r.Float(model.AttrRequestCpus); err == nil {
		res.CPURequest = some(cpus)
		res.StdSlots = math.Max(res.StdSlots, cpus)
	}
	if r.Has(model.AttrRequestGpus) {
		gpus, err := r.Float(model.AttrRequestGpus)
		switch {
		case err != nil:
			res.StdSlotsGPU = 1
		case gpus > 0:
			res.GPURequest = some(gpus)
			res.StdSlotsGPU = math.Max(1, gpus)
		default:
			res.GPURequest = some(gpus)
		}
	}
	if mem, err := r.Float(model.AttrRequestMemory); err == nil {
		res.MemoryRequest = some(mem * mib)
		res.StdSlots = math.Max(res.StdSlots, mem/StdSlotMemoryMB)
	}
	if disk, err := r.Float(model.AttrRequestDisk); err == nil {
		res.DiskRequest = some(disk * kib)
	}

	if res.Status == model.JobRunning {
		if v, err := r.Float(model.AttrGpusUsage); err == nil {
			res.GPUUsage = some(v)
		}
		if v, err := r.Float(model.AttrGpusProvisioned); err == nil {
			res.GPUsProvisioned = some(v)
		}
		if v, err := r.Float(model.AttrResidentSetSize); err == nil {
			res.MemoryUsage = some(v * kib)
		}
		if v, err := r.Float(model.AttrDiskUsage); err == nil {
			res.DiskUsage = some(v * kib)
		}
	}
	return res
}

// Walltime is the CPU-seconds equivalent the job has held its slot for:
// elapsed time since the current start multiplied by the requested CPUs.
func Walltime(r model.Record, now time.Time) float64 {
	nowSec := float64(now.Unix())
	start := r.FloatOr(model.AttrJobCurrentStartDate, nowSec)
	return (nowSec - start) * r.FloatOr(model.AttrRequestCpus, 1)
}

// Cputime is the remote user CPU the job has consumed, in seconds.
func Cputime(r model.Record) float64 {
	return r.FloatOr(model.AttrRemoteUserCpu, 0)
}

// Efficiency is cputime as a percentage of walltime, clamped to [0, 100].
func Efficiency(cputime, walltime float64) float64 {
	if walltime <= 0 {
		return 0
	}
	return math.Max(0, math.Min(cputime/walltime*100, 100))
}

// Bin returns the histogram counter suffix for a job, or "" for statuses
// that are not histogrammed.
func Bin(r model.Record, s bucket.Schema, now time.Time) string {
	return binFor(r, model.Status(r), Walltime(r, now), s, now)
}

func binFor(r model.Record, status model.JobStatus, walltime float64, s bucket.Schema, now time.Time) string {
	nowSec := float64(now.Unix())
	switch status {
	case model.JobIdle:
		q, err := r.Float(model.AttrQDate)
		if err != nil {
			return ".count_unknown"
		}
		return ".count_" + s.Classify(nowSec-q)
	case model.JobRunning:
		if walltime <= 0 {
			return ".count_unknown"
		}
		return ".count_" + s.Classify(walltime)
	case model.JobHeld:
		entered, err := r.Float(model.AttrEnteredCurrentStatus)
		if err != nil {
			return ".count_holdage_unknown"
		}
		return ".count_holdage_" + s.Classify(nowSec-entered)
	}
	return ""
}
