package slurmdb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"poolmon/internal/pkg/model"
	"poolmon/internal/pkg/pool"
)

const vanillaUniverse = 5

var statusConstraint = regexp.MustCompile(`^\s*` + model.AttrJobStatus + `\s*==\s*(\d+)\s*$`)

// parseConstraint understands the only constraint shape the aggregator
// sends, JobStatus==N. An empty constraint selects every unfinished job.
func parseConstraint(constraint string) (model.JobStatus, bool, error) {
	if strings.TrimSpace(constraint) == "" {
		return 0, false, nil
	}
	m := statusConstraint.FindStringSubmatch(constraint)
	if m == nil {
		return 0, false, fmt.Errorf("job constraint %q: %w", constraint, pool.ErrUnsupported)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("job constraint %q: %w", constraint, err)
	}
	return model.JobStatus(n), true, nil
}

// jobStatus maps a Slurm state onto the pool lifecycle. Pending jobs with
// zero priority are held, as are suspended jobs.
func jobStatus(row model.SlurmJob) model.JobStatus {
	switch row.State & model.SlurmJobStateBase {
	case model.SlurmJobPending:
		if row.Priority == 0 {
			return model.JobHeld
		}
		return model.JobIdle
	case model.SlurmJobRunning:
		return model.JobRunning
	case model.SlurmJobSuspended:
		return model.JobHeld
	}
	return model.JobUnknown
}

// jobRecord converts one job row. The account becomes the accounting group,
// so jobs of account "nova" run by "alice" count towards experiment nova.
func jobRecord(row model.SlurmJob, gpuTRES int) (model.Record, bool) {
	status := jobStatus(row)
	if status == model.JobUnknown {
		return model.Record{}, false
	}

	var r model.Record
	r.Set(model.AttrClusterID, model.Int(int64(row.JobID)))
	r.Set(model.AttrProcID, model.Int(0))
	r.Set(model.AttrOwner, model.String(row.User))
	r.Set(model.AttrJobStatus, model.Int(int64(status)))
	r.Set(model.AttrJobUniverse, model.Int(vanillaUniverse))
	r.Set(model.AttrQDate, model.Int(row.TimeSubmit))
	if row.Account != "" {
		r.Set(model.AttrAccountingGroup, model.String("group_"+row.Account+"."+row.User))
	}

	cpus := int64(row.CPUsReq)
	if cpus > 0 {
		r.Set(model.AttrRequestCpus, model.Int(cpus))
	}
	if mem := requestMemory(row.MemReq, cpus); mem > 0 {
		r.Set(model.AttrRequestMemory, model.Int(mem))
	}
	if gpus, ok := tresCount(row.TRESReq, gpuTRES); ok {
		r.Set(model.AttrRequestGpus, model.Int(gpus))
	}

	switch status {
	case model.JobIdle:
		if row.Partition != "" {
			r.Set(model.AttrDesiredSites, model.String(row.Partition))
		}
	case model.JobRunning:
		if row.TimeStart > 0 {
			r.Set(model.AttrJobCurrentStartDate, model.Int(row.TimeStart))
		}
		if row.Partition != "" {
			r.Set(model.AttrMatchSite, model.String(row.Partition))
		}
	case model.JobHeld:
		since := row.TimeSubmit
		if row.State&model.SlurmJobStateBase == model.SlurmJobSuspended && row.TimeSuspended > 0 {
			since = row.TimeSuspended
		}
		r.Set(model.AttrEnteredCurrentStatus, model.Int(since))
	}
	return r, true
}

// requestMemory returns the job's total memory request in MB.
func requestMemory(memReq uint64, cpus int64) int64 {
	if memReq&model.SlurmMemPerCPU == 0 {
		return int64(memReq)
	}
	if cpus < 1 {
		cpus = 1
	}
	return int64(memReq&^model.SlurmMemPerCPU) * cpus
}

// tresCount finds id in a "1=4,2=8000,1001=2" TRES list.
func tresCount(tres string, id int) (int64, bool) {
	if id <= 0 || tres == "" {
		return 0, false
	}
	want := strconv.Itoa(id)
	for _, pair := range strings.Split(tres, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) != want {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
