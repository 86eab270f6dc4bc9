package pool

import (
	"fmt"

	"poolmon/internal/pkg/model"
)

// StatusConstraint selects jobs in one lifecycle status.
func StatusConstraint(s model.JobStatus) string {
	return fmt.Sprintf("%s==%d", model.AttrJobStatus, int64(s))
}

// IdleJobs is the query for idle jobs on a schedd.
var IdleJobs = Query{
	Target:     Jobs,
	Constraint: StatusConstraint(model.JobIdle),
	Projection: []string{
		model.AttrClusterID, model.AttrProcID, model.AttrOwner,
		model.AttrAccountingGroup, model.AttrJobStatus,
		model.AttrDesiredUsageModel, model.AttrDesiredSites, model.AttrJobUniverse,
		model.AttrQDate, model.AttrRequestMemory, model.AttrRequestDisk,
		model.AttrRequestCpus, model.AttrRequestGpus,
	},
}

// RunningJobs is the query for running jobs on a schedd.
var RunningJobs = Query{
	Target:     Jobs,
	Constraint: StatusConstraint(model.JobRunning),
	Projection: []string{
		model.AttrClusterID, model.AttrProcID, model.AttrOwner,
		model.AttrMatchSite, model.AttrMatchResourceName,
		model.AttrAccountingGroup, model.AttrJobStatus,
		model.AttrJobUniverse, model.AttrJobCurrentStartDate, model.AttrRemoteUserCpu,
		model.AttrRequestMemory, model.AttrResidentSetSize,
		model.AttrRequestDisk, model.AttrDiskUsage, model.AttrRequestCpus,
		model.AttrAssignedGpus, model.AttrGpusProvisioned, model.AttrGpusUsage,
		model.AttrRequestGpus,
	},
}

// HeldJobs is the query for held jobs on a schedd.
var HeldJobs = Query{
	Target:     Jobs,
	Constraint: StatusConstraint(model.JobHeld),
	Projection: []string{
		model.AttrClusterID, model.AttrProcID, model.AttrOwner,
		model.AttrAccountingGroup, model.AttrJobStatus,
		model.AttrJobUniverse, model.AttrRequestGpus,
		model.AttrEnteredCurrentStatus,
	},
}

// RunningJobUsage reads the raw memory and disk footprint of running jobs.
var RunningJobUsage = Query{
	Target:     Jobs,
	Constraint: StatusConstraint(model.JobRunning),
	Projection: []string{model.AttrResidentSetSizeRaw, model.AttrDiskUsageRaw},
}

// SlotProjection is the attribute list read for every slot.
var SlotProjection = []string{
	model.AttrSlotType, model.AttrState, model.AttrName, model.AttrSlotWeight,
	model.AttrCpus, model.AttrTotalSlotCpus, model.AttrTotalCpus,
	model.AttrDisk, model.AttrTotalSlotDisk, model.AttrTotalDisk,
	model.AttrMemory, model.AttrTotalSlotMemory, model.AttrTotalMemory,
	model.AttrGpus, model.AttrTotalSlotGpus, model.AttrTotalGpus,
	model.AttrLoadAvg, model.AttrTotalCondorLoadAvg, model.AttrTotalLoadAvg,
	model.AttrAccountingGroup, model.AttrRemoteGroup, model.AttrRemoteOwner,
	model.AttrTotalGpusUsage, model.AttrTotalGpusUsedMem, model.AttrAvgGpusUsage, model.AttrAvgGpusUsedMem,
	model.AttrKflops, model.AttrIsGlidein,
}

// SlotsQuery returns the slot query restricted by constraint.
func SlotsQuery(constraint string) Query {
	return Query{Target: Slots, Constraint: constraint, Projection: SlotProjection}
}
