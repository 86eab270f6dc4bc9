package model

// JobStatus is the scheduler's lifecycle code for a job.
type JobStatus int64

const (
	JobUnknown   JobStatus = 0
	JobIdle      JobStatus = 1
	JobRunning   JobStatus = 2
	JobRemoved   JobStatus = 3
	JobCompleted JobStatus = 4
	JobHeld      JobStatus = 5
)

// SchedulerUniverse is the JobUniverse of DAG manager jobs.
const SchedulerUniverse = 7

func (s JobStatus) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobRunning:
		return "running"
	case JobHeld:
		return "held"
	default:
		return "unknown"
	}
}

// Job attribute names.
const (
	AttrClusterID            = "ClusterId"
	AttrProcID               = "ProcId"
	AttrOwner                = "Owner"
	AttrAccountingGroup      = "AccountingGroup"
	AttrJobStatus            = "JobStatus"
	AttrJobUniverse          = "JobUniverse"
	AttrDesiredUsageModel    = "DESIRED_usage_model"
	AttrDesiredSites         = "DESIRED_Sites"
	AttrMatchSite            = "MATCH_GLIDEIN_Site"
	AttrMatchResourceName    = "MATCH_EXP_JOBGLIDEIN_ResourceName"
	AttrQDate                = "QDate"
	AttrJobCurrentStartDate  = "JobCurrentStartDate"
	AttrEnteredCurrentStatus = "EnteredCurrentStatus"
	AttrRemoteUserCpu        = "RemoteUserCpu"
	AttrRequestCpus          = "RequestCpus"
	AttrRequestMemory        = "RequestMemory"
	AttrRequestDisk          = "RequestDisk"
	AttrRequestGpus          = "RequestGpus"
	AttrResidentSetSize      = "ResidentSetSize"
	AttrResidentSetSizeRaw   = "ResidentSetSize_RAW"
	AttrDiskUsage            = "DiskUsage"
	AttrDiskUsageRaw         = "DiskUsage_RAW"
	AttrAssignedGpus         = "AssignedGPUs"
	AttrGpusProvisioned      = "GPUsProvisioned"
	AttrGpusUsage            = "GPUsUsage"
)

// Status returns the record's JobStatus, or JobUnknown when it is absent or
// not an integer.
func Status(r Record) JobStatus {
	s, err := r.Int(AttrJobStatus)
	if err != nil {
		return JobUnknown
	}
	return JobStatus(s)
}

// IsSchedulerUniverse reports whether the job is a DAG manager job.
func IsSchedulerUniverse(r Record) bool {
	u, err := r.Int(AttrJobUniverse)
	return err == nil && u == SchedulerUniverse
}
