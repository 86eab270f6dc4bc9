package model

import "fmt"

// SlurmJobs is a slice of SlurmJob.
type SlurmJobs []SlurmJob

// SlurmJob is an unfinished row of <cluster>_job_table joined with the
// owning association's user name.
//
// Columns reference:
//   - state:    int unsigned, low byte is the base state, high bits are flags
//   - mem_req:  bigint unsigned, MB; top bit set means per CPU
//   - tres_req: text, "id=count" pairs separated by commas
type SlurmJob struct {
	JobID         uint32 `gorm:"column:id_job" json:"id_job"`
	User          string `gorm:"column:user" json:"user"`
	Account       string `gorm:"column:account" json:"account"`
	Partition     string `gorm:"column:partition" json:"partition"`
	State         uint32 `gorm:"column:state" json:"state"`
	Priority      uint32 `gorm:"column:priority" json:"priority"`
	CPUsReq       uint32 `gorm:"column:cpus_req" json:"cpus_req"`
	MemReq        uint64 `gorm:"column:mem_req" json:"mem_req"`
	TimeSubmit    int64  `gorm:"column:time_submit" json:"time_submit"`
	TimeStart     int64  `gorm:"column:time_start" json:"time_start"`
	TimeSuspended int64  `gorm:"column:time_suspended" json:"time_suspended"`
	TRESReq       string `gorm:"column:tres_req" json:"tres_req"`
}

// Slurm base job states as stored in job_table.state.
const (
	SlurmJobPending   = 0
	SlurmJobRunning   = 1
	SlurmJobSuspended = 2
	SlurmJobStateBase = 0xff
)

// SlurmMemPerCPU flags a mem_req value given per CPU rather than per node.
const SlurmMemPerCPU uint64 = 1 << 63

// JobTableName is the cluster-specific job table.
func JobTableName(cluster string) string { return fmt.Sprintf("%s_job_table", cluster) }

// AssocTableName is the cluster-specific association table.
func AssocTableName(cluster string) string { return fmt.Sprintf("%s_assoc_table", cluster) }
