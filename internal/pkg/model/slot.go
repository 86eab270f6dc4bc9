package model

// Slot attribute names as advertised by execution daemons.
const (
	AttrSlotType           = "SlotType"
	AttrState              = "State"
	AttrName               = "Name"
	AttrSlotWeight         = "SlotWeight"
	AttrCpus               = "Cpus"
	AttrTotalSlotCpus      = "TotalSlotCpus"
	AttrTotalCpus          = "TotalCpus"
	AttrDisk               = "Disk"
	AttrTotalSlotDisk      = "TotalSlotDisk"
	AttrTotalDisk          = "TotalDisk"
	AttrMemory             = "Memory"
	AttrTotalSlotMemory    = "TotalSlotMemory"
	AttrTotalMemory        = "TotalMemory"
	AttrGpus               = "Gpus"
	AttrTotalSlotGpus      = "TotalSlotGpus"
	AttrTotalGpus          = "TotalGpus"
	AttrLoadAvg            = "LoadAvg"
	AttrTotalCondorLoadAvg = "TotalCondorLoadAvg"
	AttrTotalLoadAvg       = "TotalLoadAvg"
	AttrRemoteGroup        = "RemoteGroup"
	AttrRemoteOwner        = "RemoteOwner"
	AttrTotalGpusUsage     = "TotalGPUs-usage"
	AttrTotalGpusUsedMem   = "TotalGPUs-used_mem"
	AttrAvgGpusUsage       = "AvgGPUs-usage"
	AttrAvgGpusUsedMem     = "AvgGPUs-used_mem"
	AttrKflops             = "KFlops"
	AttrIsGlidein          = "IS_GLIDEIN"
	AttrMyAddress          = "MyAddress"
)

// Slot types.
const (
	SlotStatic               = "Static"
	SlotPartitionable        = "Partitionable"
	SlotDynamic              = "Dynamic"
	GlideinSuffix            = "Glidein"
	SlotPartitionableGlidein = SlotPartitionable + GlideinSuffix
	SlotStateClaimed         = "Claimed"
	SlotStateUnknown         = "Unknown"
)
