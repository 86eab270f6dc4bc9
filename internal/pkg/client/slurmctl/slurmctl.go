// Package slurmctl reads the node inventory of a Slurm cluster through sinfo
// and presents every node as a partitionable slot record.
package slurmctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"poolmon/internal/pkg/model"
	"poolmon/internal/pkg/pool"
)

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default Client.
func Default() *Client { return defaultClient }

// ExecCommandFunc matches exec.CommandContext so tests can stand in for sinfo.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client runs sinfo against the local slurmctld.
type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
	sinfoBin    string
}

// New returns a Client that executes the sinfo found on PATH.
func New(logger *slog.Logger) *Client {
	return (&Client{sinfoBin: "sinfo"}).Set(exec.CommandContext, logger)
}

func (c *Client) Set(exec ExecCommandFunc, logger *slog.Logger) *Client {
	c.execCommand = exec
	c.logger = logger
	return c
}

// WithBinary overrides the sinfo executable.
func (c *Client) WithBinary(sinfo string) *Client {
	if sinfo != "" {
		c.sinfoBin = sinfo
	}
	return c
}

// sinfo -N prints one line per node and partition:
// NODE|PARTITION|STATE|MEMORY(MB)|FREE_MEM(MB)|CPUS(A/I/O/T)|GRES|TMP_DISK(MB)
const nodeFormat = "%N|%P|%t|%m|%e|%C|%G|%d"

// Slot states reported for nodes.
const (
	StateUnclaimed = "Unclaimed"
	StateDrained   = "Drained"
	StateDown      = "Down"
)

// AttrPartitions lists the partitions a node belongs to.
const AttrPartitions = "Partitions"

// node is one line of sinfo output after merging partitions.
type node struct {
	name       string
	partitions []string
	state      string
	memory     int64
	freeMemory int64
	allocCPUs  int64
	idleCPUs   int64
	totalCPUs  int64
	gpus       int64
	tmpDisk    int64
}

// Slots returns every node of the cluster, optionally restricted to one
// partition, as partitionable slot records. Nodes listed under several
// partitions are reported once.
func (c *Client) Slots(ctx context.Context, partition string) (model.Records, error) {
	args := []string{"-h", "-N"}
	if partition != "" {
		args = append(args, "-p", partition)
	}
	args = append(args, "-o", nodeFormat)

	cmd := c.execCommand(ctx, c.sinfoBin, args...)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		c.logger.Error("failed to exec sinfo command", "cmd", cmd.String(), "err", err)
		return nil, pool.Transient(fmt.Errorf("run %s: %w", c.sinfoBin, err))
	}

	nodes := c.parseNodes(out)
	records := make(model.Records, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, n.record())
	}
	return records, nil
}

func (c *Client) parseNodes(out []byte) []*node {
	var order []*node
	byName := make(map[string]*node)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 8 {
			c.logger.Warn("invalid sinfo output line, skip", "line", line)
			continue
		}
		partition := strings.TrimSuffix(fields[1], "*")
		if n, ok := byName[fields[0]]; ok {
			n.partitions = append(n.partitions, partition)
			continue
		}
		alloc, idle, _, total, ok := parseCPUs(fields[5])
		if !ok {
			c.logger.Warn("invalid sinfo cpu counts, skip", "line", line)
			continue
		}
		n := &node{
			name:       fields[0],
			partitions: []string{partition},
			state:      fields[2],
			memory:     atoi(fields[3]),
			freeMemory: atoi(fields[4]),
			allocCPUs:  alloc,
			idleCPUs:   idle,
			totalCPUs:  total,
			gpus:       gresGPUs(fields[6]),
			tmpDisk:    atoi(fields[7]),
		}
		byName[n.name] = n
		order = append(order, n)
	}
	return order
}

// record maps a node onto the slot attributes HTCondor advertises for a
// partitionable slot. Disk is reported in KB like a startd does.
func (n *node) record() model.Record {
	var r model.Record
	r.Set(model.AttrName, model.String(n.name))
	r.Set(model.AttrSlotType, model.String(model.SlotPartitionable))
	r.Set(model.AttrState, model.String(slotState(n.state, n.allocCPUs)))
	r.Set(AttrPartitions, model.String(strings.Join(n.partitions, ",")))

	r.Set(model.AttrTotalCpus, model.Int(n.totalCPUs))
	r.Set(model.AttrTotalSlotCpus, model.Int(n.totalCPUs))
	r.Set(model.AttrCpus, model.Int(n.idleCPUs))

	r.Set(model.AttrTotalMemory, model.Int(n.memory))
	r.Set(model.AttrTotalSlotMemory, model.Int(n.memory))
	r.Set(model.AttrMemory, model.Int(n.freeMemory))

	disk := n.tmpDisk * 1024
	r.Set(model.AttrTotalDisk, model.Int(disk))
	r.Set(model.AttrTotalSlotDisk, model.Int(disk))
	r.Set(model.AttrDisk, model.Int(disk))

	r.Set(model.AttrTotalGpus, model.Int(n.gpus))
	r.Set(model.AttrTotalSlotGpus, model.Int(n.gpus))
	// sinfo does not say how many GPUs are allocated, only whether the node is busy.
	free := n.gpus
	if n.allocCPUs > 0 {
		free = 0
	}
	r.Set(model.AttrGpus, model.Int(free))
	return r
}

// slotState folds Slurm's compact node states into slot states. A trailing
// '*' (not responding) or '~' (powered down) marks the node down.
func slotState(s string, allocCPUs int64) string {
	switch {
	case strings.HasSuffix(s, "*"), strings.HasSuffix(s, "~"), strings.HasPrefix(s, "down"):
		return StateDown
	case strings.HasPrefix(s, "drain"), strings.HasPrefix(s, "drng"):
		return StateDrained
	case s == "alloc", s == "mix", allocCPUs > 0:
		return model.SlotStateClaimed
	case s == "idle":
		return StateUnclaimed
	}
	return model.SlotStateUnknown
}

// parseCPUs splits sinfo's "allocated/idle/other/total" CPU counts.
func parseCPUs(s string) (alloc, idle, other, total int64, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	var n [4]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		n[i] = v
	}
	return n[0], n[1], n[2], n[3], true
}

// gresGPUs sums the gpu entries of a GRES list such as
// "gpu:a100:4(S:0-1),shard:8". "(null)" means none.
func gresGPUs(gres string) int64 {
	var total int64
	for _, item := range strings.Split(gres, ",") {
		item, _, _ = strings.Cut(item, "(")
		parts := strings.Split(item, ":")
		if len(parts) < 2 || parts[0] != "gpu" {
			continue
		}
		if v, err := strconv.ParseInt(parts[len(parts)-1], 10, 64); err == nil {
			total += v
		}
	}
	return total
}

func atoi(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}
