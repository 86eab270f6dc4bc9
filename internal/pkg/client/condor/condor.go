// Package condor answers pool queries by running the HTCondor command line
// tools with JSON output.
package condor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
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

// ExecCommandFunc matches exec.CommandContext so tests can stand in for the
// condor tools.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client runs condor_status and condor_q.
type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
	statusBin   string
	queueBin    string
}

var _ pool.QueryService = (*Client)(nil)

// New returns a Client that executes the tools found on PATH.
func New(logger *slog.Logger) *Client {
	return (&Client{statusBin: "condor_status", queueBin: "condor_q"}).Set(exec.CommandContext, logger)
}

func (c *Client) Set(exec ExecCommandFunc, logger *slog.Logger) *Client {
	c.execCommand = exec
	c.logger = logger
	return c
}

// WithBinaries overrides the tool names, e.g. to point at absolute paths.
func (c *Client) WithBinaries(status, queue string) *Client {
	if status != "" {
		c.statusBin = status
	}
	if queue != "" {
		c.queueBin = queue
	}
	return c
}

// ListSources lists the daemons of one type registered with the pool's
// collector.
// condor_status -pool <pool> -schedd|-startd -json -attributes Name,MyAddress [-constraint <c>]
func (c *Client) ListSources(ctx context.Context, poolAddr string, typ pool.SourceType, constraint string) ([]pool.Source, error) {
	var flag string
	switch typ {
	case pool.Schedd:
		flag = "-schedd"
	case pool.Startd:
		flag = "-startd"
	default:
		return nil, fmt.Errorf("list %s sources: %w", typ, pool.ErrUnsupported)
	}
	args := poolArgs(poolAddr)
	args = append(args, flag, "-json", "-attributes", model.AttrName+","+model.AttrMyAddress)
	args = appendConstraint(args, constraint)

	ads, err := c.run(ctx, c.statusBin, args...)
	if err != nil {
		return nil, err
	}
	sources := make([]pool.Source, 0, len(ads))
	for _, ad := range ads {
		name := ad.StringOr(model.AttrName, "")
		if name == "" {
			c.logger.Warn("daemon ad without a name, skip", "pool", poolAddr, "type", typ)
			continue
		}
		sources = append(sources, pool.Source{
			Name:    name,
			Address: ad.StringOr(model.AttrMyAddress, ""),
			Type:    typ,
			Pool:    poolAddr,
		})
	}
	return sources, nil
}

// Query reads job records from a schedd or slot records from a collector.
// condor_q -pool <pool> -name <schedd> -allusers -json ...
// condor_status -pool <pool> -startd -json ...
func (c *Client) Query(ctx context.Context, src pool.Source, q pool.Query) (model.Records, error) {
	switch {
	case q.Target == pool.Jobs && src.Type == pool.Schedd:
		args := poolArgs(src.Pool)
		args = append(args, "-name", src.Name, "-allusers", "-json")
		args = appendProjection(args, q.Projection)
		args = appendConstraint(args, q.Constraint)
		return c.run(ctx, c.queueBin, args...)
	case q.Target == pool.Slots && src.Type == pool.Collector:
		args := poolArgs(src.Pool)
		args = append(args, "-startd", "-json")
		args = appendProjection(args, q.Projection)
		args = appendConstraint(args, q.Constraint)
		return c.run(ctx, c.statusBin, args...)
	}
	return nil, fmt.Errorf("%s query against %s: %w", q.Target, src, pool.ErrUnsupported)
}

// run executes one tool. A tool that fails to run or exits non-zero is a
// transient failure; output that does not decode is not.
func (c *Client) run(ctx context.Context, name string, args ...string) (model.Records, error) {
	cmd := c.execCommand(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		c.logger.Error("failed to exec condor command", "cmd", cmd.String(), "stderr", stderr, "err", err)
		if stderr != "" {
			err = fmt.Errorf("%w: %s", err, stderr)
		}
		return nil, pool.Transient(fmt.Errorf("%s: %w", name, err))
	}
	ads, err := parseAds(out)
	if err != nil {
		c.logger.Error("invalid condor command output", "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ads, nil
}

// parseAds decodes the JSON array printed by -json. An empty queue prints
// nothing at all.
func parseAds(out []byte) (model.Records, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return model.Records{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ads: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode ads: trailing data after ad list")
	}
	records := make(model.Records, 0, len(raw))
	for _, ad := range raw {
		records = append(records, model.NewRecord(ad))
	}
	return records, nil
}

func poolArgs(poolAddr string) []string {
	if poolAddr == "" {
		return []string{}
	}
	return []string{"-pool", poolAddr}
}

func appendProjection(args, projection []string) []string {
	if len(projection) == 0 {
		return args
	}
	return append(args, "-attributes", strings.Join(projection, ","))
}

func appendConstraint(args []string, constraint string) []string {
	if constraint == "" {
		return args
	}
	return append(args, "-constraint", constraint)
}
