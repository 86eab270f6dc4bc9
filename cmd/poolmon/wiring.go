package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"poolmon/config"
	"poolmon/internal/pkg/accounting"
	"poolmon/internal/pkg/aggregator"
	"poolmon/internal/pkg/client/condor"
	"poolmon/internal/pkg/client/slurmctl"
	"poolmon/internal/pkg/client/slurmdb"
	"poolmon/internal/pkg/fetch"
	"poolmon/internal/pkg/pool"
	"poolmon/internal/pkg/table"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newQueryService builds the backend selected by pool.source. The returned
// func releases its resources.
func newQueryService(cfg *config.Config, logger *slog.Logger) (pool.QueryService, func(), error) {
	switch cfg.Pool.Source {
	case config.SourceSlurmdb:
		c, err := slurmdb.New(cfg.Slurmdb, logger)
		if err != nil {
			return nil, nil, err
		}
		nodes := slurmctl.New(logger).WithBinary(cfg.Slurmctl.SinfoBin)
		slurmctl.SetDefault(nodes)
		c.WithNodes(nodes)
		slurmdb.SetDefault(c)
		return c, func() { _ = c.Close() }, nil
	case config.SourceCondor, "":
		c := condor.New(logger).WithBinaries(cfg.Condor.StatusBin, cfg.Condor.QueueBin)
		condor.SetDefault(c)
		return c, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown pool source %q", cfg.Pool.Source)
}

func aggregatorConfig(cfg *config.Config) (aggregator.Config, error) {
	w, err := accounting.ParseWeighting(cfg.Slots.Weighting)
	if err != nil {
		return aggregator.Config{}, err
	}
	return aggregator.Config{
		Pool:   cfg.Pool.Address,
		Bucket: cfg.Pool.Bucket(),
		Policy: fetch.Policy{
			Attempts: cfg.Pool.Retries,
			Delay:    cfg.Pool.RetryDelayDuration(),
		},
		Concurrency:      cfg.Pool.Concurrency,
		ScheddConstraint: cfg.Pool.ScheddConstraint,
		SlotConstraint:   cfg.Slots.Constraint,
		Weighting:        w,
		TotalsOnly:       cfg.Slots.TotalsOnly,
		JobResources:     cfg.Slots.JobResources,
	}, nil
}

// printSnapshot writes one "name value" line per counter, or a JSON array
// of points.
func printSnapshot(w io.Writer, s table.Snapshot, format string) error {
	points := s.Points("")
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.Name, strconv.FormatFloat(p.Value, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
