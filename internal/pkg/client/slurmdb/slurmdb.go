// Package slurmdb reads the job queue of a Slurm cluster from its accounting
// database and presents it as pool job records.
package slurmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"poolmon/config"
	"poolmon/internal/pkg/model"
	"poolmon/internal/pkg/pool"
)

// Client wraps a read-only GORM connection to slurm_acct_db.
type Client struct {
	DB          *gorm.DB
	ClusterName string
	logger      *slog.Logger
	nodes       NodeSource
}

// NodeSource lists the cluster's nodes as slot records. The accounting
// database does not track node state, so slot queries are delegated to it.
type NodeSource interface {
	Slots(ctx context.Context, partition string) (model.Records, error)
}

// WithNodes sets the source answering slot queries.
func (c *Client) WithNodes(n NodeSource) *Client {
	c.nodes = n
	return c
}

var _ pool.QueryService = (*Client)(nil)

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a read-only GORM Client configured from config.Slurmdb.
func New(cfg config.Slurmdb, logger *slog.Logger) (*Client, error) {
	dsn := buildDSN(cfg)
	logger.Debug("build dsn", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if d := parseDuration(cfg.ConnMaxLifetime); d > 0 {
			sqlDB.SetConnMaxLifetime(d)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
	}

	enforceReadOnly(db)

	return &Client{DB: db, ClusterName: cfg.ClusterName, logger: logger}, nil
}

// buildDSN formats user:pass@tcp(host:port)/dbname?params for go-sql-driver/mysql.
func buildDSN(cfg config.Slurmdb) string {
	creds := cfg.User
	if cfg.Password != "" {
		creds = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}
	addr := fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)

	params := make([]string, 0, 8)
	if cfg.Charset != "" {
		params = append(params, "charset="+cfg.Charset)
	}
	params = append(params, fmt.Sprintf("parseTime=%t", cfg.ParseTime))
	if cfg.Loc != "" {
		params = append(params, "loc="+url.QueryEscape(cfg.Loc))
	}
	if cfg.TLS != "" {
		params = append(params, "tls="+cfg.TLS)
	}
	// See https://github.com/go-sql-driver/mysql#dsn-data-source-name
	params = append(params, "timeout=5s", "readTimeout=5s", "writeTimeout=5s")

	return fmt.Sprintf("%s@%s/%s?%s", creds, addr, cfg.Database, strings.Join(params, "&"))
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default Client.
func Default() *Client { return defaultClient }

// enforceReadOnly installs GORM callbacks that reject write operations and non-read raw SQL.
func enforceReadOnly(db *gorm.DB) {
	block := func(tx *gorm.DB) {
		tx.AddError(errors.New("slurmdb client is read-only"))
	}
	_ = db.Callback().Create().Before("gorm:create").Register("poolmon:readonly_create", block)
	_ = db.Callback().Update().Before("gorm:update").Register("poolmon:readonly_update", block)
	_ = db.Callback().Delete().Before("gorm:delete").Register("poolmon:readonly_delete", block)

	_ = db.Callback().Raw().Before("gorm:raw").Register("poolmon:readonly_raw", func(tx *gorm.DB) {
		if !readOnlySQL(tx.Statement.SQL.String()) {
			tx.AddError(errors.New("read-only: raw SQL must be SELECT/SHOW/DESCRIBE/EXPLAIN"))
		}
	})
}

func readOnlySQL(sql string) bool {
	up := strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "SHOW", "DESCRIBE", "EXPLAIN"} {
		if strings.HasPrefix(up, verb) {
			return true
		}
	}
	return false
}

// ListSources reports the cluster itself as the only job queue. Slurm has no
// separate slot daemons to list.
func (c *Client) ListSources(ctx context.Context, poolName string, typ pool.SourceType, constraint string) ([]pool.Source, error) {
	if typ != pool.Schedd {
		return nil, fmt.Errorf("list %s sources: %w", typ, pool.ErrUnsupported)
	}
	if constraint != "" {
		return nil, fmt.Errorf("source constraint %q: %w", constraint, pool.ErrUnsupported)
	}
	if strings.TrimSpace(c.ClusterName) == "" {
		return nil, fmt.Errorf("cluster name is empty in slurmdb Client")
	}
	return []pool.Source{{
		Name:    c.ClusterName,
		Address: c.ClusterName,
		Type:    pool.Schedd,
		Pool:    poolName,
	}}, nil
}

// Query returns the cluster's unfinished jobs as records, filtered by an
// optional JobStatus==N constraint. Projections are ignored; every record
// carries the full attribute set. Slot queries against the collector go to
// the NodeSource, where a constraint names a single partition.
func (c *Client) Query(ctx context.Context, src pool.Source, q pool.Query) (model.Records, error) {
	if c != nil && c.nodes != nil && q.Target == pool.Slots && src.Type == pool.Collector {
		return c.nodes.Slots(ctx, strings.TrimSpace(q.Constraint))
	}
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil slurmdb Client")
	}
	if q.Target != pool.Jobs || src.Type != pool.Schedd {
		return nil, fmt.Errorf("%s query against %s: %w", q.Target, src, pool.ErrUnsupported)
	}
	want, filtered, err := parseConstraint(q.Constraint)
	if err != nil {
		return nil, err
	}

	gpuTRES, err := c.gpuTRESID(ctx)
	if err != nil {
		return nil, pool.Transient(err)
	}
	rows, err := c.activeJobs(ctx)
	if err != nil {
		return nil, pool.Transient(err)
	}

	records := make(model.Records, 0, len(rows))
	for _, row := range rows {
		r, ok := jobRecord(row, gpuTRES)
		if !ok {
			c.logger.Debug("skip job in unmapped state", "job", row.JobID, "state", row.State)
			continue
		}
		if filtered && model.Status(r) != want {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (c *Client) activeJobs(ctx context.Context) (model.SlurmJobs, error) {
	var rows model.SlurmJobs
	err := c.DB.WithContext(ctx).
		Table(model.JobTableName(c.ClusterName)+" AS j").
		Select("j.id_job, a.`user`, j.account, j.`partition`, j.state, j.priority, j.cpus_req, j.mem_req, "+
			"j.time_submit, j.time_start, j.time_suspended, j.tres_req").
		Joins(fmt.Sprintf("JOIN %s AS a ON a.id_assoc = j.id_assoc", model.AssocTableName(c.ClusterName))).
		Where("j.time_end = 0 AND j.deleted = 0").
		Where("(j.state & ?) IN ?", model.SlurmJobStateBase,
			[]int{model.SlurmJobPending, model.SlurmJobRunning, model.SlurmJobSuspended}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// gpuTRESID returns the id of the gres/gpu TRES, or 0 when the cluster has none.
func (c *Client) gpuTRESID(ctx context.Context) (int, error) {
	var ids []int
	err := c.DB.WithContext(ctx).
		Table("tres_table").
		Where("type = ? AND name = ? AND deleted = 0", "gres", "gpu").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}
