package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
pool:
  address: cm.example.org
  prefix: fifemon.jobs
  bucketInterval: 300
  retries: 2
  retryDelay: 5s
  concurrency: 8
  scheddConstraint: 'CMSGWMS_Type =!= "prodschedd"'
slots:
  weighting: gpu
  totalsOnly: true
server:
  addr: 127.0.0.1:9000
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, SourceCondor, cfg.Pool.Source)
	assert.Equal(t, "cm.example.org", cfg.Pool.Address)
	assert.Equal(t, 5*time.Minute, cfg.Pool.Bucket())
	assert.Equal(t, 5*time.Second, cfg.Pool.RetryDelayDuration())
	assert.Equal(t, 2, cfg.Pool.Retries)
	assert.Equal(t, "gpu", cfg.Slots.Weighting)
	assert.True(t, cfg.Slots.TotalsOnly)
	assert.True(t, cfg.Slots.JobResources, "defaults survive partial sections")
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "10s", cfg.Server.ShutdownTimeout)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"bucket too wide":   "pool: {bucketInterval: 3600}",
		"no retries":        "pool: {retries: 0}",
		"bad delay":         "pool: {retryDelay: soon}",
		"unknown source":    "pool: {source: pbs}",
		"unknown weighting": "slots: {weighting: disk}",
		"slurmdb unset":     "pool: {source: slurmdb}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	cfg, err := Parse([]byte("pool: {source: slurmdb}\nslurmdb: {ClusterName: linux, host: db.example.org}"))
	require.NoError(t, err)
	assert.Equal(t, 3306, cfg.Slurmdb.Port)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poolmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pool.Concurrency)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
