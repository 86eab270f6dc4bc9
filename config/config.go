package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Pool query backends.
const (
	SourceCondor  = "condor"
	SourceSlurmdb = "slurmdb"
)

type Config struct {
	Pool     Pool     `yaml:"pool"`
	Slots    Slots    `yaml:"slots"`
	Condor   Condor   `yaml:"condor"`
	Slurmdb  Slurmdb  `yaml:"slurmdb"`
	Slurmctl Slurmctl `yaml:"slurmctl"`
	Server   Server   `yaml:"server"`
}

// Pool describes which pool to read and how hard to try.
type Pool struct {
	// Source selects the backend answering pool queries.
	Source string `yaml:"source" validate:"oneof=condor slurmdb"`
	// Address is the collector host[:port]; empty means the local pool.
	Address string `yaml:"address"`
	// Prefix is prepended to every metric name when printing.
	Prefix string `yaml:"prefix"`
	// BucketInterval is the base age bucket width, in seconds.
	BucketInterval int    `yaml:"bucketInterval" validate:"gte=1,lt=3600"`
	Retries        int    `yaml:"retries" validate:"gte=1,lte=100"`
	RetryDelay     string `yaml:"retryDelay" validate:"duration"`
	// Concurrency bounds simultaneous source queries; 0 means unbounded.
	Concurrency      int    `yaml:"concurrency" validate:"gte=0"`
	ScheddConstraint string `yaml:"scheddConstraint"`
}

// Slots configures the slot pass.
type Slots struct {
	Weighting    string `yaml:"weighting" validate:"oneof=cpu gpu"`
	Constraint   string `yaml:"constraint"`
	TotalsOnly   bool   `yaml:"totalsOnly"`
	JobResources bool   `yaml:"jobResources"`
}

// Condor locates the HTCondor command line tools.
type Condor struct {
	StatusBin string `yaml:"statusBin"`
	QueueBin  string `yaml:"queueBin"`
}

// Slurmctl locates sinfo, which answers slot queries for the slurmdb source.
type Slurmctl struct {
	SinfoBin string `yaml:"sinfoBin"`
}

type Slurmdb struct {
	ClusterName     string `yaml:"ClusterName"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port" validate:"gte=0,lte=65535"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parseTime"`
	Loc             string `yaml:"loc"`
	TLS             string `yaml:"tls"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime string `yaml:"connMaxLifetime"`
}

type Server struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdownTimeout" validate:"omitempty,duration"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pool: Pool{
			Source:         SourceCondor,
			BucketInterval: 60,
			Retries:        4,
			RetryDelay:     "30s",
		},
		Slots: Slots{Weighting: "cpu", JobResources: true},
		Slurmdb: Slurmdb{
			Port:      3306,
			Database:  "slurm_acct_db",
			Charset:   "utf8mb4",
			ParseTime: false,
		},
		Server: Server{Addr: ":8080", ShutdownTimeout: "10s"},
	}
}

// Load reads a YAML config file from the given path over Default and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML over Default and validates the result.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return v
}

// Validate checks field ranges and the settings the selected source needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Pool.Source == SourceSlurmdb && (c.Slurmdb.ClusterName == "" || c.Slurmdb.Host == "") {
		return fmt.Errorf("invalid config: slurmdb source needs slurmdb.ClusterName and slurmdb.host")
	}
	return nil
}

// RetryDelayDuration returns the parsed delay between attempts.
func (p Pool) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(p.RetryDelay)
	return d
}

// Bucket returns the base age bucket width.
func (p Pool) Bucket() time.Duration {
	return time.Duration(p.BucketInterval) * time.Second
}
