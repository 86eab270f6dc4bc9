// Package pool defines the boundary to the service that answers queries
// about a batch pool: which daemons exist and what records they hold.
package pool

import (
	"context"
	"errors"
	"fmt"

	"poolmon/internal/pkg/model"
)

// SourceType is the kind of daemon a Source refers to.
type SourceType string

const (
	// Schedd sources hold job queues.
	Schedd SourceType = "schedd"
	// Startd sources advertise execution slots.
	Startd SourceType = "startd"
	// Collector is the pool's central registry; slot ads are read from it.
	Collector SourceType = "collector"
)

// Target selects which records a Query returns.
type Target string

const (
	Jobs  Target = "jobs"
	Slots Target = "slots"
)

// Source identifies one remote daemon.
type Source struct {
	Name    string
	Address string
	Type    SourceType
	// Pool is the collector address the source was discovered through.
	Pool string
}

func (s Source) String() string {
	if s.Name != "" {
		return fmt.Sprintf("%s %s", s.Type, s.Name)
	}
	return fmt.Sprintf("%s %s", s.Type, s.Address)
}

// CollectorSource refers to a pool's collector itself.
func CollectorSource(pool string) Source {
	return Source{Name: pool, Address: pool, Type: Collector, Pool: pool}
}

// Query is one record request. An empty Constraint matches everything.
type Query struct {
	Target     Target
	Constraint string
	Projection []string
}

// QueryService answers pool queries. Implementations wrap retryable I/O
// failures with Transient; any other error is final for that source.
type QueryService interface {
	ListSources(ctx context.Context, pool string, typ SourceType, constraint string) ([]Source, error)
	Query(ctx context.Context, src Source, q Query) (model.Records, error)
}

// ErrUnsupported is returned by services that cannot answer a kind of query.
var ErrUnsupported = errors.New("query not supported by this pool service")

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as a communication failure worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether any error in err's chain was marked Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
