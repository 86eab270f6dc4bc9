// Package fetch runs pool queries with bounded retries so that one
// unreachable daemon only costs its own records.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"poolmon/internal/pkg/observability"
	"poolmon/internal/pkg/pool"
)

// ErrExhausted is returned once every attempt against a source has failed.
var ErrExhausted = errors.New("retries exhausted")

// Policy bounds the attempts made against one source.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy matches the probes' historical behaviour.
var DefaultPolicy = Policy{Attempts: 4, Delay: 30 * time.Second}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

// Do calls fn until it succeeds, fails with an error not marked
// pool.Transient, or the policy's attempts are used up, sleeping Delay
// between attempts. Every failed attempt is logged at warning level and the
// final failure at error level.
//
// On failure the zero T is returned; callers that do not care why a source
// produced nothing can ignore the error, which otherwise tells a dead source
// apart from an empty one.
func Do[T any](ctx context.Context, logger *slog.Logger, src pool.Source, p Policy, fn func(context.Context) (T, error)) (T, error) {
	kind := string(src.Type)
	var (
		result  T
		zero    T
		attempt int
	)
	op := func() error {
		attempt++
		observability.FetchAttempts.WithLabelValues(kind).Inc()
		v, err := fn(ctx)
		if err == nil {
			result = v
			return nil
		}
		retryable := pool.IsTransient(err)
		observability.FetchFailures.WithLabelValues(kind, strconv.FormatBool(retryable)).Inc()
		if !retryable {
			return backoff.Permanent(err)
		}
		logger.Warn("trouble communicating with source",
			"source", src.String(), "attempt", attempt, "max_attempts", p.Attempts, "err", err)
		return err
	}
	notify := func(_ error, wait time.Duration) {
		logger.Debug("retrying source", "source", src.String(), "retry_in", wait)
	}

	err := backoff.RetryNotify(op, p.backOff(ctx), notify)
	if err == nil {
		return result, nil
	}
	observability.SourcesDropped.WithLabelValues(kind).Inc()
	if pool.IsTransient(err) {
		logger.Error("trouble communicating with source, giving up",
			"source", src.String(), "attempts", attempt, "err", err)
		return zero, fmt.Errorf("%s: %w after %d attempts: %w", src, ErrExhausted, attempt, err)
	}
	logger.Error("query against source failed", "source", src.String(), "attempts", attempt, "err", err)
	return zero, fmt.Errorf("%s: %w", src, err)
}
