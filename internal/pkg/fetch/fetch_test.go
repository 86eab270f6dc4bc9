package fetch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolmon/internal/pkg/model"
	"poolmon/internal/pkg/pool"
)

var testSource = pool.Source{Name: "sched1.example.org", Type: pool.Schedd}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func countLevel(buf *bytes.Buffer, level string) int {
	return strings.Count(buf.String(), "level="+level)
}

func TestDoSucceedsFirstTime(t *testing.T) {
	logger, buf := bufferLogger()
	want := model.Records{model.NewRecord(map[string]any{"Owner": "alice"})}

	calls := 0
	got, err := Do(context.Background(), logger, testSource, Policy{Attempts: 3}, func(context.Context) (model.Records, error) {
		calls++
		return want, nil
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
	assert.Zero(t, countLevel(buf, "WARN"))
}

func TestDoRecoversAfterTransientFailures(t *testing.T) {
	logger, buf := bufferLogger()

	calls := 0
	got, err := Do(context.Background(), logger, testSource, Policy{Attempts: 4, Delay: time.Millisecond}, func(context.Context) (model.Records, error) {
		calls++
		if calls < 3 {
			return nil, pool.Transient(errors.New("connection refused"))
		}
		return model.Records{model.NewRecord(nil)}, nil
	})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, countLevel(buf, "WARN"))
	assert.Zero(t, countLevel(buf, "ERROR"))
}

func TestDoExhausted(t *testing.T) {
	logger, buf := bufferLogger()

	calls := 0
	got, err := Do(context.Background(), logger, testSource, Policy{Attempts: 3, Delay: time.Millisecond}, func(context.Context) (model.Records, error) {
		calls++
		return nil, pool.Transient(errors.New("timed out"))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Nil(t, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, countLevel(buf, "WARN"))
	assert.Equal(t, 1, countLevel(buf, "ERROR"))
	assert.Contains(t, err.Error(), "schedd sched1.example.org")
}

func TestDoPermanentFailureStopsImmediately(t *testing.T) {
	logger, buf := bufferLogger()
	bad := errors.New("malformed listing")

	calls := 0
	_, err := Do(context.Background(), logger, testSource, Policy{Attempts: 5, Delay: time.Hour}, func(context.Context) (model.Records, error) {
		calls++
		return nil, bad
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, countLevel(buf, "ERROR"))
}

func TestDoZeroAttemptsStillTriesOnce(t *testing.T) {
	logger, _ := bufferLogger()

	calls := 0
	_, err := Do(context.Background(), logger, testSource, Policy{}, func(context.Context) (model.Records, error) {
		calls++
		return nil, pool.Transient(errors.New("down"))
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	logger, _ := bufferLogger()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	start := time.Now()
	_, err := Do(ctx, logger, testSource, Policy{Attempts: 10, Delay: time.Hour}, func(context.Context) (model.Records, error) {
		calls++
		cancel()
		return nil, pool.Transient(errors.New("down"))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestDoListing(t *testing.T) {
	logger, _ := bufferLogger()
	coll := pool.CollectorSource("cm.example.org")

	calls := 0
	srcs, err := Do(context.Background(), logger, coll, Policy{Attempts: 2, Delay: time.Millisecond}, func(context.Context) ([]pool.Source, error) {
		calls++
		if calls == 1 {
			return nil, pool.Transient(errors.New("collector busy"))
		}
		return []pool.Source{{Name: "sched1", Type: pool.Schedd}}, nil
	})

	require.NoError(t, err)
	assert.Len(t, srcs, 1)
	assert.Equal(t, 2, calls)
}
