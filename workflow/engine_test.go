package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runArgs struct {
	mu    sync.Mutex
	order []string
}

func (a *runArgs) add(name string) {
	a.mu.Lock()
	a.order = append(a.order, name)
	a.mu.Unlock()
}

func recordTask(name string, deps ...string) *Task[*runArgs] {
	return &Task[*runArgs]{
		Name:      name,
		DependsOn: deps,
		Executor: func(ctx context.Context, args *runArgs) (*TaskResult, error) {
			args.add(name)
			return nil, nil
		},
	}
}

func TestExecutor_RespectsDependencies(t *testing.T) {
	te := NewTaskExecutor(
		recordTask("report", "bars", "fundamentals"),
		recordTask("bars"),
		recordTask("fundamentals"),
	)

	args := &runArgs{}
	results, err := te.Run(context.Background(), []string{"report", "bars", "fundamentals"}, args)
	require.NoError(t, err)

	require.Len(t, args.order, 3)
	assert.Equal(t, "report", args.order[2])
	for _, r := range results {
		assert.Equal(t, StateCompleted, r.State)
	}
}

func TestExecutor_RunsReadyTasksInParallel(t *testing.T) {
	var running, peak atomic.Int64
	slow := func(name string) *Task[*runArgs] {
		return &Task[*runArgs]{
			Name: name,
			Executor: func(ctx context.Context, args *runArgs) (*TaskResult, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				running.Add(-1)
				return nil, nil
			},
		}
	}

	te := NewTaskExecutor(slow("a"), slow("b"), slow("c"))
	_, err := te.Run(context.Background(), te.GetTaskNames(), &runArgs{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), peak.Load())
}

func TestExecutor_ErrorModes(t *testing.T) {
	failing := func(mode ErrorMode) *Task[*runArgs] {
		return &Task[*runArgs]{
			Name:    "fetch",
			OnError: mode,
			Executor: func(ctx context.Context, args *runArgs) (*TaskResult, error) {
				return nil, errors.New("upstream down")
			},
		}
	}

	te := NewTaskExecutor(failing(ErrorModeStop), recordTask("after", "fetch"))
	_, err := te.Run(context.Background(), []string{"fetch", "after"}, &runArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	te = NewTaskExecutor(failing(ErrorModeSkip), recordTask("after", "fetch"), recordTask("other"))
	args := &runArgs{}
	results, err := te.Run(context.Background(), []string{"fetch", "after", "other"}, args)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, results["fetch"].State)
	assert.Equal(t, StateSkipped, results["after"].State)
	assert.Equal(t, StateCompleted, results["other"].State)
	assert.Equal(t, []string{"other"}, args.order)
}

func TestExecutor_SkipIf(t *testing.T) {
	task := recordTask("persist")
	task.SkipIf = func(ctx context.Context, args *runArgs) bool { return true }

	args := &runArgs{}
	results, err := NewTaskExecutor(task).Run(context.Background(), []string{"persist"}, args)
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, results["persist"].State)
	assert.Empty(t, args.order)
}

func TestExecutor_PanicBecomesFailure(t *testing.T) {
	task := &Task[*runArgs]{
		Name:    "boom",
		OnError: ErrorModeSkip,
		Executor: func(ctx context.Context, args *runArgs) (*TaskResult, error) {
			panic("bad input")
		},
	}
	results, err := NewTaskExecutor(task).Run(context.Background(), []string{"boom"}, &runArgs{})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, results["boom"].State)
	assert.Contains(t, results["boom"].Error.Error(), "bad input")
}

func TestExecutor_UnknownAndCircular(t *testing.T) {
	te := NewTaskExecutor(recordTask("a", "b"), recordTask("b", "a"))

	_, err := te.Run(context.Background(), []string{"a", "b"}, &runArgs{})
	assert.ErrorContains(t, err, "circular")

	_, err = te.Run(context.Background(), []string{"missing"}, &runArgs{})
	assert.ErrorContains(t, err, "not found")
}

func TestExecutor_UnrequestedDependencyIgnored(t *testing.T) {
	te := NewTaskExecutor(recordTask("a"), recordTask("b", "a"))
	args := &runArgs{}
	_, err := te.Run(context.Background(), []string{"b"}, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, args.order)
}
