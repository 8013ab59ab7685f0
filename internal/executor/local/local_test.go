package local_test

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/local"
)

func newTestExecutor(t *testing.T, mutate func(*local.Config)) *local.Executor {
	t.Helper()

	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found in PATH, skipping local executor tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := local.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	e, err := local.New(cfg, logger)
	require.NoError(t, err)
	return e
}

func TestLocalExecutor(t *testing.T) {
	e := newTestExecutor(t, nil)

	t.Run("successful execution", func(t *testing.T) {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{
			Code: `print("Hello, World!")`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusSuccess, res.Status)
		assert.Equal(t, "Hello, World!\n", res.Output)
		assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
	})

	t.Run("reads from input stream", func(t *testing.T) {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{
			Code:  `print(input())`,
			Input: "42",
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusSuccess, res.Status)
		assert.Contains(t, res.Output, "42")
	})

	t.Run("runtime error returns stderr", func(t *testing.T) {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{
			Code: `raise ValueError("boom")`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusRuntimeError, res.Status)
		assert.Contains(t, res.Output, "ValueError")
		assert.NotEmpty(t, res.Output)
	})

	t.Run("syntax error is a runtime error of the interpreter", func(t *testing.T) {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{
			Code: `print("missing parenthesis"`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusRuntimeError, res.Status)
		assert.Contains(t, res.Output, "SyntaxError")
	})

	t.Run("reports peak memory on completed runs", func(t *testing.T) {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{
			Code: `print(len("x" * 1000000))`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusSuccess, res.Status)
		// Advisory metric: non-negative always, positive where rusage exists.
		assert.GreaterOrEqual(t, res.MemoryKB, int64(0))
	})
}

func TestLocalExecutorTimeout(t *testing.T) {
	e := newTestExecutor(t, nil)

	start := time.Now()
	res, err := e.Execute(context.Background(), executor.ExecutionRequest{
		Code:      `while True: pass`,
		TimeLimit: 500 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, executor.StatusTimeLimitExceeded, res.Status)
	// Diagnostic text, never partial program output.
	assert.Contains(t, res.Output, "timed out")
	// Bounded overhead: well under 2x the limit.
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int64(0), res.MemoryKB)
}

func TestLocalExecutorKillsDescendants(t *testing.T) {
	e := newTestExecutor(t, nil)

	// The submission spawns a child that would outlive it; the group kill
	// must take both down within the reap grace.
	code := `
import subprocess
subprocess.Popen(["sleep", "60"])
while True:
    pass
`
	start := time.Now()
	res, err := e.Execute(context.Background(), executor.ExecutionRequest{
		Code:      code,
		TimeLimit: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, executor.StatusTimeLimitExceeded, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLocalExecutorClampsTimeLimit(t *testing.T) {
	e := newTestExecutor(t, func(cfg *local.Config) {
		cfg.MaxTimeLimit = 300 * time.Millisecond
	})

	start := time.Now()
	res, err := e.Execute(context.Background(), executor.ExecutionRequest{
		Code:      `while True: pass`,
		TimeLimit: 10 * time.Second, // silently clamped to the ceiling
	})
	require.NoError(t, err)

	assert.Equal(t, executor.StatusTimeLimitExceeded, res.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLocalExecutorLaunchFailure(t *testing.T) {
	e := newTestExecutor(t, func(cfg *local.Config) {
		cfg.Interpreter = "/nonexistent/interpreter"
	})

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{
		Code: `print("never runs")`,
	})
	require.NoError(t, err)
	assert.Equal(t, executor.StatusSetupError, res.Status)
	assert.NotEmpty(t, res.Output)
}

func TestLocalExecutorCancellation(t *testing.T) {
	e := newTestExecutor(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := e.Execute(ctx, executor.ExecutionRequest{
		Code:      `while True: pass`,
		TimeLimit: 5 * time.Second,
	})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestLocalExecutorConcurrentIsolation(t *testing.T) {
	e := newTestExecutor(t, nil)

	// Identical source, different inputs: each invocation must only ever
	// see its own workspace.
	inputs := []string{"alpha", "beta", "gamma", "delta"}

	var wg sync.WaitGroup
	results := make([]*executor.ExecutionOutcome, len(inputs))
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in string) {
			defer wg.Done()
			res, err := e.Execute(context.Background(), executor.ExecutionRequest{
				Code:  `print("got:" + input())`,
				Input: in,
			})
			assert.NoError(t, err)
			results[i] = res
		}(i, in)
	}
	wg.Wait()

	for i, in := range inputs {
		require.NotNil(t, results[i])
		assert.Equal(t, executor.StatusSuccess, results[i].Status)
		assert.Equal(t, "got:"+in+"\n", results[i].Output)
	}
}

func TestLocalExecutorIdempotence(t *testing.T) {
	e := newTestExecutor(t, nil)

	req := executor.ExecutionRequest{
		Code:  `print(sum(int(x) for x in input().split()))`,
		Input: "1 2 3",
	}

	first, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), req)
	require.NoError(t, err)

	// Timing fields may differ between runs; status and output must not.
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, "6\n", first.Output)
}
