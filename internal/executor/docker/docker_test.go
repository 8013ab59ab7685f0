package docker_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/docker"
)

func TestDockerExecutor(t *testing.T) {
	// Requires a running Docker daemon; opt in explicitly.
	if os.Getenv("DOCKER_TESTS") == "" {
		t.Skip("set DOCKER_TESTS=1 to run docker executor tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := docker.DefaultConfig()
	// reduce pool size for local test speed
	cfg.PoolSize = 1

	exec, err := docker.New(cfg, logger)
	require.NoError(t, err, "should initialize docker executor without error")
	defer exec.Close()

	// Wait a moment for the pool manager to warm up a container
	time.Sleep(2 * time.Second)

	t.Run("successful execution", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code: `print("Hello from test sandbox!")`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusSuccess, res.Status)
		assert.Contains(t, res.Output, "Hello from test sandbox!")
		assert.Greater(t, res.Elapsed, time.Duration(0))
	})

	t.Run("input stream", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code:  `print(input())`,
			Input: "42\n",
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusSuccess, res.Status)
		assert.Contains(t, res.Output, "42")
	})

	t.Run("syntax error", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code: `print("Missing parenthesis"`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusRuntimeError, res.Status)
		assert.Contains(t, res.Output, "SyntaxError")
	})

	t.Run("infinite loop timeout", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code:      `while True: pass`,
			TimeLimit: 2 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.StatusTimeLimitExceeded, res.Status)
		assert.Contains(t, res.Output, "timed out")
	})
}
