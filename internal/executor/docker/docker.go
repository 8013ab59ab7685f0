// Package docker implements the executor.Executor interface inside
// pre-warmed, network-less Docker containers. It is the stronger-isolation
// alternative to the local process backend.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/code-runner/internal/executor"
)

// Executor implements the executor.Executor interface using Docker.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New creates a new Docker Executor and initializes the connection.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	// Make sure the image is pulled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	io.Copy(io.Discard, reader)
	logger.Info("docker image is ready")

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
	}

	exec.pool = NewPool(cli, cfg, logger)
	exec.pool.Start()

	return exec, nil
}

// Close shuts down the executor pool and docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs the submission in a sandboxed container and classifies the
// result into an outcome. The container is removed whatever happens.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionOutcome, error) {
	start := time.Now()

	// Get a pre-warmed container ID from the pool
	containerID, err := e.pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// Always ensure we clean up the container that we acquired
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	limit := e.clampTimeLimit(req.TimeLimit)

	// The timeout context covers only the supervised run itself.
	executeCtx, executeCancel := context.WithTimeout(ctx, limit)
	defer executeCancel()

	// The container runs `sleep infinity`, so we deliver the submission
	// through `docker exec python -c <code>` with stdin attached.
	execConfig := container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"python", "-c", req.Code},
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return setupOutcome(fmt.Sprintf("failed to create exec: %v", err), time.Since(start)), nil
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return setupOutcome(fmt.Sprintf("failed to attach to exec: %v", err), time.Since(start)), nil
	}
	defer attachResp.Close()

	// Feed the input stream verbatim, then close our half so the program
	// sees EOF.
	go func() {
		if req.Input != "" {
			_, _ = attachResp.Conn.Write([]byte(req.Input))
		}
		_ = attachResp.CloseWrite()
	}()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		// Use stdcopy to demultiplex stdout from stderr
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
		// Completed normally
		elapsed := time.Since(start)
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			return setupOutcome(fmt.Sprintf("failed to inspect exec: %v", err), elapsed), nil
		}
		if inspectResp.ExitCode == 0 {
			return &executor.ExecutionOutcome{
				Status:  executor.StatusSuccess,
				Output:  stdout.String(),
				Elapsed: elapsed,
			}, nil
		}
		return &executor.ExecutionOutcome{
			Status:  executor.StatusRuntimeError,
			Output:  stderr.String(),
			Elapsed: elapsed,
		}, nil

	case <-executeCtx.Done():
		if ctx.Err() != nil {
			// The caller cancelled; not a verdict about the submission.
			return nil, ctx.Err()
		}
		// Deadline won the race; removing the container (deferred above)
		// kills the process tree. Partial output is discarded.
		return &executor.ExecutionOutcome{
			Status:  executor.StatusTimeLimitExceeded,
			Output:  fmt.Sprintf("Execution timed out after %g seconds", limit.Seconds()),
			Elapsed: time.Since(start),
		}, nil
	}
}

func (e *Executor) clampTimeLimit(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = e.config.DefaultTimeLimit
	}
	if requested > e.config.MaxTimeLimit {
		return e.config.MaxTimeLimit
	}
	return requested
}

func setupOutcome(msg string, elapsed time.Duration) *executor.ExecutionOutcome {
	return &executor.ExecutionOutcome{
		Status:  executor.StatusSetupError,
		Output:  msg,
		Elapsed: elapsed,
	}
}
