// Package local implements the executor.Executor interface by supervising
// an interpreter process on the host.
//
// Each invocation gets an isolated workspace, a fresh child process in its
// own process group, and a wall-clock deadline. The supervisor races the
// process's natural completion against the deadline; the loser's result is
// discarded. On timeout the entire process group is killed so nothing
// belonging to the invocation survives the request.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/workspace"
)

// reapGrace bounds how long the supervisor waits to reap a killed process.
// Already-produced output is drained from the buffers without blocking on
// any straggler that escaped the process group.
const reapGrace = 2 * time.Second

// Executor runs submissions as supervised interpreter processes.
type Executor struct {
	config     Config
	workspaces *workspace.Manager
	logger     *slog.Logger
	sem        *semaphore.Weighted
}

// New creates a local Executor and its workspace root.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	def := DefaultConfig()
	if cfg.Interpreter == "" {
		cfg.Interpreter = def.Interpreter
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = def.WorkDir
	}
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = def.DefaultTimeLimit
	}
	if cfg.MaxTimeLimit <= 0 {
		cfg.MaxTimeLimit = def.MaxTimeLimit
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}

	workspaces, err := workspace.NewManager(cfg.WorkDir, logger)
	if err != nil {
		return nil, fmt.Errorf("creating workspace manager: %w", err)
	}

	return &Executor{
		config:     cfg,
		workspaces: workspaces,
		logger:     logger,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrency),
	}, nil
}

// Execute runs one submission end to end: workspace, supervision, cleanup.
// Failures of the submitted program come back as outcomes; a non-nil error
// only means the invocation itself was cancelled before completing.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionOutcome, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	limit := e.clampTimeLimit(req.TimeLimit)

	ws, err := e.workspaces.Acquire(req.Code, req.Input)
	if err != nil {
		return setupOutcome(err.Error(), 0), nil
	}
	defer e.workspaces.Release(ws)

	return e.supervise(ctx, ws, limit)
}

// clampTimeLimit applies the default and the hard ceiling. The caller is
// served the clamped limit silently; the clamp is visible only in logs.
func (e *Executor) clampTimeLimit(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = e.config.DefaultTimeLimit
	}
	if requested > e.config.MaxTimeLimit {
		e.logger.Debug("clamping requested time limit",
			slog.Duration("requested", requested),
			slog.Duration("ceiling", e.config.MaxTimeLimit),
		)
		return e.config.MaxTimeLimit
	}
	return requested
}

// supervise launches the interpreter against the workspace and classifies
// the result. Per invocation the state machine is
// Launching -> Running -> {Completed, TimedOut, LaunchFailed}; no branch
// re-enters Running once a terminal state is reached.
func (e *Executor) supervise(ctx context.Context, ws *workspace.Workspace, limit time.Duration) (*executor.ExecutionOutcome, error) {
	stdin, err := os.Open(ws.InputPath)
	if err != nil {
		return setupOutcome(fmt.Sprintf("opening input file: %v", err), 0), nil
	}
	defer stdin.Close()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(e.config.Interpreter, ws.SourcePath)
	cmd.Dir = ws.Dir
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Own process group, so a timeout kill reaches every descendant.
	cmd.SysProcAttr = sysProcAttr()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return setupOutcome(fmt.Sprintf("launching %s: %v", e.config.Interpreter, err), time.Since(start)), nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		elapsed := time.Since(start)
		mem := peakMemoryKB(cmd.ProcessState)
		if waitErr == nil {
			return &executor.ExecutionOutcome{
				Status:   executor.StatusSuccess,
				Output:   stdout.String(),
				Elapsed:  elapsed,
				MemoryKB: mem,
			}, nil
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &executor.ExecutionOutcome{
				Status:   executor.StatusRuntimeError,
				Output:   stderr.String(),
				Elapsed:  elapsed,
				MemoryKB: mem,
			}, nil
		}
		return setupOutcome(fmt.Sprintf("waiting for process: %v", waitErr), elapsed), nil

	case <-timer.C:
		// The deadline decision is final: a process that exits a moment
		// after this point is still reported as a timeout. Kill errors are
		// swallowed — terminating an already-exited group is a no-op.
		e.killAndReap(cmd, done)
		elapsed := time.Since(start)
		e.logger.Info("execution timed out",
			slog.Duration("limit", limit),
			slog.Duration("elapsed", elapsed),
		)
		return &executor.ExecutionOutcome{
			Status:  executor.StatusTimeLimitExceeded,
			Output:  fmt.Sprintf("Execution timed out after %g seconds", limit.Seconds()),
			Elapsed: elapsed,
		}, nil

	case <-ctx.Done():
		// External cancellation threads through the same termination path
		// as the deadline.
		e.killAndReap(cmd, done)
		return nil, ctx.Err()
	}
}

// killAndReap kills the process group and waits (bounded) for the reap.
func (e *Executor) killAndReap(cmd *exec.Cmd, done <-chan error) {
	killProcessGroup(cmd.Process.Pid)
	select {
	case <-done:
	case <-time.After(reapGrace):
		e.logger.Warn("process not reaped within grace period",
			slog.Int("pid", cmd.Process.Pid),
		)
	}
}

func setupOutcome(msg string, elapsed time.Duration) *executor.ExecutionOutcome {
	return &executor.ExecutionOutcome{
		Status:  executor.StatusSetupError,
		Output:  msg,
		Elapsed: elapsed,
	}
}
