package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/executor"
)

// defaultTimeLimitMs applies when the caller omits time_limit_ms. Backends
// still clamp the effective limit to their own hard ceiling.
const defaultTimeLimitMs = 10000

// executeRequest is the external request shape, stable regardless of
// transport.
type executeRequest struct {
	Code        string `json:"code"`
	Input       string `json:"input"`
	TimeLimitMs int64  `json:"time_limit_ms"`
}

// executeResponse is the external result shape. Status is one of
// "success", "runtime_error", "time_limit_exceeded", "compilation_error".
type executeResponse struct {
	Status          string `json:"status"`
	Output          string `json:"output"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	MemoryUsedKB    int64  `json:"memory_used_kb"`
}

// ExecuteHandler handles code execution requests.
type ExecuteHandler struct {
	exec   executor.Executor
	logger *slog.Logger
}

// NewExecuteHandler creates a new ExecuteHandler. exec may be nil, in which
// case every request is answered with 503.
func NewExecuteHandler(exec executor.Executor, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		exec:   exec,
		logger: logger,
	}
}

// HandleExecute processes an incoming code execution request.
//
// This is the outermost boundary of an invocation: whatever happens inside
// the executor, the caller receives the four-way status plus metrics —
// internal faults are downgraded to a "compilation_error" result, never
// surfaced as a transport-level fault.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	// Empty code short-circuits without invoking the supervisor.
	if req.Code == "" {
		writeJSON(w, http.StatusOK, executeResponse{
			Status: executor.StatusSetupError.String(),
			Output: "No code provided",
		})
		return
	}

	if h.exec == nil {
		writeError(w, apperror.Unavailable("execution backend is not available"))
		return
	}

	timeLimitMs := req.TimeLimitMs
	if timeLimitMs <= 0 {
		timeLimitMs = defaultTimeLimitMs
	}

	h.logger.Info("executing code submission",
		slog.Int("codeBytes", len(req.Code)),
		slog.Int64("timeLimitMs", timeLimitMs),
	)

	outcome, err := h.exec.Execute(r.Context(), executor.ExecutionRequest{
		Code:      req.Code,
		Input:     req.Input,
		TimeLimit: time.Duration(timeLimitMs) * time.Millisecond,
	})
	if err != nil {
		h.logger.Error("invocation failed before completion", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, executeResponse{
			Status: executor.StatusSetupError.String(),
			Output: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Status:          outcome.Status.String(),
		Output:          outcome.Output,
		ExecutionTimeMs: outcome.Elapsed.Milliseconds(),
		MemoryUsedKB:    outcome.MemoryKB,
	})
}
