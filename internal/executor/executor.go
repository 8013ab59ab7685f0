// Package executor defines the contract between the HTTP layer and the
// sandbox backends that run untrusted code submissions.
package executor

import (
	"context"
	"time"
)

// Status classifies how an invocation concluded.
type Status int

const (
	// StatusSuccess means the program exited 0; Output holds its stdout.
	StatusSuccess Status = iota
	// StatusRuntimeError means the program ran and exited non-zero (or was
	// killed by a signal); Output holds its stderr.
	StatusRuntimeError
	// StatusTimeLimitExceeded means the wall-clock deadline fired before the
	// program finished; Output holds diagnostic text, not partial output.
	StatusTimeLimitExceeded
	// StatusSetupError means the invocation itself could not run: no code,
	// workspace I/O failure, launch failure, or an internal fault.
	StatusSetupError
)

// String returns the wire name of the status. SetupError reports as
// "compilation_error" for backward compatibility with existing clients,
// even though the failure is not necessarily a compilation issue.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRuntimeError:
		return "runtime_error"
	case StatusTimeLimitExceeded:
		return "time_limit_exceeded"
	case StatusSetupError:
		return "compilation_error"
	default:
		return "compilation_error"
	}
}

// MarshalJSON encodes the status as its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ExecutionRequest represents a request to execute a code submission.
// Immutable once constructed; owned by the invocation that created it.
type ExecutionRequest struct {
	// Code is the source text to execute. Must be non-empty.
	Code string `json:"code"`
	// Input is fed verbatim to the program's standard input.
	Input string `json:"input"`
	// TimeLimit is the caller's requested wall-clock ceiling. Backends clamp
	// it to their own hard maximum; zero means the backend default.
	TimeLimit time.Duration `json:"timeLimit"`
}

// ExecutionOutcome is the structured verdict of one invocation.
// Exactly one outcome is produced per request. Status determines which
// stream Output was taken from: stdout on success, stderr on runtime
// error, diagnostic text otherwise — never a mix.
type ExecutionOutcome struct {
	Status Status `json:"status"`
	Output string `json:"output"`
	// Elapsed is wall-clock time from launch to outcome on every branch.
	Elapsed time.Duration `json:"elapsed"`
	// MemoryKB is the best-effort peak resident memory of the child in
	// kibibytes, 0 whenever sampling is unavailable.
	MemoryKB int64 `json:"memoryKb"`
}

// Executor runs one code submission in an isolated environment.
//
// Failures of the submitted program are reported as outcomes, never as
// errors. A non-nil error means the invocation itself could not run
// (cancellation, backend unavailable); the caller owns retry policy —
// backends never retry.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionOutcome, error)
}
