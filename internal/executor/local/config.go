package local

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the configuration for process-based execution.
type Config struct {
	// Interpreter is the binary used to run the submitted source file.
	Interpreter string
	// WorkDir is the root directory for per-invocation workspaces.
	WorkDir string
	// DefaultTimeLimit applies when a request carries no time limit.
	DefaultTimeLimit time.Duration
	// MaxTimeLimit is the hard ceiling every requested limit is clamped to.
	// It sits below the enclosing platform budget so the supervisor can
	// always finish its own bookkeeping before being externally killed.
	MaxTimeLimit time.Duration
	// MaxConcurrency is the number of submissions that may run at once.
	MaxConcurrency int64
}

// DefaultConfig provides sensible defaults for a Python sandbox.
func DefaultConfig() Config {
	return Config{
		Interpreter:      "python3",
		WorkDir:          filepath.Join(os.TempDir(), "code-runner"),
		DefaultTimeLimit: 10 * time.Second,
		MaxTimeLimit:     8 * time.Second,
		MaxConcurrency:   16,
	}
}
