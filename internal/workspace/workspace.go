// Package workspace manages the per-invocation scratch directories that
// hold a submission's source and input artifacts.
//
// Each invocation gets its own directory under the manager's root, named
// with an xid so concurrent invocations can never collide. A workspace is
// created at the start of an invocation and removed (best-effort) at the
// end; it is never shared or reused.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// File names inside a workspace directory.
const (
	SourceFileName = "source.py"
	InputFileName  = "input.txt"
)

// Workspace is an exclusively-owned, invocation-scoped filesystem location.
type Workspace struct {
	// Dir is the workspace directory; SourcePath and InputPath live inside it.
	Dir        string
	SourcePath string
	InputPath  string
}

// Manager allocates and tears down workspaces under a single root directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a Manager rooted at dir, creating it if necessary.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root %s: %w", dir, err)
	}
	return &Manager{root: dir, logger: logger}, nil
}

// Acquire materializes a fresh workspace holding the submission's source
// and input, written verbatim — exact byte content, no transcoding, no
// trailing-newline normalization.
func (m *Manager) Acquire(code, input string) (*Workspace, error) {
	dir := filepath.Join(m.root, xid.New().String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace dir: %w", err)
	}

	ws := &Workspace{
		Dir:        dir,
		SourcePath: filepath.Join(dir, SourceFileName),
		InputPath:  filepath.Join(dir, InputFileName),
	}

	if err := os.WriteFile(ws.SourcePath, []byte(code), 0o644); err != nil {
		m.Release(ws)
		return nil, fmt.Errorf("writing source file: %w", err)
	}
	if err := os.WriteFile(ws.InputPath, []byte(input), 0o644); err != nil {
		m.Release(ws)
		return nil, fmt.Errorf("writing input file: %w", err)
	}

	return ws, nil
}

// Release removes the workspace directory. Cleanup failure is logged but
// never escalated — a leaked temp file must not fail the caller's request.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		m.logger.Error("failed to remove workspace",
			slog.String("dir", ws.Dir),
			slog.String("error", err.Error()),
		)
	}
}
