// Package workspace handles discovery and initialization of the .chronicle
// metadata directory that anchors observation for one working tree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/chronicle-project/chronicle/pkg/errclass"
)

const (
	FormatVersion     = 1
	DirName           = ".chronicle"
	formatVersionFile = "format_version"
	workspaceIDFile   = "workspace_id"
)

// Workspace represents an initialized chronicle workspace.
type Workspace struct {
	Root          string
	FormatVersion int
	WorkspaceID   string
}

// Init creates the chronicle metadata structure under root.
// Idempotent: re-running on an initialized workspace just re-opens it.
func Init(root string) (*Workspace, error) {
	dir := filepath.Join(root, DirName)
	if _, err := os.Stat(filepath.Join(dir, formatVersionFile)); err == nil {
		return Open(root)
	}

	dirs := []string{
		dir,
		filepath.Join(dir, "sessions"),
		filepath.Join(dir, "tasks"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, formatVersionFile),
		[]byte(strconv.Itoa(FormatVersion)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write format_version: %w", err)
	}

	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(dir, workspaceIDFile), []byte(id+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write workspace_id: %w", err)
	}

	return &Workspace{Root: root, FormatVersion: FormatVersion, WorkspaceID: id}, nil
}

// Open loads an existing workspace rooted at root.
func Open(root string) (*Workspace, error) {
	dir := filepath.Join(root, DirName)

	verData, err := os.ReadFile(filepath.Join(dir, formatVersionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrWorkspaceMissing.WithMessagef("no %s in %s", DirName, root)
		}
		return nil, fmt.Errorf("read format_version: %w", err)
	}
	ver, err := strconv.Atoi(strings.TrimSpace(string(verData)))
	if err != nil {
		return nil, fmt.Errorf("parse format_version: %w", err)
	}

	idData, err := os.ReadFile(filepath.Join(dir, workspaceIDFile))
	if err != nil {
		return nil, fmt.Errorf("read workspace_id: %w", err)
	}

	return &Workspace{
		Root:          root,
		FormatVersion: ver,
		WorkspaceID:   strings.TrimSpace(string(idData)),
	}, nil
}

// Discover walks up from start looking for a .chronicle directory.
func Discover(start string) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve start path: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, DirName, formatVersionFile)); err == nil {
			return Open(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errclass.ErrWorkspaceMissing.WithMessagef("no %s found above %s", DirName, start)
		}
		dir = parent
	}
}

// Dir returns the .chronicle metadata directory.
func (w *Workspace) Dir() string {
	return filepath.Join(w.Root, DirName)
}

// SessionsDir returns the directory holding per-session logs.
func (w *Workspace) SessionsDir() string {
	return filepath.Join(w.Dir(), "sessions")
}

// SessionLogPath returns the session log path for a session id.
func (w *Workspace) SessionLogPath(sessionID string) string {
	return filepath.Join(w.SessionsDir(), sessionID+".jsonl")
}

// LedgerPath returns the SQLite ledger path.
func (w *Workspace) LedgerPath() string {
	return filepath.Join(w.Dir(), "ledger.db")
}

// SideLogPath returns the side-channel log file path.
func (w *Workspace) SideLogPath(file string) string {
	if file == "" {
		file = "chronicle.log"
	}
	return filepath.Join(w.Dir(), file)
}
