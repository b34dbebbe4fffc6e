package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/fsutil"
	"github.com/chronicle-project/chronicle/pkg/pathutil"
)

// Backend is the task lifecycle interface the classifier calls.
type Backend interface {
	// Claim marks a task active for a session. Unknown tasks are created
	// on the fly: the operator may claim ids minted elsewhere.
	Claim(taskID, sessionID string) error
	// Close marks a task done with a reason.
	Close(taskID, reason string) error
	// Exists reports whether the task is known to the backend.
	Exists(taskID string) (bool, error)
}

// ManifestBackend stores tasks in a YAML manifest under the workspace.
type ManifestBackend struct {
	path string
	mu   sync.Mutex
}

// NewManifestBackend creates a backend over .chronicle/tasks/active.yaml.
func NewManifestBackend(chronicleDir string) *ManifestBackend {
	return &ManifestBackend{path: filepath.Join(chronicleDir, "tasks", "active.yaml")}
}

// Load reads the manifest, returning an empty one if the file is absent.
func (b *ManifestBackend) Load() (*Manifest, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("read task manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse task manifest: %w", err)
	}
	return &m, nil
}

// save writes the manifest atomically so a crashed writer never leaves a
// half-written manifest behind.
func (b *ManifestBackend) save(m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("create tasks dir: %w", err)
	}

	m.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal task manifest: %w", err)
	}

	return fsutil.AtomicWrite(b.path, data, 0644)
}

// Claim marks taskID active, creating it when unknown.
func (b *ManifestBackend) Claim(taskID, sessionID string) error {
	if err := pathutil.ValidateTaskID(taskID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.Load()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	task := m.Find(taskID)
	if task == nil {
		m.Upsert(Task{
			ID:        taskID,
			Status:    StatusActive,
			ClaimedBy: sessionID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	} else {
		if task.Status == StatusDone {
			return errclass.ErrTaskState.WithMessagef("task %s already closed", taskID)
		}
		task.Status = StatusActive
		task.ClaimedBy = sessionID
		task.UpdatedAt = now
	}

	m.LastSessionID = sessionID
	return b.save(m)
}

// Close marks taskID done with the given reason.
func (b *ManifestBackend) Close(taskID, reason string) error {
	if err := pathutil.ValidateTaskID(taskID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.Load()
	if err != nil {
		return err
	}

	task := m.Find(taskID)
	if task == nil {
		return errclass.ErrTaskUnknown.WithMessagef("task %s not found", taskID)
	}

	task.Status = StatusDone
	task.CloseReason = reason
	task.UpdatedAt = time.Now().UTC()
	return b.save(m)
}

// Exists reports whether taskID is present in the manifest.
func (b *ManifestBackend) Exists(taskID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.Load()
	if err != nil {
		return false, err
	}
	return m.Find(taskID) != nil, nil
}
