// Package tasks provides the task backend consumed by the classifier when
// it observes claim and close commands. Task lifecycle state is owned
// here, not by the observation pipeline: the classifier only calls the
// backend's public operations so the manifest and the forensic log stay
// consistent.
package tasks

import "time"

// Status values a task moves through.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusDone    = "done"
)

// Task is one entry in the workspace task manifest.
type Task struct {
	ID          string    `yaml:"id"`
	Subject     string    `yaml:"subject,omitempty"`
	Status      string    `yaml:"status"`
	ClaimedBy   string    `yaml:"claimed_by,omitempty"`
	CloseReason string    `yaml:"close_reason,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Manifest is the workspace-scoped task list stored in
// .chronicle/tasks/active.yaml.
type Manifest struct {
	Version       int       `yaml:"version"`
	LastSessionID string    `yaml:"last_session_id,omitempty"`
	UpdatedAt     time.Time `yaml:"updated_at"`
	Tasks         []Task    `yaml:"tasks"`
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Version: 1, Tasks: []Task{}}
}

// Find returns the task with the given id, or nil.
func (m *Manifest) Find(id string) *Task {
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			return &m.Tasks[i]
		}
	}
	return nil
}

// Upsert adds or replaces a task by id.
func (m *Manifest) Upsert(task Task) {
	for i := range m.Tasks {
		if m.Tasks[i].ID == task.ID {
			m.Tasks[i] = task
			return
		}
	}
	m.Tasks = append(m.Tasks, task)
}

// ByStatus returns tasks with the given status.
func (m *Manifest) ByStatus(status string) []Task {
	var result []Task
	for _, t := range m.Tasks {
		if t.Status == status {
			result = append(result, t)
		}
	}
	return result
}
