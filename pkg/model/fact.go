package model

import (
	"encoding/json"
	"time"
)

// FactType identifies the variant of a session log fact.
type FactType string

const (
	FactSessionStarted      FactType = "session_started"
	FactFileWritten         FactType = "file_written"
	FactTaskClaimed         FactType = "task_claimed"
	FactTaskClosed          FactType = "task_closed"
	FactCommitMade          FactType = "commit_made"
	FactSessionCheckpointed FactType = "session_checkpointed"
	FactSessionEnded        FactType = "session_ended"
	FactUnclassified        FactType = "unclassified"
)

// PathCategory classifies the target of a file write.
type PathCategory string

const (
	CategoryPlan    PathCategory = "plan"
	CategorySpec    PathCategory = "spec"
	CategoryCapture PathCategory = "capture"
	CategorySource  PathCategory = "source"
	CategoryTooling PathCategory = "tooling"
	CategoryOther   PathCategory = "other"
)

// ClaimSource distinguishes how a task claim was observed.
type ClaimSource string

const (
	// ClaimFromCommand is an explicit claim command seen in Bash tool use.
	ClaimFromCommand ClaimSource = "command"
	// ClaimFromPrompt is a task id detected in user prompt text. Lower
	// confidence than an explicit command.
	ClaimFromPrompt ClaimSource = "prompt"
)

// HashValue is a SHA-256 hash stored as a hex string.
type HashValue string

// Fact is a single line in a session log (JSONL format). Facts are
// append-only: once written they are never mutated or deleted. Variant
// payload fields are omitempty; Timestamp and Type are common to all.
type Fact struct {
	Timestamp time.Time `json:"timestamp"`
	Type      FactType  `json:"event_type"`
	SessionID string    `json:"session_id"`

	// session_started
	CWD string `json:"cwd,omitempty"`

	// file_written
	Path     string       `json:"path,omitempty"`
	Tool     string       `json:"tool,omitempty"`
	Category PathCategory `json:"category,omitempty"`

	// task_claimed, task_closed
	TaskID string      `json:"task_id,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Source ClaimSource `json:"source,omitempty"`

	// commit_made; Hash stays empty at classify time and is resolved
	// lazily at synthesis from version control.
	Hash           string `json:"hash,omitempty"`
	MessagePreview string `json:"message_preview,omitempty"`

	// session_ended
	TranscriptPath string `json:"transcript_path,omitempty"`

	// unclassified
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	PrevHash   HashValue `json:"prev_hash"`
	RecordHash HashValue `json:"record_hash"`
}
