package model

import "time"

// FileWrite is one observed write to a tracked path.
type FileWrite struct {
	At       time.Time    `json:"at"`
	Path     string       `json:"path"`
	Tool     string       `json:"tool"`
	Category PathCategory `json:"category"`
}

// TaskClaim is one observed task claim.
type TaskClaim struct {
	At     time.Time   `json:"at"`
	TaskID string      `json:"task_id"`
	Source ClaimSource `json:"source"`
}

// TaskClose is one observed task close.
type TaskClose struct {
	At     time.Time `json:"at"`
	TaskID string    `json:"task_id"`
	Reason string    `json:"reason"`
}

// Commit is one observed git commit. Hash is best-effort: empty when
// version control could not resolve it.
type Commit struct {
	At             time.Time `json:"at"`
	Hash           string    `json:"hash,omitempty"`
	MessagePreview string    `json:"message_preview"`
}

// Checkpoint marks a context compaction. Informational only: it never
// fragments the session or resets accumulated state.
type Checkpoint struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
}

// SessionRecord is the in-memory reconstruction of one session, built by
// folding its session log in file order. Never persisted; rebuilt on demand.
type SessionRecord struct {
	SessionID      string       `json:"session_id"`
	CWD            string       `json:"cwd,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	FileWrites     []FileWrite  `json:"file_writes,omitempty"`
	TaskClaims     []TaskClaim  `json:"task_claims,omitempty"`
	TaskCloses     []TaskClose  `json:"task_closes,omitempty"`
	Commits        []Commit     `json:"commits,omitempty"`
	Checkpoints    []Checkpoint `json:"checkpoints,omitempty"`
	EndedAt        *time.Time   `json:"ended_at,omitempty"`
	TranscriptPath string       `json:"transcript_path,omitempty"`
	Unclassified   int          `json:"unclassified,omitempty"`
}

// Empty reports whether the record carries no facts at all.
func (r *SessionRecord) Empty() bool {
	return r.StartedAt.IsZero() &&
		len(r.FileWrites) == 0 &&
		len(r.TaskClaims) == 0 &&
		len(r.TaskCloses) == 0 &&
		len(r.Commits) == 0 &&
		len(r.Checkpoints) == 0 &&
		r.EndedAt == nil &&
		r.Unclassified == 0
}

// Enrichment carries best-effort figures extracted from the assistant
// transcript. All fields are nullable: a parse failure leaves them nil.
type Enrichment struct {
	InputTokens         *int64   `json:"input_tokens,omitempty"`
	OutputTokens        *int64   `json:"output_tokens,omitempty"`
	CacheReadTokens     *int64   `json:"cache_read_tokens,omitempty"`
	CacheCreationTokens *int64   `json:"cache_creation_tokens,omitempty"`
	CostUSD             *float64 `json:"cost_usd,omitempty"`
}

// CompletionRecord is the synthesized outcome of a unit of work observed
// during a session. One is produced per explicit task close, or a single
// session-level record (TaskID empty) when no task was closed. Ownership
// passes to the ledger collaborator once written.
type CompletionRecord struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"attributed_session_id"`
	TaskID          string     `json:"task_id,omitempty"`
	Success         bool       `json:"success"`
	ApproachSummary string     `json:"approach_summary"`
	FilesChanged    []string   `json:"files_changed"`
	CommitHashes    []string   `json:"commit_hashes,omitempty"`
	CompletedAt     time.Time  `json:"completed_at"`
	Enrichment      Enrichment `json:"enrichment"`
}
