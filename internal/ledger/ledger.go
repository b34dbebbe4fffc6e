// Package ledger persists synthesized completion records. The synthesizer
// only speaks to the Ledger interface; the SQLite store underneath owns
// the on-disk schema.
package ledger

import "github.com/chronicle-project/chronicle/pkg/model"

// Ledger is the persistence collaborator consumed by the synthesizer.
type Ledger interface {
	// HasEntry reports whether a record already exists for the session and
	// task pair. taskID empty means the session-level record.
	HasEntry(sessionID, taskID string) (bool, error)
	// WriteOrUpdate inserts the record or updates the existing entry for
	// its (session, task) pair. Never duplicates.
	WriteOrUpdate(rec *model.CompletionRecord) error
	// List returns all records, newest first.
	List() ([]model.CompletionRecord, error)
}
