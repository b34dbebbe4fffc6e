package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/jsonutil"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// Store provides SQLite-backed persistence for completion records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// Sequential short-lived processes, not a server: one connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasEntry reports whether a record exists for the (session, task) pair.
func (s *Store) HasEntry(sessionID, taskID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM completion_records WHERE session_id = ? AND task_id = ?`,
		sessionID, taskID,
	).Scan(&count)
	if err != nil {
		return false, errclass.ErrLedgerWrite.WithMessagef("has entry: %v", err)
	}
	return count > 0, nil
}

// WriteOrUpdate inserts rec, or updates the existing entry for its
// (session, task) pair in place. An unchanged record (same content hash)
// is left untouched.
func (s *Store) WriteOrUpdate(rec *model.CompletionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	// Hash over the content only; the row id is storage identity, not content.
	hashRec := *rec
	hashRec.ID = ""
	contentHash, err := jsonutil.CanonicalHash(&hashRec)
	if err != nil {
		return errclass.ErrLedgerWrite.WithMessagef("hash record: %v", err)
	}

	var existingID, existingHash string
	err = s.db.QueryRow(
		`SELECT id, content_hash FROM completion_records WHERE session_id = ? AND task_id = ?`,
		rec.SessionID, rec.TaskID,
	).Scan(&existingID, &existingHash)
	switch {
	case err == sql.ErrNoRows:
		return s.insert(rec, contentHash)
	case err != nil:
		return errclass.ErrLedgerWrite.WithMessagef("lookup record: %v", err)
	}

	if existingHash == contentHash {
		rec.ID = existingID
		return nil
	}
	rec.ID = existingID
	return s.update(rec, contentHash)
}

func (s *Store) insert(rec *model.CompletionRecord, contentHash string) error {
	files, hashes, enrichment, err := encodeFields(rec)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO completion_records
			(id, session_id, task_id, success, approach_summary, files_changed,
			 commit_hashes, completed_at, enrichment, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.TaskID, boolToInt(rec.Success),
		rec.ApproachSummary, files, hashes,
		rec.CompletedAt.UTC().Format(time.RFC3339Nano), enrichment, contentHash,
	)
	if err != nil {
		return errclass.ErrLedgerWrite.WithMessagef("insert record: %v", err)
	}
	return nil
}

func (s *Store) update(rec *model.CompletionRecord, contentHash string) error {
	files, hashes, enrichment, err := encodeFields(rec)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		UPDATE completion_records
		SET success = ?, approach_summary = ?, files_changed = ?,
		    commit_hashes = ?, completed_at = ?, enrichment = ?, content_hash = ?
		WHERE id = ?`,
		boolToInt(rec.Success), rec.ApproachSummary, files, hashes,
		rec.CompletedAt.UTC().Format(time.RFC3339Nano), enrichment, contentHash, rec.ID,
	)
	if err != nil {
		return errclass.ErrLedgerWrite.WithMessagef("update record: %v", err)
	}
	return nil
}

// List returns all records, newest first.
func (s *Store) List() ([]model.CompletionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, task_id, success, approach_summary,
		       files_changed, commit_hashes, completed_at, enrichment
		FROM completion_records
		ORDER BY completed_at DESC`)
	if err != nil {
		return nil, errclass.ErrLedgerWrite.WithMessagef("list records: %v", err)
	}
	defer rows.Close()

	var records []model.CompletionRecord
	for rows.Next() {
		var (
			rec                       model.CompletionRecord
			success                   int
			files, hashes, enrichment string
			completedAt               string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TaskID, &success,
			&rec.ApproachSummary, &files, &hashes, &completedAt, &enrichment); err != nil {
			return nil, errclass.ErrLedgerWrite.WithMessagef("scan record: %v", err)
		}
		rec.Success = success != 0
		if err := json.Unmarshal([]byte(files), &rec.FilesChanged); err != nil {
			return nil, errclass.ErrLedgerWrite.WithMessagef("decode files_changed: %v", err)
		}
		if err := json.Unmarshal([]byte(hashes), &rec.CommitHashes); err != nil {
			return nil, errclass.ErrLedgerWrite.WithMessagef("decode commit_hashes: %v", err)
		}
		if err := json.Unmarshal([]byte(enrichment), &rec.Enrichment); err != nil {
			return nil, errclass.ErrLedgerWrite.WithMessagef("decode enrichment: %v", err)
		}
		at, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, errclass.ErrLedgerWrite.WithMessagef("parse completed_at: %v", err)
		}
		rec.CompletedAt = at
		records = append(records, rec)
	}
	return records, rows.Err()
}

func encodeFields(rec *model.CompletionRecord) (files, hashes, enrichment string, err error) {
	f := rec.FilesChanged
	if f == nil {
		f = []string{}
	}
	fb, err := json.Marshal(f)
	if err != nil {
		return "", "", "", errclass.ErrLedgerWrite.WithMessagef("encode files_changed: %v", err)
	}

	h := rec.CommitHashes
	if h == nil {
		h = []string{}
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return "", "", "", errclass.ErrLedgerWrite.WithMessagef("encode commit_hashes: %v", err)
	}

	eb, err := json.Marshal(rec.Enrichment)
	if err != nil {
		return "", "", "", errclass.ErrLedgerWrite.WithMessagef("encode enrichment: %v", err)
	}
	return string(fb), string(hb), string(eb), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
