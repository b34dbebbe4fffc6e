package synth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chronicle-project/chronicle/internal/ledger"
	"github.com/chronicle-project/chronicle/internal/transcript"
	"github.com/chronicle-project/chronicle/internal/vcs"
	"github.com/chronicle-project/chronicle/pkg/logging"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// Synthesizer turns a reconstructed session record into completion
// records and writes them to the ledger. Enrichment and commit-hash
// resolution are best effort: failures degrade the record, never the
// write.
type Synthesizer struct {
	Ledger  ledger.Ledger
	Log     *logging.Logger
	Timeout time.Duration

	// Injectable for tests. Nil means the real implementation.
	ResolveHash func(ctx context.Context, dir string, at time.Time) (string, error)
	Enrich      func(ctx context.Context, path string) (model.Enrichment, error)
}

// New returns a synthesizer writing to l with the default collaborators.
func New(l ledger.Ledger, log *logging.Logger, timeout time.Duration) *Synthesizer {
	return &Synthesizer{Ledger: l, Log: log, Timeout: timeout}
}

// Finalize builds completion records for the session and persists them.
// Idempotent: rerunning over the same session updates entries in place
// rather than duplicating them. Returns the records as written.
func (s *Synthesizer) Finalize(ctx context.Context, rec *model.SessionRecord) ([]model.CompletionRecord, error) {
	att := buildAttributed(rec)
	if len(att) == 0 {
		return nil, nil
	}

	enrichment := s.enrich(ctx, rec)

	records := make([]model.CompletionRecord, 0, len(att))
	for i := range att {
		out := &att[i].record
		out.ID = uuid.NewString()
		out.Enrichment = enrichment
		s.resolveHashes(ctx, rec.CWD, att[i].commits, out)

		if err := s.write(out); err != nil {
			return records, err
		}
		records = append(records, *out)
	}
	return records, nil
}

// write persists one record, retrying once before giving up. A final
// failure is returned so the caller can decide whether it is fatal; the
// hook pipeline logs it and proceeds.
func (s *Synthesizer) write(rec *model.CompletionRecord) error {
	if exists, err := s.Ledger.HasEntry(rec.SessionID, rec.TaskID); err == nil && exists {
		s.log().Debug("updating existing ledger entry", map[string]any{
			"session_id": rec.SessionID,
			"task_id":    rec.TaskID,
		})
	}
	err := s.Ledger.WriteOrUpdate(rec)
	if err == nil {
		return nil
	}
	s.log().Warn("ledger write failed, retrying", map[string]any{
		"session_id": rec.SessionID,
		"task_id":    rec.TaskID,
		"error":      err.Error(),
	})
	return s.Ledger.WriteOrUpdate(rec)
}

// enrich extracts transcript figures once per session. Any failure is
// logged and yields empty enrichment.
func (s *Synthesizer) enrich(ctx context.Context, rec *model.SessionRecord) model.Enrichment {
	if rec.TranscriptPath == "" {
		return model.Enrichment{}
	}
	extract := s.Enrich
	if extract == nil {
		extract = transcript.Extract
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	enrichment, err := extract(ctx, rec.TranscriptPath)
	if err != nil {
		s.log().Warn("transcript enrichment unavailable", map[string]any{
			"session_id": rec.SessionID,
			"path":       rec.TranscriptPath,
			"error":      err.Error(),
		})
		return model.Enrichment{}
	}
	return enrichment
}

// resolveHashes fills in commit hashes that were unknown at observation
// time by asking version control for commits near each attributed commit
// fact. Only the record's own commits are consulted: commits belonging to
// another task's claim window never leak into this record.
func (s *Synthesizer) resolveHashes(ctx context.Context, dir string, commits []model.Commit, out *model.CompletionRecord) {
	if dir == "" {
		return
	}
	var needed []model.Commit
	for _, c := range commits {
		if c.Hash == "" {
			needed = append(needed, c)
		}
	}
	if len(needed) == 0 {
		return
	}

	resolve := s.ResolveHash
	if resolve == nil {
		resolve = vcs.ResolveCommitHash
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	seen := make(map[string]bool)
	for _, h := range out.CommitHashes {
		seen[h] = true
	}
	for _, c := range needed {
		hash, err := resolve(ctx, dir, c.At)
		if err != nil || hash == "" || seen[hash] {
			continue
		}
		seen[hash] = true
		out.CommitHashes = append(out.CommitHashes, hash)
	}
}

func (s *Synthesizer) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *Synthesizer) log() *logging.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logging.NewLogger(logging.LevelWarn)
}
