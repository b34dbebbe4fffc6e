// Package synth builds completion records from reconstructed session
// records and writes them through the ledger collaborator.
package synth

import (
	"fmt"
	"sort"
	"time"

	"github.com/chronicle-project/chronicle/pkg/model"
)

// event is one attributable moment on the merged session timeline.
type event struct {
	at   time.Time
	kind int
	idx  int
}

// Tie-break at equal timestamps: claims open before work lands, closes
// come after, so "strictly between claim and close" holds at the edges.
const (
	kindClaim = iota
	kindWork
	kindClose
)

// pool accumulates work attributed to one open claim (or to the session
// itself when no claim is open).
type pool struct {
	taskID  string
	writes  []model.FileWrite
	commits []model.Commit
}

// attributedRecord pairs a completion record with the commit facts that
// were attributed to it, so hash resolution stays per-record.
type attributedRecord struct {
	record  model.CompletionRecord
	commits []model.Commit
}

// BuildRecords groups a session's accumulated facts into completion
// records. Pure and deterministic: same session record, same output.
func BuildRecords(rec *model.SessionRecord) []model.CompletionRecord {
	att := buildAttributed(rec)
	if len(att) == 0 {
		return nil
	}
	records := make([]model.CompletionRecord, len(att))
	for i, a := range att {
		records[i] = a.record
	}
	return records
}

// buildAttributed does the actual grouping.
//
// Each task close produces one record attributing the file writes and
// commits observed strictly between the matching claim (or session start,
// when no claim preceded it) and the close. With overlapping claims, work
// goes to the most recently claimed unclosed task. A session that ends
// with no explicit close yields a single session-level record, but only
// when there was anything to report at all.
func buildAttributed(rec *model.SessionRecord) []attributedRecord {
	if rec.Empty() {
		return nil
	}

	var (
		records []attributedRecord
		open    []*pool // stack: most recent claim on top
		loose   pool    // work with no open claim
	)

	current := func() *pool {
		if len(open) > 0 {
			return open[len(open)-1]
		}
		return &loose
	}

	for _, ev := range mergeTimeline(rec) {
		switch ev.kind {
		case kindClaim:
			open = append(open, &pool{taskID: rec.TaskClaims[ev.idx].TaskID})

		case kindWork:
			p := current()
			if ev.idx < len(rec.FileWrites) {
				p.writes = append(p.writes, rec.FileWrites[ev.idx])
			} else {
				p.commits = append(p.commits, rec.Commits[ev.idx-len(rec.FileWrites)])
			}

		case kindClose:
			taskClose := rec.TaskCloses[ev.idx]
			p := popClaim(&open, taskClose.TaskID)
			if p == nil {
				// Close with no observed claim: everything unattributed
				// since session start belongs to this task.
				drained := loose
				loose = pool{}
				p = &drained
			}
			records = append(records, attributedRecord{
				record:  buildTaskRecord(rec, taskClose, p.writes, p.commits),
				commits: p.commits,
			})
		}
	}

	// Work under claims that were never closed folds back into the
	// session-level pool in claim order.
	for _, p := range open {
		loose.writes = append(loose.writes, p.writes...)
		loose.commits = append(loose.commits, p.commits...)
	}

	if len(records) == 0 {
		if len(loose.writes) == 0 && len(loose.commits) == 0 && len(rec.TaskClaims) == 0 {
			return nil
		}
		records = append(records, attributedRecord{
			record:  buildSessionRecord(rec, loose.writes, loose.commits),
			commits: loose.commits,
		})
	}

	return records
}

func mergeTimeline(rec *model.SessionRecord) []event {
	var timeline []event
	for i, c := range rec.TaskClaims {
		timeline = append(timeline, event{at: c.At, kind: kindClaim, idx: i})
	}
	for i, w := range rec.FileWrites {
		timeline = append(timeline, event{at: w.At, kind: kindWork, idx: i})
	}
	for i, c := range rec.Commits {
		timeline = append(timeline, event{at: c.At, kind: kindWork, idx: len(rec.FileWrites) + i})
	}
	for i, c := range rec.TaskCloses {
		timeline = append(timeline, event{at: c.At, kind: kindClose, idx: i})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		if !timeline[i].at.Equal(timeline[j].at) {
			return timeline[i].at.Before(timeline[j].at)
		}
		return timeline[i].kind < timeline[j].kind
	})
	return timeline
}

// popClaim removes and returns the most recent open pool for taskID.
func popClaim(open *[]*pool, taskID string) *pool {
	stack := *open
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].taskID == taskID {
			p := stack[i]
			*open = append(stack[:i], stack[i+1:]...)
			return p
		}
	}
	return nil
}

func buildTaskRecord(rec *model.SessionRecord, taskClose model.TaskClose, writes []model.FileWrite, commits []model.Commit) model.CompletionRecord {
	summary := taskClose.Reason
	if summary == "" {
		summary = fmt.Sprintf("closed %s with %d files changed", taskClose.TaskID, len(writes))
	}

	return model.CompletionRecord{
		SessionID:       rec.SessionID,
		TaskID:          taskClose.TaskID,
		Success:         true,
		ApproachSummary: summary,
		FilesChanged:    paths(writes),
		CommitHashes:    hashes(commits),
		CompletedAt:     taskClose.At,
	}
}

func buildSessionRecord(rec *model.SessionRecord, writes []model.FileWrite, commits []model.Commit) model.CompletionRecord {
	completedAt := lastActivity(rec)
	return model.CompletionRecord{
		SessionID: rec.SessionID,
		// TaskID stays empty: no task was explicitly closed.
		Success:         len(writes) > 0 || len(commits) > 0,
		ApproachSummary: fmt.Sprintf("session-level work: %d files changed, %d commits", len(writes), len(commits)),
		FilesChanged:    paths(writes),
		CommitHashes:    hashes(commits),
		CompletedAt:     completedAt,
	}
}

func lastActivity(rec *model.SessionRecord) time.Time {
	if rec.EndedAt != nil {
		return *rec.EndedAt
	}
	last := rec.StartedAt
	for _, w := range rec.FileWrites {
		if w.At.After(last) {
			last = w.At
		}
	}
	for _, c := range rec.Commits {
		if c.At.After(last) {
			last = c.At
		}
	}
	for _, c := range rec.TaskClaims {
		if c.At.After(last) {
			last = c.At
		}
	}
	return last
}

func paths(writes []model.FileWrite) []string {
	out := make([]string, 0, len(writes))
	seen := make(map[string]bool)
	for _, w := range writes {
		if seen[w.Path] {
			continue
		}
		seen[w.Path] = true
		out = append(out, w.Path)
	}
	return out
}

func hashes(commits []model.Commit) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range commits {
		if c.Hash == "" || seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		out = append(out, c.Hash)
	}
	return out
}
