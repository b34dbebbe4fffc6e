// Package reconstruct rebuilds an in-memory session record by folding a
// session log's facts in file order. The fold is pure and deterministic:
// the same fact sequence always yields the same record, so it is safe to
// run at a checkpoint and again at true session end.
package reconstruct

import (
	"github.com/chronicle-project/chronicle/pkg/model"
)

// Reconstruct folds facts into a SessionRecord. A checkpoint fact never
// truncates or resets accumulated state, and a missing terminal
// session_ended fact still yields a usable record (process killed
// mid-session).
func Reconstruct(facts []model.Fact) *model.SessionRecord {
	rec := &model.SessionRecord{}

	for _, fact := range facts {
		if rec.SessionID == "" && fact.SessionID != "" {
			rec.SessionID = fact.SessionID
		}

		switch fact.Type {
		case model.FactSessionStarted:
			rec.CWD = fact.CWD
			rec.StartedAt = fact.Timestamp

		case model.FactFileWritten:
			rec.FileWrites = append(rec.FileWrites, model.FileWrite{
				At:       fact.Timestamp,
				Path:     fact.Path,
				Tool:     fact.Tool,
				Category: fact.Category,
			})

		case model.FactTaskClaimed:
			rec.TaskClaims = append(rec.TaskClaims, model.TaskClaim{
				At:     fact.Timestamp,
				TaskID: fact.TaskID,
				Source: fact.Source,
			})

		case model.FactTaskClosed:
			rec.TaskCloses = append(rec.TaskCloses, model.TaskClose{
				At:     fact.Timestamp,
				TaskID: fact.TaskID,
				Reason: fact.Reason,
			})

		case model.FactCommitMade:
			rec.Commits = append(rec.Commits, model.Commit{
				At:             fact.Timestamp,
				Hash:           fact.Hash,
				MessagePreview: fact.MessagePreview,
			})

		case model.FactSessionCheckpointed:
			rec.Checkpoints = append(rec.Checkpoints, model.Checkpoint{
				At:     fact.Timestamp,
				Reason: fact.Reason,
			})

		case model.FactSessionEnded:
			at := fact.Timestamp
			rec.EndedAt = &at
			if fact.TranscriptPath != "" {
				rec.TranscriptPath = fact.TranscriptPath
			}

		case model.FactUnclassified:
			rec.Unclassified++
		}
	}

	return rec
}
