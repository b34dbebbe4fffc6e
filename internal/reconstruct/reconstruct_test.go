package reconstruct_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-project/chronicle/internal/reconstruct"
	"github.com/chronicle-project/chronicle/pkg/model"
)

func at(minute int) time.Time {
	return time.Date(2026, 8, 28, 10, minute, 0, 0, time.UTC)
}

func fullSession() []model.Fact {
	return []model.Fact{
		{Timestamp: at(0), Type: model.FactSessionStarted, SessionID: "s1", CWD: "/work"},
		{Timestamp: at(1), Type: model.FactFileWritten, SessionID: "s1", Path: "plans/foo.md", Tool: "Write", Category: model.CategoryPlan},
		{Timestamp: at(2), Type: model.FactTaskClaimed, SessionID: "s1", TaskID: "proj-1", Source: model.ClaimFromCommand},
		{Timestamp: at(3), Type: model.FactFileWritten, SessionID: "s1", Path: "src/x.py", Tool: "Write", Category: model.CategorySource},
		{Timestamp: at(4), Type: model.FactCommitMade, SessionID: "s1", MessagePreview: "x"},
		{Timestamp: at(5), Type: model.FactTaskClosed, SessionID: "s1", TaskID: "proj-1", Reason: "done"},
		{Timestamp: at(6), Type: model.FactSessionEnded, SessionID: "s1", TranscriptPath: "/tx/s1.jsonl"},
	}
}

func TestReconstructFullSession(t *testing.T) {
	rec := reconstruct.Reconstruct(fullSession())

	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, "/work", rec.CWD)
	assert.Equal(t, at(0), rec.StartedAt)
	require.Len(t, rec.FileWrites, 2)
	assert.Equal(t, "plans/foo.md", rec.FileWrites[0].Path)
	require.Len(t, rec.TaskClaims, 1)
	require.Len(t, rec.TaskCloses, 1)
	assert.Equal(t, "done", rec.TaskCloses[0].Reason)
	require.Len(t, rec.Commits, 1)
	require.NotNil(t, rec.EndedAt)
	assert.Equal(t, at(6), *rec.EndedAt)
	assert.Equal(t, "/tx/s1.jsonl", rec.TranscriptPath)
}

func TestReconstructDeterministic(t *testing.T) {
	facts := fullSession()
	first := reconstruct.Reconstruct(facts)
	second := reconstruct.Reconstruct(facts)
	assert.Equal(t, first, second)
}

func TestReconstructEmptyLog(t *testing.T) {
	rec := reconstruct.Reconstruct(nil)
	assert.True(t, rec.Empty())
	assert.Empty(t, rec.SessionID)
}

func TestReconstructWithoutTerminalFact(t *testing.T) {
	facts := fullSession()[:4] // killed before commit and close
	rec := reconstruct.Reconstruct(facts)

	assert.Nil(t, rec.EndedAt)
	assert.Len(t, rec.FileWrites, 2)
	assert.Len(t, rec.TaskClaims, 1)
}

func TestCheckpointDoesNotFragmentSession(t *testing.T) {
	facts := []model.Fact{
		{Timestamp: at(0), Type: model.FactSessionStarted, SessionID: "s1", CWD: "/work"},
		{Timestamp: at(1), Type: model.FactFileWritten, SessionID: "s1", Path: "src/a.go"},
		{Timestamp: at(2), Type: model.FactSessionCheckpointed, SessionID: "s1", Reason: "context-compaction"},
		{Timestamp: at(3), Type: model.FactFileWritten, SessionID: "s1", Path: "src/b.go"},
	}
	rec := reconstruct.Reconstruct(facts)

	// Writes before and after the checkpoint accumulate into one record.
	require.Len(t, rec.FileWrites, 2)
	require.Len(t, rec.Checkpoints, 1)
	assert.Equal(t, "context-compaction", rec.Checkpoints[0].Reason)
	assert.Nil(t, rec.EndedAt)
}

func TestUnclassifiedFactsCounted(t *testing.T) {
	facts := []model.Fact{
		{Timestamp: at(0), Type: model.FactSessionStarted, SessionID: "s1"},
		{Timestamp: at(1), Type: model.FactUnclassified, SessionID: "s1"},
		{Timestamp: at(2), Type: model.FactUnclassified, SessionID: "s1"},
	}
	rec := reconstruct.Reconstruct(facts)
	assert.Equal(t, 2, rec.Unclassified)
}
