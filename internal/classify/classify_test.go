package classify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// recordingBackend captures claim/close calls for assertions.
type recordingBackend struct {
	claims   []string
	closes   []string
	reasons  []string
	claimErr error
}

func (b *recordingBackend) Claim(taskID, sessionID string) error {
	b.claims = append(b.claims, taskID)
	return b.claimErr
}

func (b *recordingBackend) Close(taskID, reason string) error {
	b.closes = append(b.closes, taskID)
	b.reasons = append(b.reasons, reason)
	return nil
}

func (b *recordingBackend) Exists(string) (bool, error) { return true, nil }

func newTestClassifier(backend *recordingBackend) *Classifier {
	if backend == nil {
		return New(config.Default(), nil, nil)
	}
	return New(config.Default(), backend, nil)
}

func bashEvent(command string) *model.RawEvent {
	return &model.RawEvent{
		EventName: model.EventPostToolUse,
		SessionID: "sess-1",
		ToolName:  "Bash",
		ToolInput: model.ToolInput{Command: command},
	}
}

func TestClassifySessionStart(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventSessionStart,
		SessionID: "sess-1",
		CWD:       "/work/repo",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FactSessionStarted, fact.Type)
	assert.Equal(t, "/work/repo", fact.CWD)
}

func TestClassifyFileWrite(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventPostToolUse,
		SessionID: "sess-1",
		ToolName:  "Write",
		ToolInput: model.ToolInput{FilePath: "src/x.py"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.FactFileWritten, fact.Type)
	assert.Equal(t, "src/x.py", fact.Path)
	assert.Equal(t, "Write", fact.Tool)
	assert.Equal(t, model.CategorySource, fact.Category)
}

func TestClassifyNotebookEdit(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventPostToolUse,
		SessionID: "sess-1",
		ToolName:  "NotebookEdit",
		ToolInput: model.ToolInput{NotebookPath: "captures/run.ipynb"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.FactFileWritten, fact.Type)
	assert.Equal(t, "captures/run.ipynb", fact.Path)
	assert.Equal(t, model.CategoryCapture, fact.Category)
}

func TestClassifyTaskClaim(t *testing.T) {
	backend := &recordingBackend{}
	c := newTestClassifier(backend)

	fact, err := c.Classify(bashEvent("cub task claim proj-1"))
	require.NoError(t, err)
	assert.Equal(t, model.FactTaskClaimed, fact.Type)
	assert.Equal(t, "proj-1", fact.TaskID)
	assert.Equal(t, model.ClaimFromCommand, fact.Source)
	assert.Equal(t, []string{"proj-1"}, backend.claims)
}

func TestClassifyTaskCloseWithReason(t *testing.T) {
	backend := &recordingBackend{}
	c := newTestClassifier(backend)

	fact, err := c.Classify(bashEvent(`cub task close proj-1 -r "all tests pass"`))
	require.NoError(t, err)
	assert.Equal(t, model.FactTaskClosed, fact.Type)
	assert.Equal(t, "proj-1", fact.TaskID)
	assert.Equal(t, "all tests pass", fact.Reason)
	assert.Equal(t, []string{"proj-1"}, backend.closes)
	assert.Equal(t, []string{"all tests pass"}, backend.reasons)
}

func TestClassifyTaskCloseLongReasonFlag(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent(`cub task close proj-2 --reason "wontfix"`))
	require.NoError(t, err)
	assert.Equal(t, "wontfix", fact.Reason)

	fact, err = c.Classify(bashEvent(`cub task close proj-3 --reason=done`))
	require.NoError(t, err)
	assert.Equal(t, "done", fact.Reason)
}

func TestClassifyTaskCloseNoReason(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent("cub task close proj-1"))
	require.NoError(t, err)
	assert.Equal(t, model.FactTaskClosed, fact.Type)
	assert.Empty(t, fact.Reason)
}

func TestClassifyBackendFailureStillEmitsFact(t *testing.T) {
	backend := &recordingBackend{claimErr: assert.AnError}
	c := newTestClassifier(backend)

	fact, err := c.Classify(bashEvent("cub task claim proj-1"))
	require.NoError(t, err)
	assert.Equal(t, model.FactTaskClaimed, fact.Type)
}

func TestClassifyCommit(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent(`git commit -m "add session reader"`))
	require.NoError(t, err)
	assert.Equal(t, model.FactCommitMade, fact.Type)
	assert.Equal(t, "add session reader", fact.MessagePreview)
	assert.Empty(t, fact.Hash, "hash is resolved at synthesis, not here")
}

func TestClassifyCommitWithGlobalFlags(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent(`git -C /work/repo commit --message="wip"`))
	require.NoError(t, err)
	assert.Equal(t, model.FactCommitMade, fact.Type)
	assert.Equal(t, "wip", fact.MessagePreview)
}

func TestClassifyCommitPreviewFirstLineOnly(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent("git commit -m \"subject\nbody line\""))
	require.NoError(t, err)
	assert.Equal(t, "subject", fact.MessagePreview)
}

func TestClassifyCompoundCommandStillMatches(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(bashEvent("cd /work && cub task claim proj-7"))
	require.NoError(t, err)
	assert.Equal(t, model.FactTaskClaimed, fact.Type)
	assert.Equal(t, "proj-7", fact.TaskID)
}

func TestClassifyUntrackedBashIsUnclassified(t *testing.T) {
	c := newTestClassifier(nil)
	ev := bashEvent("git add -A")
	ev.Raw = json.RawMessage(`{"tool_name":"Bash"}`)

	fact, err := c.Classify(ev)
	require.NoError(t, err)
	assert.Equal(t, model.FactUnclassified, fact.Type)
	assert.JSONEq(t, `{"tool_name":"Bash"}`, string(fact.RawPayload))
}

func TestClassifyPromptTaskMention(t *testing.T) {
	backend := &recordingBackend{}
	c := newTestClassifier(backend)

	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventUserPromptSubmit,
		SessionID: "sess-1",
		Prompt:    "please pick up task proj-4 next",
	})
	require.NoError(t, err)
	require.NotNil(t, fact)
	assert.Equal(t, model.FactTaskClaimed, fact.Type)
	assert.Equal(t, "proj-4", fact.TaskID)
	assert.Equal(t, model.ClaimFromPrompt, fact.Source)
	assert.Empty(t, backend.claims, "prompt mentions never touch the backend")
}

func TestClassifyPromptWithoutTaskMention(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventUserPromptSubmit,
		SessionID: "sess-1",
		Prompt:    "refactor the reader please",
	})
	require.NoError(t, err)
	assert.Nil(t, fact)
}

func TestClassifyPreCompact(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: model.EventPreCompact,
		SessionID: "sess-1",
		Trigger:   "auto",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FactSessionCheckpointed, fact.Type)
	assert.Equal(t, "auto", fact.Reason)

	fact, err = c.Classify(&model.RawEvent{EventName: model.EventPreCompact, SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, "context-compaction", fact.Reason)
}

func TestClassifyStopAndSessionEnd(t *testing.T) {
	c := newTestClassifier(nil)
	for _, name := range []model.EventName{model.EventStop, model.EventSessionEnd} {
		fact, err := c.Classify(&model.RawEvent{
			EventName:      name,
			SessionID:      "sess-1",
			TranscriptPath: "/tmp/t.jsonl",
		})
		require.NoError(t, err)
		assert.Equal(t, model.FactSessionEnded, fact.Type)
		assert.Equal(t, "/tmp/t.jsonl", fact.TranscriptPath)
	}
}

func TestClassifyUnknownEventIsUnclassified(t *testing.T) {
	c := newTestClassifier(nil)
	fact, err := c.Classify(&model.RawEvent{
		EventName: "SomethingNew",
		SessionID: "sess-1",
		Raw:       json.RawMessage(`{"hook_event_name":"SomethingNew"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.FactUnclassified, fact.Type)
}

func TestSplitCommandQuotes(t *testing.T) {
	toks := splitCommand(`cub task close p-1 -r "two words"`)
	assert.Equal(t, []string{"cub", "task", "close", "p-1", "-r", "two words"}, toks)

	toks = splitCommand(`echo 'single quoted'`)
	assert.Equal(t, []string{"echo", "single quoted"}, toks)
}
