package filter_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chronicle-project/chronicle/internal/filter"
	"github.com/chronicle-project/chronicle/pkg/config"
)

func cfg() *config.Config { return config.Default() }

func toolUse(tool, field, value string) []byte {
	return []byte(fmt.Sprintf(
		`{"hook_event_name":"PostToolUse","session_id":"s1","tool_name":%q,"tool_input":{%q:%q}}`,
		tool, field, value))
}

func TestLifecycleEventsAlwaysEscalate(t *testing.T) {
	for _, name := range []string{"SessionStart", "Stop", "PreCompact", "UserPromptSubmit", "SessionEnd"} {
		payload := []byte(fmt.Sprintf(`{"hook_event_name":%q,"session_id":"s1"}`, name))
		assert.Equal(t, filter.Escalate, filter.Decide(payload, cfg()), "event %s", name)
	}
}

func TestReadOnlyToolsDiscard(t *testing.T) {
	for _, tool := range []string{"Read", "Glob", "Grep", "WebSearch", "TodoWrite"} {
		payload := toolUse(tool, "file_path", "src/x.py")
		assert.Equal(t, filter.Discard, filter.Decide(payload, cfg()), "tool %s", tool)
	}
}

func TestWriteToTrackedPathEscalates(t *testing.T) {
	assert.Equal(t, filter.Escalate, filter.Decide(toolUse("Write", "file_path", "plans/foo.md"), cfg()))
	assert.Equal(t, filter.Escalate, filter.Decide(toolUse("Edit", "file_path", "src/x.py"), cfg()))
	assert.Equal(t, filter.Escalate, filter.Decide(toolUse("NotebookEdit", "notebook_path", "src/nb.ipynb"), cfg()))
}

func TestWriteOutsideTrackedPathDiscards(t *testing.T) {
	assert.Equal(t, filter.Discard, filter.Decide(toolUse("Write", "file_path", "/tmp/scratch.txt"), cfg()))
	assert.Equal(t, filter.Discard, filter.Decide(toolUse("Write", "file_path", "vendor/x.go"), cfg()))
}

func TestBashTrackedCommandsEscalate(t *testing.T) {
	for _, cmd := range []string{
		"cub task claim proj-1",
		`cub task close proj-1 -r "done"`,
		`git commit -m "x"`,
		"git add -A",
	} {
		assert.Equal(t, filter.Escalate, filter.Decide(toolUse("Bash", "command", cmd), cfg()), "command %s", cmd)
	}
}

func TestBashUntrackedCommandsDiscard(t *testing.T) {
	for _, cmd := range []string{"ls -la", "git status", "go test ./..."} {
		assert.Equal(t, filter.Discard, filter.Decide(toolUse("Bash", "command", cmd), cfg()), "command %s", cmd)
	}
}

func TestMalformedPayloadFailsOpen(t *testing.T) {
	assert.Equal(t, filter.Discard, filter.Decide([]byte(`{"hook_event_name":`), cfg()))
	assert.Equal(t, filter.Discard, filter.Decide(nil, cfg()))
	assert.Equal(t, filter.Discard, filter.Decide([]byte(`{}`), cfg()))
}

func TestWriteWithMissingPathDiscards(t *testing.T) {
	payload := []byte(`{"hook_event_name":"PostToolUse","tool_name":"Write","tool_input":{}}`)
	assert.Equal(t, filter.Discard, filter.Decide(payload, cfg()))
}
