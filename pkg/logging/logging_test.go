package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-project/chronicle/pkg/logging"
)

func TestLoggerWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(logging.LevelInfo)
	l.SetOutput(&buf)

	l.Info("session finalized", map[string]any{"session_id": "s1"})

	var entry logging.LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, logging.LevelInfo, entry.Level)
	assert.Equal(t, "session finalized", entry.Message)
	assert.Equal(t, "s1", entry.Fields["session_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(logging.LevelWarn)
	l.SetOutput(&buf)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestWithFieldsInherits(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(logging.LevelInfo)
	l.SetOutput(&buf)

	child := l.WithFields(map[string]any{"component": "synth"})
	child.Info("wrote record", map[string]any{"task_id": "proj-1"})

	var entry logging.LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "synth", entry.Fields["component"])
	assert.Equal(t, "proj-1", entry.Fields["task_id"])
}

func TestOpenFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.log")

	l := logging.OpenFileLogger(logging.LevelInfo, path)
	l.Info("first")
	require.NoError(t, l.Close())

	l = logging.OpenFileLogger(logging.LevelInfo, path)
	l.Info("second")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestOpenFileLoggerBadPathDegrades(t *testing.T) {
	l := logging.OpenFileLogger(logging.LevelInfo, filepath.Join(t.TempDir(), "no", "such", "dir.log"))
	// Must not panic and must still accept writes.
	l.Info("still alive")
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel("bogus"))
}
