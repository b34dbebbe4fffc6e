package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-project/chronicle/internal/sessionlog"
	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/model"
)

func initWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Init(t.TempDir())
	require.NoError(t, err)
	return ws
}

func TestCheckHealthyWorkspace(t *testing.T) {
	ws := initWorkspace(t)

	result, err := NewDoctor(ws).Check(false)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Findings)
}

func TestCheckMissingFormatVersion(t *testing.T) {
	ws := initWorkspace(t)
	require.NoError(t, os.Remove(filepath.Join(ws.Dir(), "format_version")))

	result, err := NewDoctor(ws).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	require.NotEmpty(t, result.Findings)
	assert.Equal(t, "format", result.Findings[0].Category)
}

func TestCheckFutureFormatVersion(t *testing.T) {
	ws := initWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "format_version"), []byte("99\n"), 0644))

	result, err := NewDoctor(ws).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
}

func TestCheckBadConfig(t *testing.T) {
	ws := initWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "config.yaml"), []byte("{{not yaml"), 0644))

	result, err := NewDoctor(ws).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)

	var categories []string
	for _, f := range result.Findings {
		categories = append(categories, f.Category)
	}
	assert.Contains(t, categories, "config")
}

func TestStrictVerifiesSessionChains(t *testing.T) {
	ws := initWorkspace(t)

	a := sessionlog.NewAppender(ws.SessionLogPath("sess-good"))
	require.NoError(t, a.Append(&model.Fact{Type: model.FactSessionStarted, SessionID: "sess-good", CWD: "/w"}))
	require.NoError(t, a.Append(&model.Fact{Type: model.FactSessionEnded, SessionID: "sess-good"}))

	result, err := NewDoctor(ws).Check(true)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
}

func TestStrictDetectsTamperedChain(t *testing.T) {
	ws := initWorkspace(t)

	path := ws.SessionLogPath("sess-bad")
	a := sessionlog.NewAppender(path)
	require.NoError(t, a.Append(&model.Fact{Type: model.FactSessionStarted, SessionID: "sess-bad", CWD: "/w"}))
	require.NoError(t, a.Append(&model.Fact{Type: model.FactSessionEnded, SessionID: "sess-bad"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"cwd":"/w"`, `"cwd":"/x"`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	result, err := NewDoctor(ws).Check(true)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
}
