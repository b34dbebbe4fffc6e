//go:build conformance

package conformance

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronicle-project/chronicle/internal/ledger"
	"github.com/chronicle-project/chronicle/internal/pipeline"
	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/logging"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// harness drives the full hook pipeline against a real workspace and the
// real SQLite ledger, one event at a time, the way the assistant would.
type harness struct {
	t  *testing.T
	ws *workspace.Workspace
	p  *pipeline.Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ws, err := workspace.Init(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, config.Save(ws.Root, config.Default()))

	p := pipeline.New(ws, config.Default(), logging.NewLogger(logging.LevelError))
	return &harness{t: t, ws: ws, p: p}
}

// deliver feeds one raw payload through the pipeline and asserts the
// invariant every scenario shares: the continue response.
func (h *harness) deliver(payload string) {
	h.t.Helper()
	var out bytes.Buffer
	require.NoError(h.t, h.p.Run(context.Background(), strings.NewReader(payload), &out))
	require.JSONEq(h.t, `{"continue":true}`, out.String())
}

func (h *harness) lifecycle(name model.EventName, sessionID string) {
	h.t.Helper()
	h.deliver(fmt.Sprintf(`{"hook_event_name":%q,"session_id":%q,"cwd":%q}`,
		name, sessionID, h.ws.Root))
}

func (h *harness) write(sessionID, path string) {
	h.t.Helper()
	h.deliver(fmt.Sprintf(
		`{"hook_event_name":"PostToolUse","session_id":%q,"tool_name":"Write","tool_input":{"file_path":%q}}`,
		sessionID, path))
}

func (h *harness) bash(sessionID, command string) {
	h.t.Helper()
	h.deliver(fmt.Sprintf(
		`{"hook_event_name":"PostToolUse","session_id":%q,"tool_name":"Bash","tool_input":{"command":%q}}`,
		sessionID, command))
}

// ledgerRecords reads back everything the scenario synthesized.
func (h *harness) ledgerRecords() []model.CompletionRecord {
	h.t.Helper()
	store, err := ledger.Open(h.ws.LedgerPath())
	require.NoError(h.t, err)
	defer store.Close()

	records, err := store.List()
	require.NoError(h.t, err)
	return records
}
