// Package pipeline wires one hook invocation end to end: guard, filter,
// classifier, session log, and on terminal events the synthesizer.
//
// The pipeline is the outermost boundary of the hook process. Whatever
// happens inside, it prints a neutral continue response and reports
// success: observation must never block the assistant it observes.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chronicle-project/chronicle/internal/classify"
	"github.com/chronicle-project/chronicle/internal/filter"
	"github.com/chronicle-project/chronicle/internal/guard"
	"github.com/chronicle-project/chronicle/internal/ledger"
	"github.com/chronicle-project/chronicle/internal/reconstruct"
	"github.com/chronicle-project/chronicle/internal/sessionlog"
	"github.com/chronicle-project/chronicle/internal/synth"
	"github.com/chronicle-project/chronicle/internal/tasks"
	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/logging"
	"github.com/chronicle-project/chronicle/pkg/model"
	"github.com/chronicle-project/chronicle/pkg/pathutil"
)

// maxPayload bounds how much of stdin one invocation will read.
const maxPayload = 10 << 20

// Pipeline processes hook events for one workspace.
type Pipeline struct {
	ws  *workspace.Workspace
	cfg *config.Config
	log *logging.Logger

	classifier *classify.Classifier

	// openLedger is injectable for tests; nil means the SQLite store.
	openLedger func() (ledger.Ledger, func() error, error)
}

// New builds a pipeline over an initialized workspace.
func New(ws *workspace.Workspace, cfg *config.Config, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewLogger(logging.LevelWarn)
	}
	backend := tasks.NewManifestBackend(ws.Dir())
	return &Pipeline{
		ws:         ws,
		cfg:        cfg,
		log:        log,
		classifier: classify.New(cfg, backend, log),
	}
}

// Run handles one hook invocation. It always writes a continue response
// to stdout and always returns nil: every internal failure is confined
// to the side-channel log.
func (p *Pipeline) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic in hook pipeline", map[string]any{"panic": fmt.Sprint(r)})
		}
		// The one hard obligation of a hook process.
		_ = json.NewEncoder(stdout).Encode(model.HookResponse{Continue: true})
	}()

	p.process(ctx, stdin)
	return nil
}

func (p *Pipeline) process(ctx context.Context, stdin io.Reader) {
	// Guard runs before any payload parsing: when an orchestrated run
	// already instruments this tree, observing again would double-count.
	if guard.Check(p.cfg.GuardEnvVars) == guard.Defer {
		p.log.Debug("orchestrated run detected, deferring")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(stdin, maxPayload))
	if err != nil {
		p.log.Warn("reading hook payload failed", map[string]any{"error": err.Error()})
		return
	}

	if filter.Decide(payload, p.cfg) == filter.Discard {
		return
	}

	var ev model.RawEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.log.Warn("escalated payload failed to decode", map[string]any{"error": err.Error()})
		return
	}
	ev.Raw = payload

	// Session ids become log file names; reject anything that could
	// escape the sessions directory.
	if err := pathutil.ValidateSessionID(ev.SessionID); err != nil {
		p.log.Warn("event with unusable session id dropped", map[string]any{
			"event": string(ev.EventName),
			"error": err.Error(),
		})
		return
	}

	fact, err := p.classifier.Classify(&ev)
	if err != nil {
		p.log.Warn("classification failed", map[string]any{"error": err.Error()})
		return
	}
	if fact != nil {
		appender := sessionlog.NewAppender(p.ws.SessionLogPath(ev.SessionID))
		if err := appender.Append(fact); err != nil {
			p.log.ErrorErr("session log append failed", err, map[string]any{
				"session_id": ev.SessionID,
			})
		}
	}

	if ev.EventName == model.EventStop || ev.EventName == model.EventSessionEnd {
		if err := p.Finalize(ctx, ev.SessionID); err != nil {
			p.log.ErrorErr("synthesis failed", err, map[string]any{
				"session_id": ev.SessionID,
			})
		}
	}
}

// Finalize reconstructs the session and writes its completion records to
// the ledger. Safe to call repeatedly: the ledger updates in place.
func (p *Pipeline) Finalize(ctx context.Context, sessionID string) error {
	if err := pathutil.ValidateSessionID(sessionID); err != nil {
		return err
	}
	facts, err := sessionlog.ReadFacts(p.ws.SessionLogPath(sessionID))
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		return fmt.Errorf("no facts recorded for session %s", sessionID)
	}
	rec := reconstruct.Reconstruct(facts)
	if rec.Empty() {
		return nil
	}
	rec.SessionID = sessionID

	led, closeLedger, err := p.ledger()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			p.log.Warn("closing ledger failed", map[string]any{"error": err.Error()})
		}
	}()

	s := synth.New(led, p.log, p.cfg.Timeout())
	records, err := s.Finalize(ctx, rec)
	if err != nil {
		return err
	}
	p.log.Info("session finalized", map[string]any{
		"session_id": sessionID,
		"records":    len(records),
	})
	return nil
}

func (p *Pipeline) ledger() (ledger.Ledger, func() error, error) {
	if p.openLedger != nil {
		return p.openLedger()
	}
	store, err := ledger.Open(p.ws.LedgerPath())
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
