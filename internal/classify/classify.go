// Package classify maps escalated hook events to session log facts.
package classify

import (
	"regexp"
	"strings"

	"github.com/chronicle-project/chronicle/internal/tasks"
	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/logging"
	"github.com/chronicle-project/chronicle/pkg/model"
	"github.com/chronicle-project/chronicle/pkg/pathutil"
)

// promptTaskID matches an explicit task reference in prompt text, e.g.
// "work on task proj-12". Requires the word "task" so ordinary hyphenated
// words do not trigger it.
var promptTaskID = regexp.MustCompile(`(?i)\btask\s+([A-Za-z][A-Za-z0-9._]*-[0-9]+)\b`)

const previewLimit = 72

// Classifier turns raw events into facts. Task claims and closes seen in
// command text also flow synchronously through the task backend so its
// state stays consistent with the observed session.
type Classifier struct {
	cfg   *config.Config
	tasks tasks.Backend
	log   *logging.Logger
}

// New returns a classifier. backend may be nil when no task backend is
// configured; claims and closes are then recorded as facts only.
func New(cfg *config.Config, backend tasks.Backend, log *logging.Logger) *Classifier {
	if log == nil {
		log = logging.NewLogger(logging.LevelWarn)
	}
	return &Classifier{cfg: cfg, tasks: backend, log: log}
}

// Classify maps one escalated event to a fact. A nil fact with nil error
// means the event carries nothing worth recording. Classification never
// fails on payload content: anything it cannot interpret becomes an
// unclassified fact preserving the raw payload.
func (c *Classifier) Classify(ev *model.RawEvent) (*model.Fact, error) {
	if ev == nil {
		return nil, errclass.ErrEventMalformed
	}

	switch ev.EventName {
	case model.EventSessionStart:
		return &model.Fact{
			Type:      model.FactSessionStarted,
			SessionID: ev.SessionID,
			CWD:       ev.CWD,
		}, nil

	case model.EventPostToolUse:
		return c.classifyToolUse(ev), nil

	case model.EventUserPromptSubmit:
		return c.classifyPrompt(ev), nil

	case model.EventPreCompact:
		reason := ev.Trigger
		if reason == "" {
			reason = "context-compaction"
		}
		return &model.Fact{
			Type:      model.FactSessionCheckpointed,
			SessionID: ev.SessionID,
			Reason:    reason,
		}, nil

	case model.EventStop, model.EventSessionEnd:
		return &model.Fact{
			Type:           model.FactSessionEnded,
			SessionID:      ev.SessionID,
			TranscriptPath: ev.TranscriptPath,
		}, nil
	}

	return c.unclassified(ev), nil
}

func (c *Classifier) classifyToolUse(ev *model.RawEvent) *model.Fact {
	switch ev.ToolName {
	case "Write", "Edit", "NotebookEdit":
		path := ev.ToolInput.FilePath
		if path == "" {
			path = ev.ToolInput.NotebookPath
		}
		if path == "" {
			return c.unclassified(ev)
		}
		path = pathutil.Normalize(path)
		return &model.Fact{
			Type:      model.FactFileWritten,
			SessionID: ev.SessionID,
			Path:      path,
			Tool:      ev.ToolName,
			Category:  pathutil.Categorize(path),
		}

	case "Bash":
		return c.classifyCommand(ev)
	}
	return c.unclassified(ev)
}

// classifyCommand inspects escalated Bash command text for task and
// commit activity. Escalated commands that match no known pattern (for
// example a bare git add) are kept as unclassified facts.
func (c *Classifier) classifyCommand(ev *model.RawEvent) *model.Fact {
	toks := splitCommand(ev.ToolInput.Command)

	if taskID, verb, reason, ok := c.parseTaskCommand(toks); ok {
		if err := pathutil.ValidateTaskID(taskID); err != nil {
			c.log.Warn("ignoring task command with invalid id", map[string]any{
				"session_id": ev.SessionID,
				"task_id":    taskID,
			})
			return c.unclassified(ev)
		}
		switch verb {
		case "claim":
			c.claimBackend(taskID, ev.SessionID)
			return &model.Fact{
				Type:      model.FactTaskClaimed,
				SessionID: ev.SessionID,
				TaskID:    taskID,
				Source:    model.ClaimFromCommand,
			}
		case "close":
			c.closeBackend(taskID, reason, ev.SessionID)
			return &model.Fact{
				Type:      model.FactTaskClosed,
				SessionID: ev.SessionID,
				TaskID:    taskID,
				Reason:    reason,
			}
		}
	}

	if preview, ok := parseCommit(toks); ok {
		// Hash stays empty here: the command text predates the commit
		// object. Synthesis resolves it from version control.
		return &model.Fact{
			Type:           model.FactCommitMade,
			SessionID:      ev.SessionID,
			MessagePreview: preview,
		}
	}

	return c.unclassified(ev)
}

func (c *Classifier) classifyPrompt(ev *model.RawEvent) *model.Fact {
	m := promptTaskID.FindStringSubmatch(ev.Prompt)
	if m == nil {
		return nil
	}
	taskID := m[1]
	if pathutil.ValidateTaskID(taskID) != nil {
		return nil
	}
	// Prompt mentions are a courtesy signal only. The backend is not
	// consulted; an explicit claim command remains the authoritative path.
	return &model.Fact{
		Type:      model.FactTaskClaimed,
		SessionID: ev.SessionID,
		TaskID:    taskID,
		Source:    model.ClaimFromPrompt,
	}
}

func (c *Classifier) unclassified(ev *model.RawEvent) *model.Fact {
	return &model.Fact{
		Type:       model.FactUnclassified,
		SessionID:  ev.SessionID,
		RawPayload: ev.Raw,
	}
}

func (c *Classifier) claimBackend(taskID, sessionID string) {
	if c.tasks == nil {
		return
	}
	if err := c.tasks.Claim(taskID, sessionID); err != nil {
		c.log.Warn("task backend claim failed", map[string]any{
			"session_id": sessionID,
			"task_id":    taskID,
			"error":      err.Error(),
		})
	}
}

func (c *Classifier) closeBackend(taskID, reason, sessionID string) {
	if c.tasks == nil {
		return
	}
	if err := c.tasks.Close(taskID, reason); err != nil {
		c.log.Warn("task backend close failed", map[string]any{
			"session_id": sessionID,
			"task_id":    taskID,
			"error":      err.Error(),
		})
	}
}

// parseTaskCommand recognizes "<taskcmd> task claim <id>" and
// "<taskcmd> task close <id> [-r|--reason <reason>]" anywhere in the
// token stream, so compound shell lines still match.
func (c *Classifier) parseTaskCommand(toks []string) (taskID, verb, reason string, ok bool) {
	name := c.cfg.TaskCommand
	for i := 0; i+3 < len(toks); i++ {
		if commandBase(toks[i]) != name || toks[i+1] != "task" {
			continue
		}
		verb = toks[i+2]
		if verb != "claim" && verb != "close" {
			continue
		}
		taskID = toks[i+3]
		if verb == "close" {
			reason = parseReason(toks[i+4:])
		}
		return taskID, verb, reason, true
	}
	return "", "", "", false
}

func parseReason(toks []string) string {
	for i, tok := range toks {
		if (tok == "-r" || tok == "--reason") && i+1 < len(toks) {
			return toks[i+1]
		}
		if v, found := strings.CutPrefix(tok, "--reason="); found {
			return v
		}
	}
	return ""
}

// parseCommit recognizes "git commit" and returns the message preview
// from the -m flag, truncated to the first line.
func parseCommit(toks []string) (string, bool) {
	for i, tok := range toks {
		if commandBase(tok) != "git" {
			continue
		}
		// Global flags like -C <dir> may sit between git and the
		// subcommand; scan up to the next shell operator.
		for j := i + 1; j < len(toks); j++ {
			switch toks[j] {
			case "&&", "||", ";", "|":
				j = len(toks)
			case "commit":
				return commitPreview(toks[j+1:]), true
			}
		}
	}
	return "", false
}

func commitPreview(toks []string) string {
	var msg string
	for i, tok := range toks {
		if (tok == "-m" || tok == "--message") && i+1 < len(toks) {
			msg = toks[i+1]
			break
		}
		if v, found := strings.CutPrefix(tok, "--message="); found {
			msg = v
			break
		}
	}
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if len(msg) > previewLimit {
		msg = msg[:previewLimit]
	}
	return msg
}

func commandBase(tok string) string {
	if idx := strings.LastIndexByte(tok, '/'); idx >= 0 {
		return tok[idx+1:]
	}
	return tok
}

// splitCommand tokenizes shell command text with basic single and double
// quote handling. Shell operators are kept as ordinary tokens; full shell
// parsing is out of scope for pattern matching.
func splitCommand(s string) []string {
	var (
		toks  []string
		cur   strings.Builder
		quote byte
		has   bool
	)
	flush := func() {
		if has {
			toks = append(toks, cur.String())
			cur.Reset()
			has = false
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			has = true
		case ch == ' ' || ch == '\t' || ch == '\n':
			flush()
		default:
			cur.WriteByte(ch)
			has = true
		}
	}
	flush()
	return toks
}
