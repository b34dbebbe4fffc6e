// Package filter implements the relevance filter that runs on every
// tool-use event. It sits on the hot path of the assistant's turn, so it
// inspects only the handful of payload fields it needs, via gjson, instead
// of unmarshaling the whole event.
package filter

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/model"
	"github.com/chronicle-project/chronicle/pkg/pathutil"
)

// Decision is the filter's verdict for one event.
type Decision int

const (
	// Discard drops the event without invoking the classifier.
	Discard Decision = iota
	// Escalate forwards the event to the classifier.
	Escalate
)

func (d Decision) String() string {
	if d == Escalate {
		return "escalate"
	}
	return "discard"
}

// writeTools are the tools whose successful use mutates files.
var writeTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"NotebookEdit": true,
}

// Decide is a pure function of the payload's minimal fields and the
// tracked-pattern configuration. Malformed payloads fail open to Discard:
// missing one observation is strictly better than blocking the assistant.
func Decide(payload []byte, cfg *config.Config) Decision {
	if !gjson.ValidBytes(payload) {
		return Discard
	}

	event := model.EventName(gjson.GetBytes(payload, "hook_event_name").String())
	switch event {
	case model.EventSessionStart, model.EventStop, model.EventPreCompact,
		model.EventUserPromptSubmit, model.EventSessionEnd:
		// Lifecycle events are rare and always informative.
		return Escalate
	case model.EventPostToolUse:
		return decideToolUse(payload, cfg)
	}
	return Discard
}

func decideToolUse(payload []byte, cfg *config.Config) Decision {
	tool := gjson.GetBytes(payload, "tool_name").String()

	switch {
	case writeTools[tool]:
		path := gjson.GetBytes(payload, "tool_input.file_path").String()
		if path == "" {
			path = gjson.GetBytes(payload, "tool_input.notebook_path").String()
		}
		if path != "" && pathutil.UnderAny(path, cfg.TrackedPaths) {
			return Escalate
		}
		return Discard

	case tool == "Bash":
		command := gjson.GetBytes(payload, "tool_input.command").String()
		for _, pattern := range cfg.TrackedCommands {
			if pattern != "" && strings.Contains(command, pattern) {
				return Escalate
			}
		}
		return Discard
	}

	// Read-only inspection tools (Read, Glob, Grep, ...) never escalate.
	return Discard
}
