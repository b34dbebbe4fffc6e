package model

import "encoding/json"

// EventName identifies a hook event delivered by the assistant.
// The set is closed: the classifier switches exhaustively over these values
// and treats anything else as unclassifiable.
type EventName string

const (
	EventSessionStart     EventName = "SessionStart"
	EventPostToolUse      EventName = "PostToolUse"
	EventStop             EventName = "Stop"
	EventPreCompact       EventName = "PreCompact"
	EventUserPromptSubmit EventName = "UserPromptSubmit"
	EventSessionEnd       EventName = "SessionEnd"
)

// KnownEvent reports whether name belongs to the closed hook event set.
func KnownEvent(name EventName) bool {
	switch name {
	case EventSessionStart, EventPostToolUse, EventStop,
		EventPreCompact, EventUserPromptSubmit, EventSessionEnd:
		return true
	}
	return false
}

// ToolInput carries the tool-specific fields of a PostToolUse payload.
// Only the fields the pipeline inspects are decoded.
type ToolInput struct {
	FilePath     string `json:"file_path,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
	Command      string `json:"command,omitempty"`
}

// RawEvent is the payload delivered on stdin for one hook invocation.
// It exists only for the duration of that process.
type RawEvent struct {
	EventName      EventName `json:"hook_event_name"`
	SessionID      string    `json:"session_id"`
	CWD            string    `json:"cwd,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	ToolName       string    `json:"tool_name,omitempty"`
	ToolInput      ToolInput `json:"tool_input,omitempty"`
	Prompt         string    `json:"prompt,omitempty"`
	Trigger        string    `json:"trigger,omitempty"`

	// Raw preserves the undecoded payload for unclassified facts.
	Raw json.RawMessage `json:"-"`
}

// HookResponse is the minimal JSON the assistant expects on stdout.
// The pipeline always responds with Continue=true regardless of internal outcome.
type HookResponse struct {
	Continue bool `json:"continue"`
}
