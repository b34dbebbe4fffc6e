package errclass

import "fmt"

// ChronicleError is a stable, machine-readable error class.
type ChronicleError struct {
	Code    string
	Message string
}

func (e *ChronicleError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChronicleError) Is(target error) bool {
	t, ok := target.(*ChronicleError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new ChronicleError with the same Code but a specific message.
func (e *ChronicleError) WithMessage(msg string) *ChronicleError {
	return &ChronicleError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new ChronicleError with a formatted message.
func (e *ChronicleError) WithMessagef(format string, args ...any) *ChronicleError {
	return &ChronicleError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes for v0.x.
var (
	ErrEventMalformed       = &ChronicleError{Code: "E_EVENT_MALFORMED"}
	ErrEventUnknown         = &ChronicleError{Code: "E_EVENT_UNKNOWN"}
	ErrLogAppend            = &ChronicleError{Code: "E_LOG_APPEND"}
	ErrChainBroken          = &ChronicleError{Code: "E_CHAIN_BROKEN"}
	ErrLedgerWrite          = &ChronicleError{Code: "E_LEDGER_WRITE"}
	ErrTaskUnknown          = &ChronicleError{Code: "E_TASK_UNKNOWN"}
	ErrTaskState            = &ChronicleError{Code: "E_TASK_STATE"}
	ErrTranscriptUnreadable = &ChronicleError{Code: "E_TRANSCRIPT_UNREADABLE"}
	ErrWorkspaceMissing     = &ChronicleError{Code: "E_WORKSPACE_MISSING"}
	ErrNameInvalid          = &ChronicleError{Code: "E_NAME_INVALID"}
)
