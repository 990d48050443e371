package domain

import "fmt"

// RuntimeError is the unified error type for the runtime.
// Each error has a numeric code and human-readable message.
type RuntimeError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("capstan error %d: %s", e.Code, e.Message)
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(code int, msg string) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg}
}

// WrapRuntimeError creates a RuntimeError that includes a cause.
func WrapRuntimeError(code int, msg string, cause error) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Gate / dispatch errors (-32010 to -32039) ----

var (
	ErrInvalidMode         = &RuntimeError{Code: -32010, Message: "invalid mode"}
	ErrUnknownCapability   = &RuntimeError{Code: -32011, Message: "unknown capability"}
	ErrPermissionDenied    = &RuntimeError{Code: -32012, Message: "permission denied"}
	ErrDuplicateCapability = &RuntimeError{Code: -32013, Message: "capability already registered"}
	ErrInvalidCapability   = &RuntimeError{Code: -32014, Message: "capability definition is invalid"}
)

// ---- Conversation loop errors (-32040 to -32069) ----

var (
	ErrMaxIterationsExceeded = &RuntimeError{Code: -32040, Message: "maximum loop iterations exceeded"}
	ErrSessionNotFound       = &RuntimeError{Code: -32041, Message: "session not found"}
	ErrSessionNotActive      = &RuntimeError{Code: -32042, Message: "session is not active"}
	ErrDuplicateSession      = &RuntimeError{Code: -32043, Message: "session already exists"}
	ErrModelUnavailable      = &RuntimeError{Code: -32044, Message: "model backend unavailable"}
)

// ---- Edit engine errors (-32070 to -32099) ----

var (
	ErrIO    = &RuntimeError{Code: -32070, Message: "file I/O failed"}
	ErrParse = &RuntimeError{Code: -32071, Message: "malformed edit content"}
)

// ---- Subprocess errors (-32100 to -32129) ----

var (
	ErrSubprocessTimeout = &RuntimeError{Code: -32100, Message: "subprocess exceeded timeout"}
	ErrSubprocessFailure = &RuntimeError{Code: -32101, Message: "subprocess exited with failure"}
	ErrProcNotFound      = &RuntimeError{Code: -32102, Message: "background process not found"}
)

// ---- Store / config errors (-32130 to -32159) ----

var (
	ErrStoreInit     = &RuntimeError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery    = &RuntimeError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite    = &RuntimeError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid = &RuntimeError{Code: -32133, Message: "invalid configuration"}
)

// ---- Provider errors (-32160 to -32189) ----

var (
	ErrLinterUnavailable = &RuntimeError{Code: -32160, Message: "no linter provider for file"}
	ErrSearchBackend     = &RuntimeError{Code: -32161, Message: "search backend request failed"}
)
