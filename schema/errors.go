package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Registry errors
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")

	// Transport errors
	ErrModelUnreachable = errors.New("model endpoint unreachable")
)

// ToolError wraps a failure with the tool and operation it occurred in.
type ToolError struct {
	Tool string
	Op   string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a ToolError.
func NewToolError(tool, op string, err error) *ToolError {
	return &ToolError{Tool: tool, Op: op, Err: err}
}

// MissingParameterError lists every required parameter absent from an
// action, not just the first.
type MissingParameterError struct {
	Tool   string
	Params []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("tool %s: missing required parameters: %s", e.Tool, strings.Join(e.Params, ", "))
}

// TypeMismatchError reports a parameter whose value has the wrong type.
type TypeMismatchError struct {
	Tool     string
	Param    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("tool %s: parameter %q must be %s, got %s", e.Tool, e.Param, e.Expected, e.Actual)
}

// InvalidValueError reports a parameter that is well-typed but fails a
// domain check, such as an unparseable IP literal.
type InvalidValueError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("tool %s: parameter %q invalid: %s", e.Tool, e.Param, e.Reason)
}

// MalformedParameterError is attached to an Action at parse time when a
// value's primitive type cannot be coerced unambiguously.
type MalformedParameterError struct {
	Param  string
	Reason string
}

func (e *MalformedParameterError) Error() string {
	return fmt.Sprintf("parameter %q malformed: %s", e.Param, e.Reason)
}

// ValidationErrors aggregates every failure from one validation pass so
// the dispatch loop can report a complete corrective message.
type ValidationErrors struct {
	Tool   string
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("action for tool %q rejected: %s", e.Tool, strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is/As.
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// RemoteError is an explicit error response from an external reputation
// API (rate limit, invalid key, rejected query).
type RemoteError struct {
	Source  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: remote error %d: %s", e.Source, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: remote error: %s", e.Source, e.Message)
}

// NewRemoteError creates a RemoteError.
func NewRemoteError(source string, code int, message string) *RemoteError {
	return &RemoteError{Source: source, Code: code, Message: message}
}
