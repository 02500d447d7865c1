package schema

import "encoding/json"

// Confidence tags how an Action was extracted from model output.
type Confidence string

const (
	// ConfidenceStructured means the action came from a well-formed
	// JSON decision payload in the model response.
	ConfidenceStructured Confidence = "structured"

	// ConfidenceHeuristic means the action was recovered by intent
	// matching over free text and should be treated more cautiously.
	ConfidenceHeuristic Confidence = "heuristic"
)

// Action is the model's requested tool invocation. It is created by the
// decision parser and consumed once by the validator then the executor.
type Action struct {
	Tool       string                 `json:"tool_name"`
	Params     map[string]interface{} `json:"parameters"`
	Confidence Confidence             `json:"confidence"`

	// Issues carries parse-stage parameter problems (wrong primitive
	// types that could not be coerced unambiguously). They are surfaced
	// by the validator, never raised by the parser.
	Issues []error `json:"-"`
}

// Decision is the parser's verdict on a raw model response: either a
// structured Action to dispatch, or a direct answer with no tool needed.
type Decision struct {
	Action *Action
	Answer string
}

// IsAction reports whether the decision requests a tool invocation.
func (d Decision) IsAction() bool {
	return d.Action != nil
}

// NoAction builds a direct-answer decision.
func NoAction(answer string) Decision {
	return Decision{Answer: answer}
}

// ResultStatus is the outcome class of a tool execution.
type ResultStatus string

const (
	StatusOK    ResultStatus = "ok"
	StatusError ResultStatus = "error"
)

// ErrorKind classifies tool execution failures.
type ErrorKind string

const (
	// KindUnavailable covers transport and timeout failures. The
	// dispatch loop may retry these a bounded number of times.
	KindUnavailable ErrorKind = "unavailable"

	// KindRemoteRejected covers explicit upstream rejections (bad key,
	// rate limit, malformed query). Terminal for the cycle.
	KindRemoteRejected ErrorKind = "remote_rejected"
)

// Retryable reports whether a failure of this kind may be retried.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable
}

// ToolResult is the normalized outcome of one tool execution. Exactly one
// of Data or (ErrorKind, Message) is populated.
type ToolResult struct {
	Tool      string          `json:"tool"`
	Status    ResultStatus    `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// OK reports whether the execution succeeded.
func (r ToolResult) OK() bool {
	return r.Status == StatusOK
}

// OKResult builds a successful tool result.
func OKResult(tool string, data json.RawMessage) ToolResult {
	return ToolResult{Tool: tool, Status: StatusOK, Data: data}
}

// ErrorResult builds a failed tool result.
func ErrorResult(tool string, kind ErrorKind, message string) ToolResult {
	return ToolResult{Tool: tool, Status: StatusError, ErrorKind: kind, Message: message}
}
