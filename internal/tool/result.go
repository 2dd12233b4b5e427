package tool

// FailureKind is the stable machine-readable classification attached to every
// failed call.
type FailureKind string

const (
	FailUnknownTool      FailureKind = "UNKNOWN_TOOL"
	FailSchemaValidation FailureKind = "SCHEMA_VALIDATION"
	FailTimeout          FailureKind = "TIMEOUT"
	FailUnavailable      FailureKind = "UNAVAILABLE"
	FailNotFound         FailureKind = "NOT_FOUND"
	FailPermission       FailureKind = "PERMISSION"
	FailInternal         FailureKind = "INTERNAL"
)

// CallRequest is one tool invocation. CallID correlates the request with its
// result and with the remote reply envelope; it is never reused.
type CallRequest struct {
	ToolName  string
	Arguments map[string]any
	CallID    string
}

// Result is the single shape every tool execution resolves to: either a
// payload or a classified failure. A Result is immutable and maps to exactly
// one CallRequest via CallID.
type Result struct {
	CallID  string         `json:"call_id"`
	OK      bool           `json:"ok"`
	Payload map[string]any `json:"payload,omitempty"`
	Kind    FailureKind    `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Success wraps a payload into a successful result.
func Success(callID string, payload map[string]any) Result {
	return Result{CallID: callID, OK: true, Payload: payload}
}

// Fail builds a failed result with the given kind and message.
func Fail(callID string, kind FailureKind, message string) Result {
	return Result{CallID: callID, Kind: kind, Message: message}
}
