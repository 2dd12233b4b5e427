package tool

import "context"

// Handler is the execution contract shared by builtin tools and remote
// connection stubs. Implementations must be safe for concurrent use and keep
// no mutable state between invocations beyond the OS resources they touch.
type Handler interface {
	// Descriptor returns the immutable descriptor for this tool.
	Descriptor() Descriptor

	// Execute runs the tool. Errors carrying a FailureKind (see KindError)
	// classify the failure; any other error is reported as INTERNAL.
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}
