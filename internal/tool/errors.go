package tool

import (
	"errors"
	"fmt"
	"strings"
)

// -- Sentinels --

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrNilHandler  = errors.New("tool handler is nil")
	ErrEmptyName   = errors.New("tool name is empty")
)

// DuplicateToolError is returned when a descriptor's name is already taken in
// the target namespace. The first-registered tool always wins.
type DuplicateToolError struct {
	Name     string
	Existing Source
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered (source %s)", e.Name, e.Existing.Kind)
}

// KindError attaches a failure kind to an underlying error so the executor
// boundary can classify it without knowing the tool's internals.
type KindError struct {
	Kind FailureKind
	Err  error
}

func (e *KindError) Error() string { return string(e.Kind) + ": " + e.Err.Error() }
func (e *KindError) Unwrap() error { return e.Err }

// WrapKind classifies err with the given failure kind.
func WrapKind(kind FailureKind, err error) error {
	return &KindError{Kind: kind, Err: err}
}

// Kindf classifies a formatted error with the given failure kind.
func Kindf(kind FailureKind, format string, args ...any) error {
	return &KindError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ClassifyError extracts the failure kind from err, defaulting to INTERNAL
// for unclassified errors.
func ClassifyError(err error) FailureKind {
	var kindErr *KindError
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}
	return FailInternal
}

// Violation is one schema check failure for a single field.
type Violation struct {
	Field  string
	Reason string
}

// SchemaError aggregates every violation found in one validation pass.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}
