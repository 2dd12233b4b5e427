package builtin

import "errors"

// -- Sentinels --

var (
	ErrCommandRequired  = errors.New("command is required")
	ErrPathRequired     = errors.New("path is required")
	ErrInvalidTimeout   = errors.New("timeout must be non-negative")
	ErrInvalidMaxLines  = errors.New("max_lines must be non-negative")
	ErrInvalidLineCount = errors.New("lines must be non-negative")
	ErrNotRegularFile   = errors.New("path is not a regular file")
	ErrNotDirectory     = errors.New("path is not a directory")
)
