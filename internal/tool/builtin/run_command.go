package builtin

import (
	"context"
	"errors"
	"time"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

func newRunCommand(cfg *config.Config, exec *commandExecutor) tool.Handler {
	desc := tool.Descriptor{
		Name:        "run_command",
		Description: "Execute a shell command and capture its output",
		Schema: tool.Schema{Params: map[string]tool.Param{
			"command": {Kind: tool.KindString, Description: "The shell command to execute", Required: true},
			"timeout": {Kind: tool.KindInteger, Description: "Timeout in seconds (default 30)"},
		}},
	}

	return newHandler(desc, func(ctx context.Context, req runCommandRequest) (map[string]any, error) {
		timeout := time.Duration(req.Timeout) * time.Second
		if req.Timeout == 0 {
			timeout = time.Duration(cfg.Tools.DefaultCommandTimeoutSeconds) * time.Second
		}

		result, err := exec.RunShell(ctx, req.Command, timeout)
		if err != nil {
			switch {
			case errors.Is(err, ErrCommandTimeout):
				return nil, tool.Kindf(tool.FailTimeout, "command timed out after %s", timeout)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, err
			case result == nil:
				return nil, err
			}
		}

		// Non-zero exit is a successful execution with a non-zero code, not a
		// tool failure.
		return map[string]any{
			"exit_code": result.ExitCode,
			"stdout":    result.Stdout,
			"stderr":    result.Stderr,
			"truncated": result.Truncated,
		}, nil
	})
}
