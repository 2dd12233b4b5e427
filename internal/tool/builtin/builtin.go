// Package builtin implements the local tool set: process execution, file
// read/write, directory listing, and log scanning. Each tool decodes its
// argument map into a typed request, validates it, and returns a flat payload
// map ready for result normalization.
package builtin

import (
	"context"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

// runner executes a typed request and returns a payload map.
type runner[Req any] func(ctx context.Context, req Req) (map[string]any, error)

// handler adapts a typed tool function to the tool.Handler contract.
// Argument decoding (mapstructure) and validation are centralized here.
type handler[Req any] struct {
	desc tool.Descriptor
	run  runner[Req]
}

// validator is implemented by request types with semantic checks beyond the
// schema (value ranges, path presence).
type validator interface {
	Validate() error
}

func newHandler[Req any](desc tool.Descriptor, run runner[Req]) *handler[Req] {
	desc.Source = tool.Builtin()
	return &handler[Req]{desc: desc, run: run}
}

func (h *handler[Req]) Descriptor() tool.Descriptor {
	return h.desc
}

func (h *handler[Req]) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req Req
	if err := mapstructure.Decode(args, &req); err != nil {
		return nil, tool.WrapKind(tool.FailSchemaValidation, err)
	}
	if v, ok := any(&req).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, tool.WrapKind(tool.FailSchemaValidation, err)
		}
	}
	return h.run(ctx, req)
}

// Set builds the full builtin tool set with shared configuration.
func Set(cfg *config.Config, logger *slog.Logger) []tool.Handler {
	exec := newCommandExecutor(cfg, logger)
	return []tool.Handler{
		newRunCommand(cfg, exec),
		newReadFile(cfg),
		newWriteFile(),
		newListDirectory(),
		newReadLogs(cfg),
	}
}
