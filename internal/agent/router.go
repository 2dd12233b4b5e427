// Package agent routes tool invocation intents to the registry and runs the
// conversation loop between the LLM provider and the tools.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hualet/deepin-term-agent/internal/registry"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

// maxMessageLen bounds failure messages forwarded to callers; anything beyond
// it is noise from the tool, not explanation.
const maxMessageLen = 500

// Intent is one requested tool invocation, before validation.
type Intent struct {
	ToolName  string
	Arguments map[string]any
}

// Response is the routed outcome of one intent. ErrKind mirrors the tool
// failure kinds one to one.
type Response struct {
	CallID   string
	ToolName string
	OK       bool
	Payload  map[string]any
	ErrKind  tool.FailureKind
	Message  string
}

// Router validates intents and dispatches them to the registry. Unknown tools
// and schema violations are answered directly without reaching the executor.
type Router struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewRouter(reg *registry.Registry, logger *slog.Logger) *Router {
	return &Router{registry: reg, logger: logger.With("component", "router")}
}

// ListTools returns every registered descriptor for display and for
// advertising to the provider.
func (r *Router) ListTools() []tool.Descriptor {
	return r.registry.List()
}

// Submit routes one intent to completion. It always produces a Response; the
// message is a short human-readable explanation, never a raw payload.
func (r *Router) Submit(ctx context.Context, intent Intent) Response {
	callID := uuid.NewString()

	desc, err := r.registry.Resolve(intent.ToolName)
	if err != nil {
		return Response{
			CallID:   callID,
			ToolName: intent.ToolName,
			ErrKind:  tool.FailUnknownTool,
			Message:  fmt.Sprintf("no tool named %q is available", intent.ToolName),
		}
	}
	if verr := desc.Schema.Validate(intent.Arguments); verr != nil {
		return Response{
			CallID:   callID,
			ToolName: intent.ToolName,
			ErrKind:  tool.FailSchemaValidation,
			Message:  clip(verr.Error()),
		}
	}

	result := r.registry.Execute(ctx, tool.CallRequest{
		ToolName:  intent.ToolName,
		Arguments: intent.Arguments,
		CallID:    callID,
	})
	return r.toResponse(intent.ToolName, result)
}

// SubmitAll routes a batch of intents. Invalid intents fail fast while the
// valid ones execute concurrently; responses keep the issuance order.
func (r *Router) SubmitAll(ctx context.Context, intents []Intent) []Response {
	responses := make([]Response, len(intents))
	reqs := make([]tool.CallRequest, 0, len(intents))
	slots := make([]int, 0, len(intents))

	for i, intent := range intents {
		callID := uuid.NewString()
		desc, err := r.registry.Resolve(intent.ToolName)
		if err != nil {
			responses[i] = Response{
				CallID:   callID,
				ToolName: intent.ToolName,
				ErrKind:  tool.FailUnknownTool,
				Message:  fmt.Sprintf("no tool named %q is available", intent.ToolName),
			}
			continue
		}
		if verr := desc.Schema.Validate(intent.Arguments); verr != nil {
			responses[i] = Response{
				CallID:   callID,
				ToolName: intent.ToolName,
				ErrKind:  tool.FailSchemaValidation,
				Message:  clip(verr.Error()),
			}
			continue
		}
		reqs = append(reqs, tool.CallRequest{
			ToolName:  intent.ToolName,
			Arguments: intent.Arguments,
			CallID:    callID,
		})
		slots = append(slots, i)
	}

	results := r.registry.ExecuteAll(ctx, reqs)
	for j, result := range results {
		responses[slots[j]] = r.toResponse(reqs[j].ToolName, result)
	}
	return responses
}

func (r *Router) toResponse(toolName string, result tool.Result) Response {
	if result.OK {
		return Response{
			CallID:   result.CallID,
			ToolName: toolName,
			OK:       true,
			Payload:  result.Payload,
		}
	}
	r.logger.Debug("tool call failed", "tool", toolName, "kind", result.Kind)
	return Response{
		CallID:   result.CallID,
		ToolName: toolName,
		ErrKind:  result.Kind,
		Message:  clip(result.Message),
	}
}

func clip(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen] + "..."
	}
	return s
}
