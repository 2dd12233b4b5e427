package agent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/registry"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

type stubHandler struct {
	desc tool.Descriptor
	run  func(ctx context.Context, args map[string]any) (map[string]any, error)
}

func (h *stubHandler) Descriptor() tool.Descriptor { return h.desc }

func (h *stubHandler) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	return h.run(ctx, args)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, handlers ...tool.Handler) *Router {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tools.CallTimeoutSeconds = 1
	reg := registry.New(cfg, discardLogger())
	for _, h := range handlers {
		require.NoError(t, reg.RegisterBuiltin(h))
	}
	return NewRouter(reg, discardLogger())
}

func greetHandler() *stubHandler {
	return &stubHandler{
		desc: tool.Descriptor{
			Name:   "greet",
			Source: tool.Builtin(),
			Schema: tool.Schema{Params: map[string]tool.Param{
				"name": {Kind: tool.KindString, Required: true},
			}},
		},
		run: func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"greeting": "hello " + args["name"].(string)}, nil
		},
	}
}

func TestSubmit_Success(t *testing.T) {
	r := newTestRouter(t, greetHandler())

	resp := r.Submit(context.Background(), Intent{
		ToolName:  "greet",
		Arguments: map[string]any{"name": "ada"},
	})

	require.True(t, resp.OK, resp.Message)
	assert.Equal(t, "hello ada", resp.Payload["greeting"])
	assert.Equal(t, "greet", resp.ToolName)
	assert.NotEmpty(t, resp.CallID)
}

func TestSubmit_UnknownToolFailsFast(t *testing.T) {
	executed := false
	h := greetHandler()
	h.run = func(context.Context, map[string]any) (map[string]any, error) {
		executed = true
		return map[string]any{}, nil
	}
	r := newTestRouter(t, h)

	resp := r.Submit(context.Background(), Intent{ToolName: "frobnicate"})

	assert.False(t, resp.OK)
	assert.Equal(t, tool.FailUnknownTool, resp.ErrKind)
	assert.False(t, executed)
}

func TestSubmit_SchemaViolationNeverReachesHandler(t *testing.T) {
	executed := false
	h := greetHandler()
	h.run = func(context.Context, map[string]any) (map[string]any, error) {
		executed = true
		return map[string]any{}, nil
	}
	r := newTestRouter(t, h)

	resp := r.Submit(context.Background(), Intent{
		ToolName:  "greet",
		Arguments: map[string]any{"nmae": "typo"},
	})

	assert.False(t, resp.OK)
	assert.Equal(t, tool.FailSchemaValidation, resp.ErrKind)
	assert.Contains(t, resp.Message, "name")
	assert.False(t, executed)
}

func TestSubmit_FailureKindsMapOneToOne(t *testing.T) {
	for _, kind := range []tool.FailureKind{
		tool.FailNotFound, tool.FailPermission, tool.FailTimeout,
		tool.FailUnavailable, tool.FailInternal,
	} {
		h := greetHandler()
		h.run = func(context.Context, map[string]any) (map[string]any, error) {
			return nil, tool.Kindf(kind, "synthetic %s", kind)
		}
		r := newTestRouter(t, h)

		resp := r.Submit(context.Background(), Intent{
			ToolName:  "greet",
			Arguments: map[string]any{"name": "x"},
		})

		assert.Equal(t, kind, resp.ErrKind)
	}
}

func TestSubmit_LongMessagesAreClipped(t *testing.T) {
	h := greetHandler()
	h.run = func(context.Context, map[string]any) (map[string]any, error) {
		return nil, tool.Kindf(tool.FailInternal, "%s", strings.Repeat("x", 5000))
	}
	r := newTestRouter(t, h)

	resp := r.Submit(context.Background(), Intent{
		ToolName:  "greet",
		Arguments: map[string]any{"name": "x"},
	})

	assert.LessOrEqual(t, len(resp.Message), maxMessageLen+3)
}

func TestSubmitAll_MixedValidityKeepsOrder(t *testing.T) {
	slow := greetHandler()
	slow.desc.Name = "slow"
	slow.run = func(_ context.Context, args map[string]any) (map[string]any, error) {
		time.Sleep(100 * time.Millisecond)
		return map[string]any{"greeting": "late " + args["name"].(string)}, nil
	}
	r := newTestRouter(t, greetHandler(), slow)

	responses := r.SubmitAll(context.Background(), []Intent{
		{ToolName: "slow", Arguments: map[string]any{"name": "a"}},
		{ToolName: "missing"},
		{ToolName: "greet", Arguments: map[string]any{"wrong": true}},
		{ToolName: "greet", Arguments: map[string]any{"name": "b"}},
	})

	require.Len(t, responses, 4)
	assert.True(t, responses[0].OK)
	assert.Equal(t, "late a", responses[0].Payload["greeting"])
	assert.Equal(t, tool.FailUnknownTool, responses[1].ErrKind)
	assert.Equal(t, tool.FailSchemaValidation, responses[2].ErrKind)
	assert.True(t, responses[3].OK)
	assert.Equal(t, "hello b", responses[3].Payload["greeting"])

	ids := map[string]bool{}
	for _, resp := range responses {
		assert.NotEmpty(t, resp.CallID)
		assert.False(t, ids[resp.CallID], "call ids must be unique")
		ids[resp.CallID] = true
	}
}

func TestListTools_ReflectsRegistry(t *testing.T) {
	r := newTestRouter(t, greetHandler())

	list := r.ListTools()

	require.Len(t, list, 1)
	assert.Equal(t, "greet", list[0].Name)
}
