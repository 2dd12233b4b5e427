package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hualet/deepin-term-agent/internal/provider"
)

// maxToolRounds caps how many consecutive tool-call rounds one user turn may
// trigger before the loop is cut short.
const maxToolRounds = 10

const systemPrompt = `You are a helpful terminal assistant. You can run shell
commands, read and write files, list directories, and read logs through the
tools provided. Prefer tools over guessing. Keep answers short and concrete;
use markdown for code and command output.`

// Agent drives one conversation: user input goes to the provider, tool calls
// requested by the model are routed and their results fed back until the
// model answers in text.
type Agent struct {
	provider provider.Provider
	router   *Router
	logger   *slog.Logger
	history  []provider.Message
}

func New(p provider.Provider, router *Router, logger *slog.Logger) *Agent {
	return &Agent{
		provider: p,
		router:   router,
		logger:   logger.With("component", "agent"),
		history: []provider.Message{
			{Role: provider.RoleSystem, Content: systemPrompt},
		},
	}
}

// Router exposes the dispatch router, for surfaces that list tools.
func (a *Agent) Router() *Router { return a.router }

// Reset drops the conversation history, keeping the system prompt.
func (a *Agent) Reset() {
	a.history = a.history[:1]
}

// RunTurn processes one user input to a final text answer, executing any tool
// calls the model requests along the way.
func (a *Agent) RunTurn(ctx context.Context, input string) (string, error) {
	a.history = append(a.history, provider.Message{Role: provider.RoleUser, Content: input})
	tools := a.router.ListTools()

	for round := 0; round < maxToolRounds; round++ {
		reply, err := a.provider.Chat(ctx, a.history, tools)
		if err != nil {
			return "", fmt.Errorf("provider: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			a.history = append(a.history, provider.Message{
				Role:    provider.RoleAssistant,
				Content: reply.Content,
			})
			return reply.Content, nil
		}

		a.history = append(a.history, provider.Message{
			Role:      provider.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		intents := make([]Intent, len(reply.ToolCalls))
		for i, tc := range reply.ToolCalls {
			a.logger.Info("tool call", "tool", tc.Name)
			intents[i] = Intent{ToolName: tc.Name, Arguments: tc.Arguments}
		}
		responses := a.router.SubmitAll(ctx, intents)

		for i, resp := range responses {
			tc := reply.ToolCalls[i]
			a.history = append(a.history, provider.Message{
				Role:       provider.RoleTool,
				Content:    renderResponse(resp),
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
	}

	return "", fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
}

// renderResponse serializes a routed response for the model: the payload on
// success, the kind and message on failure.
func renderResponse(resp Response) string {
	if resp.OK {
		raw, err := json.Marshal(resp.Payload)
		if err != nil {
			return `{"error":"INTERNAL","message":"unencodable payload"}`
		}
		return string(raw)
	}
	raw, _ := json.Marshal(map[string]string{
		"error":   string(resp.ErrKind),
		"message": resp.Message,
	})
	return string(raw)
}
