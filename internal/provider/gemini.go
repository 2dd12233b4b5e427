package provider

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

// GeminiClient is the slice of the SDK the provider needs, kept narrow so
// tests can substitute a fake.
type GeminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	client *genai.Client
}

func (c *sdkClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// Gemini implements Provider on the official Gemini SDK.
type Gemini struct {
	client      GeminiClient
	model       string
	temperature float64
	logger      *slog.Logger
}

func NewGemini(cfg config.ProviderConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api_key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return NewGeminiWithClient(&sdkClient{client: client}, cfg, logger), nil
}

// NewGeminiWithClient wires an explicit client (for testing).
func NewGeminiWithClient(client GeminiClient, cfg config.ProviderConfig, logger *slog.Logger) *Gemini {
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (g *Gemini) Chat(ctx context.Context, messages []Message, tools []tool.Descriptor) (*Reply, error) {
	contents, system := toGeminiContents(messages)

	temp := float32(g.temperature)
	genCfg := &genai.GenerateContentConfig{Temperature: &temp}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}
	if len(tools) > 0 {
		genCfg.Tools = toGeminiTools(tools)
	}

	resp, err := g.client.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return &Reply{}, nil
	}

	reply := &Reply{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.Content += part.Text
		}
		if part.FunctionCall != nil {
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}
	return reply, nil
}

// toGeminiContents converts the conversation; system messages are folded into
// the system instruction, tool results become function responses.
func toGeminiContents(messages []Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(messages))
	var system string
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}

		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		if msg.Role == RoleTool {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     msg.ToolName,
					Response: map[string]any{"content": msg.Content},
				},
			})
		} else if msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Arguments},
			})
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, system
}

func toGeminiTools(tools []tool.Descriptor) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, desc := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        desc.Name,
			Description: desc.Description,
			Parameters:  toGeminiSchema(desc.Schema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toGeminiSchema(s tool.Schema) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	for _, name := range s.ParamNames() {
		param := s.Params[name]
		prop := &genai.Schema{Description: param.Description}
		switch param.Kind {
		case tool.KindInteger:
			prop.Type = genai.TypeInteger
		case tool.KindBoolean:
			prop.Type = genai.TypeBoolean
		case tool.KindEnum:
			prop.Type = genai.TypeString
			prop.Enum = param.Enum
		case tool.KindStringList:
			prop.Type = genai.TypeArray
			prop.Items = &genai.Schema{Type: genai.TypeString}
		default:
			prop.Type = genai.TypeString
		}
		schema.Properties[name] = prop
		if param.Required {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}
