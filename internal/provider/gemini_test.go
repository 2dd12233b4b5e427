package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

type fakeGeminiClient struct {
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	resp         *genai.GenerateContentResponse
	err          error
}

func (f *fakeGeminiClient) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	f.lastContents = contents
	f.lastConfig = cfg
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{genai.NewPartFromText(text)},
			},
		}},
	}
}

func TestGeminiChat_TextReply(t *testing.T) {
	client := &fakeGeminiClient{resp: textResponse("hello")}
	g := NewGeminiWithClient(client, config.ProviderConfig{Model: "gemini-2.0-flash"}, discardLogger())

	reply, err := g.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "you are a terminal agent"},
		{Role: RoleUser, Content: "hi"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)
	assert.Equal(t, "gemini-2.0-flash", client.lastModel)
	// The system message travels as the system instruction, not as content.
	require.Len(t, client.lastContents, 1)
	assert.Equal(t, "user", client.lastContents[0].Role)
	require.NotNil(t, client.lastConfig.SystemInstruction)
}

func TestGeminiChat_FunctionCallReply(t *testing.T) {
	client := &fakeGeminiClient{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{
						Name: "read_file",
						Args: map[string]any{"path": "/tmp/x"},
					},
				}},
			},
		}},
	}}
	g := NewGeminiWithClient(client, config.ProviderConfig{Model: "gemini-2.0-flash"}, discardLogger())

	reply, err := g.Chat(context.Background(), []Message{{Role: RoleUser, Content: "read it"}}, nil)

	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "read_file", reply.ToolCalls[0].Name)
	assert.Equal(t, "/tmp/x", reply.ToolCalls[0].Arguments["path"])
}

func TestGeminiChat_ToolResultBecomesFunctionResponse(t *testing.T) {
	client := &fakeGeminiClient{resp: textResponse("ok")}
	g := NewGeminiWithClient(client, config.ProviderConfig{Model: "gemini-2.0-flash"}, discardLogger())

	_, err := g.Chat(context.Background(), []Message{
		{Role: RoleUser, Content: "read it"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{Name: "read_file", Arguments: map[string]any{"path": "/tmp/x"}}}},
		{Role: RoleTool, ToolName: "read_file", Content: "file contents"},
	}, nil)

	require.NoError(t, err)
	require.Len(t, client.lastContents, 3)
	parts := client.lastContents[2].Parts
	require.Len(t, parts, 1)
	require.NotNil(t, parts[0].FunctionResponse)
	assert.Equal(t, "read_file", parts[0].FunctionResponse.Name)
}

func TestToGeminiSchema_KindMapping(t *testing.T) {
	schema := toGeminiSchema(tool.Schema{Params: map[string]tool.Param{
		"path":  {Kind: tool.KindString, Required: true},
		"lines": {Kind: tool.KindInteger},
		"deep":  {Kind: tool.KindBoolean},
		"mode":  {Kind: tool.KindEnum, Enum: []string{"a", "b"}},
		"tags":  {Kind: tool.KindStringList},
	}})

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, genai.TypeString, schema.Properties["path"].Type)
	assert.Equal(t, genai.TypeInteger, schema.Properties["lines"].Type)
	assert.Equal(t, genai.TypeBoolean, schema.Properties["deep"].Type)
	assert.Equal(t, genai.TypeString, schema.Properties["mode"].Type)
	assert.Equal(t, []string{"a", "b"}, schema.Properties["mode"].Enum)
	assert.Equal(t, genai.TypeArray, schema.Properties["tags"].Type)
	assert.Equal(t, []string{"path"}, schema.Required)
}
