package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/prompt"
)

// ChatClient calls a chat-style (OpenAI-compatible) endpoint: the prompt
// travels as role-tagged messages and the generation comes back in
// choices[0].message.content.
type ChatClient struct {
	sdk         openaisdk.Client
	model       string
	temperature float64
	topP        float64
}

// Ensure ChatClient implements Generator
var _ Generator = (*ChatClient)(nil)

// ChatParams configures the ChatClient. BaseURL may be empty for the default
// OpenAI endpoint.
type ChatParams struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	TopP        float64
}

// NewChatClient creates a chat completion client via the official SDK.
func NewChatClient(p ChatParams) *ChatClient {
	opts := []option.RequestOption{option.WithAPIKey(p.APIKey)}
	if p.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.BaseURL))
	}

	return &ChatClient{
		sdk:         openaisdk.NewClient(opts...),
		model:       p.Model,
		temperature: p.Temperature,
		topP:        p.TopP,
	}
}

// Generate projects the prompt into chat messages, submits them and returns
// the first choice's message content.
func (c *ChatClient) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(p.Messages()))

	for _, m := range p.Messages() {
		switch m.Role {
		case prompt.RoleSystem:
			messages = append(messages, openaisdk.SystemMessage(m.Content))
		case prompt.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    messages,
		Temperature: param.NewOpt(c.temperature),
		TopP:        param.NewOpt(c.topP),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", askerrors.ErrInferenceUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in chat response", askerrors.ErrInferenceProtocol)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message content in chat response", askerrors.ErrInferenceProtocol)
	}

	return content, nil
}
