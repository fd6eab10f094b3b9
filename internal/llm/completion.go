package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/prompt"
)

// CompletionClient calls a completion-style endpoint: the prompt travels as a
// single role-prefixed text string and the generation comes back in
// choices[0].text. Some self-hosted servers answer with a bare text or
// response field instead; both are accepted.
type CompletionClient struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	httpClient  *http.Client
}

// Ensure CompletionClient implements Generator
var _ Generator = (*CompletionClient)(nil)

// CompletionParams configures the CompletionClient.
type CompletionParams struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// NewCompletionClient creates a client for the given completion endpoint.
func NewCompletionClient(p CompletionParams) *CompletionClient {
	return &CompletionClient{
		url:         p.URL,
		apiKey:      p.APIKey,
		model:       p.Model,
		temperature: p.Temperature,
		topP:        p.TopP,
		maxTokens:   p.MaxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

type completionChoice struct {
	Text string `json:"text"`
}

type completionResponse struct {
	Choices  []completionChoice `json:"choices"`
	Text     string             `json:"text"`
	Response string             `json:"response"`
}

// Generate projects the prompt into completion text, posts it and returns the
// generated text from the response.
func (c *CompletionClient) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      p.Text(),
		Model:       c.model,
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
		Stop:        nil,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", askerrors.ErrInferenceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return "", fmt.Errorf("%w: completion endpoint returned %d: %s",
			askerrors.ErrInferenceUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode completion response: %w", askerrors.ErrInferenceProtocol, err)
	}

	switch {
	case len(result.Choices) > 0 && strings.TrimSpace(result.Choices[0].Text) != "":
		return strings.TrimSpace(result.Choices[0].Text), nil
	case result.Text != "":
		return result.Text, nil
	case result.Response != "":
		return result.Response, nil
	}

	return "", fmt.Errorf("%w: no text in completion response", askerrors.ErrInferenceProtocol)
}
