package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/askdb/askdb/internal/askerrors"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("embeddings: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("embeddings: embedding dimensions must be positive")
	// ErrDimensionMismatch is returned when the response embedding length does not
	// match the configured dimensions.
	ErrDimensionMismatch = errors.New("embeddings: embedding dimension mismatch")
)

const defaultDimensions = 1536

// OpenAIClient calls an OpenAI-compatible embeddings API via the official SDK.
type OpenAIClient struct {
	sdk        openaisdk.Client
	model      string
	dimensions int
}

// Ensure OpenAIClient implements Client interface
var _ Client = (*OpenAIClient)(nil)

// OpenAIOption configures the OpenAIClient.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL    string
	dimensions int
}

// WithBaseURL points the client at a non-default (OpenAI-compatible) endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = baseURL
	}
}

// WithDimensions sets the expected embedding dimension (must match the index).
func WithDimensions(dim int) OpenAIOption {
	return func(c *openAIConfig) {
		c.dimensions = dim
	}
}

// NewOpenAIClient creates an embeddings client for the given model.
func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openAIConfig{dimensions: defaultDimensions}
	for _, opt := range opts {
		opt(&cfg)
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIClient{
		sdk:        openaisdk.NewClient(sdkOpts...),
		model:      model,
		dimensions: cfg.dimensions,
	}
}

// CreateEmbedding returns the embedding vector for the given text.
// The returned slice length equals the configured dimensions.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 {
		return nil, ErrInvalidDims
	}

	resp, err := c.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
		Model: openaisdk.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", askerrors.ErrEmbeddingUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding in response", askerrors.ErrEmbeddingUnavailable)
	}

	emb := resp.Data[0].Embedding
	if len(emb) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions)
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}
