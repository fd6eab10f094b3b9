package service

import "context"

// EmbeddingClient produces a vector embedding for a piece of text.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}
