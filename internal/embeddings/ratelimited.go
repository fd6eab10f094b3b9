package embeddings

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps a Client with a token-bucket limiter so outbound
// embedding calls stay under the provider's request budget.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// Ensure RateLimitedClient implements Client interface
var _ Client = (*RateLimitedClient)(nil)

// NewRateLimitedClient wraps inner with a limiter of requestsPerSecond.
func NewRateLimitedClient(inner Client, requestsPerSecond float64) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// CreateEmbedding waits for limiter capacity, then delegates to the wrapped client.
func (c *RateLimitedClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	return c.inner.CreateEmbedding(ctx, text)
}
