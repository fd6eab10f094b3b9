package service

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/askdb/askdb/internal/models"
)

// RetrievalLimits bounds how many artifacts of each kind a retrieval returns.
type RetrievalLimits struct {
	QASamples   int
	SchemaFacts int
	DocFacts    int
}

// Retriever gathers the context for a question: it embeds the question once
// and collects the nearest artifacts of every kind from the store.
type Retriever struct {
	embeddingClient EmbeddingClient
	store           ArtifactStore
	limits          RetrievalLimits
	queryCache      *lru.Cache[string, []float32]
	queryLoadGroup  singleflight.Group
	logger          *slog.Logger
}

// RetrieverParams configures Retriever. QueryCache may be nil (no caching).
type RetrieverParams struct {
	EmbeddingClient EmbeddingClient
	Store           ArtifactStore
	Limits          RetrievalLimits
	QueryCache      *lru.Cache[string, []float32]
	Logger          *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(p RetrieverParams) *Retriever {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Retriever{
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		limits:          p.Limits,
		queryCache:      p.QueryCache,
		logger:          logger,
	}
}

// Retrieve embeds the question and returns the nearest artifacts of each kind,
// every slice sorted descending by similarity. A store failure for any kind
// fails the whole retrieval.
func (r *Retriever) Retrieve(ctx context.Context, question string) (models.RetrievedContext, error) {
	out := models.RetrievedContext{}

	var (
		embedding []float32
		err       error
	)

	if r.queryCache != nil {
		embedding, err = r.getQuestionEmbeddingCached(ctx, question)
	} else {
		embedding, err = r.embeddingClient.CreateEmbedding(ctx, question)
	}

	if err != nil {
		r.logger.Error("retrieval: embed question failed", "error", err)

		return out, fmt.Errorf("embed question: %w", err)
	}

	kinds := []struct {
		kind  models.ArtifactKind
		limit int
		dst   *[]models.ScoredArtifact
	}{
		{models.ArtifactKindQA, r.limits.QASamples, &out.QASamples},
		{models.ArtifactKindDDL, r.limits.SchemaFacts, &out.SchemaFacts},
		{models.ArtifactKindDoc, r.limits.DocFacts, &out.DocFacts},
	}

	for _, k := range kinds {
		scored, err := r.store.NearestByKind(ctx, k.kind, embedding, k.limit)
		if err != nil {
			r.logger.Error("retrieval: nearest lookup failed", "error", err, "kind", string(k.kind))

			return models.RetrievedContext{}, fmt.Errorf("nearest %s artifacts: %w", k.kind, err)
		}

		*k.dst = scored
	}

	return out, nil
}

func (r *Retriever) getQuestionEmbeddingCached(ctx context.Context, question string) ([]float32, error) {
	if vec, ok := r.queryCache.Get(question); ok {
		return vec, nil
	}

	val, err, _ := r.queryLoadGroup.Do(question, func() (any, error) {
		vec, loadErr := r.embeddingClient.CreateEmbedding(ctx, question)
		if loadErr != nil {
			return nil, fmt.Errorf("create embedding: %w", loadErr)
		}

		r.queryCache.Add(question, vec)

		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("question embedding: %w", err)
	}

	return val.([]float32), nil
}
