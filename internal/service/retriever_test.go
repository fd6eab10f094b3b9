package service

import (
	"context"
	"errors"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/models"
)

func TestRetriever_Retrieve(t *testing.T) {
	qa := models.ScoredArtifact{
		Artifact: models.TrainingArtifact{Kind: models.ArtifactKindQA, Question: "q", SQL: "SELECT 1;"},
		Score:    0.9,
	}
	ddl := models.ScoredArtifact{
		Artifact: models.TrainingArtifact{Kind: models.ArtifactKindDDL, DDL: "CREATE TABLE t(id INT);"},
		Score:    0.8,
	}
	doc := models.ScoredArtifact{
		Artifact: models.TrainingArtifact{Kind: models.ArtifactKindDoc, Documentation: "t holds things"},
		Score:    0.7,
	}

	t.Run("embeds once and gathers every kind", func(t *testing.T) {
		embedder := &mockEmbeddingClient{
			createEmbeddingFn: func(_ context.Context, text string) ([]float32, error) {
				assert.Equal(t, "how many things?", text)
				return []float32{0.1, 0.2}, nil
			},
		}

		limitsSeen := map[models.ArtifactKind]int{}
		store := &mockArtifactStore{
			nearestByKindFn: func(_ context.Context, kind models.ArtifactKind, emb []float32, limit int) ([]models.ScoredArtifact, error) {
				assert.Equal(t, []float32{0.1, 0.2}, emb)
				limitsSeen[kind] = limit

				switch kind {
				case models.ArtifactKindQA:
					return []models.ScoredArtifact{qa}, nil
				case models.ArtifactKindDDL:
					return []models.ScoredArtifact{ddl}, nil
				default:
					return []models.ScoredArtifact{doc}, nil
				}
			},
		}

		r := NewRetriever(RetrieverParams{
			EmbeddingClient: embedder,
			Store:           store,
			Limits:          RetrievalLimits{QASamples: 3, SchemaFacts: 5, DocFacts: 7},
		})

		out, err := r.Retrieve(context.Background(), "how many things?")
		require.NoError(t, err)

		assert.Equal(t, []models.ScoredArtifact{qa}, out.QASamples)
		assert.Equal(t, []models.ScoredArtifact{ddl}, out.SchemaFacts)
		assert.Equal(t, []models.ScoredArtifact{doc}, out.DocFacts)

		assert.Equal(t, 1, embedder.calls)
		assert.Equal(t, map[models.ArtifactKind]int{
			models.ArtifactKindQA:  3,
			models.ArtifactKindDDL: 5,
			models.ArtifactKindDoc: 7,
		}, limitsSeen)
	})

	t.Run("embedding failure aborts retrieval", func(t *testing.T) {
		embedder := &mockEmbeddingClient{
			createEmbeddingFn: func(context.Context, string) ([]float32, error) {
				return nil, errors.New("provider down")
			},
		}
		store := &mockArtifactStore{
			nearestByKindFn: func(context.Context, models.ArtifactKind, []float32, int) ([]models.ScoredArtifact, error) {
				t.Fatal("store must not be queried when embedding fails")
				return nil, nil
			},
		}

		r := NewRetriever(RetrieverParams{EmbeddingClient: embedder, Store: store})

		_, err := r.Retrieve(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider down")
	})

	t.Run("store failure for any kind fails the whole retrieval", func(t *testing.T) {
		embedder := &mockEmbeddingClient{
			createEmbeddingFn: func(context.Context, string) ([]float32, error) {
				return []float32{1}, nil
			},
		}
		store := &mockArtifactStore{
			nearestByKindFn: func(_ context.Context, kind models.ArtifactKind, _ []float32, _ int) ([]models.ScoredArtifact, error) {
				if kind == models.ArtifactKindDDL {
					return nil, errors.New("index corrupt")
				}
				return []models.ScoredArtifact{qa}, nil
			},
		}

		r := NewRetriever(RetrieverParams{
			EmbeddingClient: embedder,
			Store:           store,
			Limits:          RetrievalLimits{QASamples: 1, SchemaFacts: 1, DocFacts: 1},
		})

		out, err := r.Retrieve(context.Background(), "q")
		require.Error(t, err)
		assert.Empty(t, out.QASamples)
	})

	t.Run("caches question embeddings", func(t *testing.T) {
		embedder := &mockEmbeddingClient{
			createEmbeddingFn: func(context.Context, string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		store := &mockArtifactStore{
			nearestByKindFn: func(context.Context, models.ArtifactKind, []float32, int) ([]models.ScoredArtifact, error) {
				return nil, nil
			},
		}

		cache, err := lru.New[string, []float32](8)
		require.NoError(t, err)

		r := NewRetriever(RetrieverParams{
			EmbeddingClient: embedder,
			Store:           store,
			Limits:          RetrievalLimits{QASamples: 1, SchemaFacts: 1, DocFacts: 1},
			QueryCache:      cache,
		})

		for i := 0; i < 3; i++ {
			_, err := r.Retrieve(context.Background(), "same question")
			require.NoError(t, err)
		}

		assert.Equal(t, 1, embedder.calls)
	})
}
