package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/models"
)

// ArtifactStore persists training artifacts together with their embeddings and
// serves nearest-neighbour lookups over them. Implementations keep the
// artifact/embedding pairing atomic: an artifact is never visible without its
// vector.
type ArtifactStore interface {
	Create(ctx context.Context, artifact *models.TrainingArtifact, embedding []float32) (*models.TrainingArtifact, error)
	List(ctx context.Context, limit int) ([]models.TrainingArtifact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NearestByKind(ctx context.Context, kind models.ArtifactKind, queryEmbedding []float32, limit int) ([]models.ScoredArtifact, error)
}
