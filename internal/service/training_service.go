package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/models"
)

// TrainingService manages the training corpus: the QA exemplars, schema facts
// and documentation facts that ground SQL generation.
type TrainingService struct {
	store           ArtifactStore
	embeddingClient EmbeddingClient
	listLimit       int
	timeout         time.Duration
	logger          *slog.Logger
}

// TrainingServiceParams configures TrainingService. Timeout bounds a single
// add operation (embed plus store); zero disables the bound.
type TrainingServiceParams struct {
	Store           ArtifactStore
	EmbeddingClient EmbeddingClient
	ListLimit       int
	Timeout         time.Duration
	Logger          *slog.Logger
}

// NewTrainingService creates a TrainingService.
func NewTrainingService(p TrainingServiceParams) *TrainingService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TrainingService{
		store:           p.Store,
		embeddingClient: p.EmbeddingClient,
		listLimit:       p.ListLimit,
		timeout:         p.Timeout,
		logger:          logger,
	}
}

// AddArtifact validates the request, embeds the artifact's canonical text and
// persists artifact and vector together. When embedding fails nothing is
// stored.
func (s *TrainingService) AddArtifact(
	ctx context.Context, req models.AddTrainingRequest,
) (*models.TrainingArtifact, error) {
	artifact, err := req.Artifact()
	if err != nil {
		//nolint:wrapcheck // returned as-is so the handler can map it to 400
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	embedding, err := s.embeddingClient.CreateEmbedding(ctx, artifact.EmbeddingText())
	if err != nil {
		s.logger.Error("training: embed artifact failed", "error", err, "kind", string(artifact.Kind))

		return nil, fmt.Errorf("embed artifact: %w", err)
	}

	stored, err := s.store.Create(ctx, artifact, embedding)
	if err != nil {
		s.logger.Error("training: store artifact failed", "error", err, "kind", string(artifact.Kind))

		return nil, fmt.Errorf("store artifact: %w", err)
	}

	s.logger.Info("training artifact added", "id", stored.ID.String(), "kind", string(stored.Kind))

	return stored, nil
}

// ListArtifacts returns the most recent training artifacts, bounded by the
// configured list limit.
func (s *TrainingService) ListArtifacts(ctx context.Context) ([]models.TrainingArtifact, error) {
	artifacts, err := s.store.List(ctx, s.listLimit)
	if err != nil {
		s.logger.Error("training: list artifacts failed", "error", err)

		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	return artifacts, nil
}

// RemoveArtifact deletes an artifact and its embedding.
func (s *TrainingService) RemoveArtifact(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		//nolint:wrapcheck // NotFoundError passes through for 404 mapping
		return err
	}

	s.logger.Info("training artifact removed", "id", id.String())

	return nil
}
