package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/models"
	"github.com/askdb/askdb/internal/prompt"
)

type mockEmbeddingClient struct {
	createEmbeddingFn func(ctx context.Context, text string) ([]float32, error)
	calls             int
}

func (m *mockEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	return m.createEmbeddingFn(ctx, text)
}

type mockArtifactStore struct {
	createFn        func(ctx context.Context, artifact *models.TrainingArtifact, embedding []float32) (*models.TrainingArtifact, error)
	listFn          func(ctx context.Context, limit int) ([]models.TrainingArtifact, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
	nearestByKindFn func(ctx context.Context, kind models.ArtifactKind, queryEmbedding []float32, limit int) ([]models.ScoredArtifact, error)
}

func (m *mockArtifactStore) Create(
	ctx context.Context, artifact *models.TrainingArtifact, embedding []float32,
) (*models.TrainingArtifact, error) {
	return m.createFn(ctx, artifact, embedding)
}

func (m *mockArtifactStore) List(ctx context.Context, limit int) ([]models.TrainingArtifact, error) {
	return m.listFn(ctx, limit)
}

func (m *mockArtifactStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockArtifactStore) NearestByKind(
	ctx context.Context, kind models.ArtifactKind, queryEmbedding []float32, limit int,
) ([]models.ScoredArtifact, error) {
	return m.nearestByKindFn(ctx, kind, queryEmbedding, limit)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, p prompt.Prompt) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	return m.generateFn(ctx, p)
}

type mockExecutor struct {
	executeFn func(ctx context.Context, query string) ([]map[string]any, error)
}

func (m *mockExecutor) Execute(ctx context.Context, query string) ([]map[string]any, error) {
	return m.executeFn(ctx, query)
}
