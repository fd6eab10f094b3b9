// Package repository provides the artifact store backends: a Postgres/pgvector
// repository for durable deployments and a local snapshot-file repository for
// embedded ones. Both keep each artifact and its embedding vector as one
// atomic unit.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/models"
)

// PostgresArtifacts stores training artifacts and their embeddings in a single
// Postgres table with a pgvector column. One row carries both halves of the
// artifact/vector pairing, so inserts and deletes are atomic by construction.
type PostgresArtifacts struct {
	db *pgxpool.Pool
}

// NewPostgresArtifacts creates a Postgres-backed artifact repository.
func NewPostgresArtifacts(db *pgxpool.Pool) *PostgresArtifacts {
	return &PostgresArtifacts{db: db}
}

// EnsureSchema creates the pgvector extension and the artifacts table if they
// do not exist. dimensions must match the embedding provider's output.
func (r *PostgresArtifacts) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	if _, err := r.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS training_artifacts (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			sql_text TEXT NOT NULL DEFAULT '',
			ddl TEXT NOT NULL DEFAULT '',
			documentation TEXT NOT NULL DEFAULT '',
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions)

	if _, err := r.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create training_artifacts table: %w", err)
	}

	return nil
}

// Create inserts the artifact together with its embedding and returns the
// stored artifact with its assigned id.
func (r *PostgresArtifacts) Create(
	ctx context.Context, artifact *models.TrainingArtifact, embedding []float32,
) (*models.TrainingArtifact, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("artifact embedding must not be empty")
	}

	stored := *artifact
	stored.ID = uuid.New()

	err := r.db.QueryRow(ctx, `
		INSERT INTO training_artifacts (id, kind, question, sql_text, ddl, documentation, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		stored.ID, stored.Kind, stored.Question, stored.SQL, stored.DDL, stored.Documentation,
		pgvector.NewVector(embedding),
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create training artifact: %w", err)
	}

	return &stored, nil
}

// List returns stored artifacts, most recent first, bounded to limit.
// Ties on created_at order by id so pagination stays deterministic.
func (r *PostgresArtifacts) List(ctx context.Context, limit int) ([]models.TrainingArtifact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, question, sql_text, ddl, documentation, created_at
		FROM training_artifacts
		ORDER BY created_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list training artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []models.TrainingArtifact{}
	for rows.Next() {
		var a models.TrainingArtifact
		if err := rows.Scan(&a.ID, &a.Kind, &a.Question, &a.SQL, &a.DDL, &a.Documentation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training artifacts: %w", err)
	}

	return artifacts, nil
}

// Delete removes the artifact and its embedding. The single-row layout removes
// both atomically.
func (r *PostgresArtifacts) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM training_artifacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete training artifact: %w", err)
	}

	if result.RowsAffected() == 0 {
		return askerrors.NewNotFoundError("training artifact", "training artifact not found")
	}

	return nil
}

// NearestByKind returns up to limit artifacts of the given kind ordered by
// descending cosine similarity to the query embedding. Distance ties order by
// id so repeated calls return the same ranking.
func (r *PostgresArtifacts) NearestByKind(
	ctx context.Context, kind models.ArtifactKind, queryEmbedding []float32, limit int,
) ([]models.ScoredArtifact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, question, sql_text, ddl, documentation, created_at,
		       1 - (embedding <=> $1) AS score
		FROM training_artifacts
		WHERE kind = $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`,
		pgvector.NewVector(queryEmbedding), kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest artifacts: %w", err)
	}
	defer rows.Close()

	results := []models.ScoredArtifact{}
	for rows.Next() {
		var sa models.ScoredArtifact
		a := &sa.Artifact
		if err := rows.Scan(&a.ID, &a.Kind, &a.Question, &a.SQL, &a.DDL, &a.Documentation, &a.CreatedAt, &sa.Score); err != nil {
			return nil, fmt.Errorf("failed to scan nearest artifact: %w", err)
		}
		results = append(results, sa)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearest artifacts: %w", err)
	}

	return results, nil
}

// GetEmbedding returns the stored embedding for one artifact. Used to verify
// the pairing invariant; not part of the hot path.
func (r *PostgresArtifacts) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	var vec pgvector.Vector

	err := r.db.QueryRow(ctx, `SELECT embedding FROM training_artifacts WHERE id = $1`, id).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, askerrors.NewNotFoundError("training artifact", "training artifact not found")
		}

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	return vec.Slice(), nil
}
