package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/models"
	"github.com/askdb/askdb/pkg/vecmath"
)

// localEntry couples one artifact with its embedding. Entries are only ever
// created and removed whole, which is what keeps the pairing invariant.
type localEntry struct {
	Artifact  models.TrainingArtifact `json:"artifact"`
	Embedding []float32               `json:"embedding"`
}

// LocalArtifacts is an embedded artifact store: a mutex-guarded in-memory
// index persisted as a JSON snapshot file. It serves deployments without a
// vector database.
type LocalArtifacts struct {
	mu      sync.RWMutex
	path    string
	entries map[uuid.UUID]localEntry
}

// OpenLocalArtifacts loads (or initializes) the snapshot at path. An empty
// path keeps the store purely in memory.
func OpenLocalArtifacts(path string) (*LocalArtifacts, error) {
	s := &LocalArtifacts{
		path:    path,
		entries: make(map[uuid.UUID]localEntry),
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("read artifact snapshot: %w", err)
	}

	var entries []localEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode artifact snapshot: %w", err)
	}

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("artifact %s has no embedding in snapshot", e.Artifact.ID)
		}
		s.entries[e.Artifact.ID] = e
	}

	return s, nil
}

// persistLocked writes the snapshot via a temp file and rename, so a crash
// mid-write never leaves a torn snapshot behind. Callers must hold mu.
func (s *LocalArtifacts) persistLocked() error {
	if s.path == "" {
		return nil
	}

	entries := make([]localEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Artifact.ID.String() < entries[j].Artifact.ID.String()
	})

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode artifact snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".artifacts-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Create stores the artifact with its embedding and returns the stored copy
// with its assigned id. Nothing is kept if persisting the snapshot fails.
func (s *LocalArtifacts) Create(
	ctx context.Context, artifact *models.TrainingArtifact, embedding []float32,
) (*models.TrainingArtifact, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("artifact embedding must not be empty")
	}

	stored := *artifact
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now().UTC()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[stored.ID] = localEntry{Artifact: stored, Embedding: vec}

	if err := s.persistLocked(); err != nil {
		delete(s.entries, stored.ID)
		return nil, err
	}

	return &stored, nil
}

// List returns stored artifacts, most recent first, bounded to limit.
// Ties on created_at order by id so the ordering is stable.
func (s *LocalArtifacts) List(ctx context.Context, limit int) ([]models.TrainingArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifacts := make([]models.TrainingArtifact, 0, len(s.entries))
	for _, e := range s.entries {
		artifacts = append(artifacts, e.Artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
		}
		return artifacts[i].ID.String() < artifacts[j].ID.String()
	})

	if limit > 0 && len(artifacts) > limit {
		artifacts = artifacts[:limit]
	}

	return artifacts, nil
}

// Delete removes the artifact and its embedding as one unit.
func (s *LocalArtifacts) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return askerrors.NewNotFoundError("training artifact", "training artifact not found")
	}

	delete(s.entries, id)

	if err := s.persistLocked(); err != nil {
		s.entries[id] = entry
		return err
	}

	return nil
}

// NearestByKind scores every stored artifact of the given kind against the
// query embedding with cosine similarity and returns the top limit matches,
// descending by score with ties broken by id.
func (s *LocalArtifacts) NearestByKind(
	ctx context.Context, kind models.ArtifactKind, queryEmbedding []float32, limit int,
) ([]models.ScoredArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []models.ScoredArtifact{}

	for _, e := range s.entries {
		if e.Artifact.Kind != kind {
			continue
		}

		score, err := vecmath.CosineSimilarity(queryEmbedding, e.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score artifact %s: %w", e.Artifact.ID, err)
		}

		results = append(results, models.ScoredArtifact{Artifact: e.Artifact, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Artifact.ID.String() < results[j].Artifact.ID.String()
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// GetEmbedding returns the stored embedding for one artifact.
func (s *LocalArtifacts) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, askerrors.NewNotFoundError("training artifact", "training artifact not found")
	}

	vec := make([]float32, len(entry.Embedding))
	copy(vec, entry.Embedding)

	return vec, nil
}
