package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/askerrors"
)

// ArtifactKind discriminates the three training artifact variants.
type ArtifactKind string

const (
	// ArtifactKindQA is a curated question/SQL exemplar pair.
	ArtifactKindQA ArtifactKind = "qa"
	// ArtifactKindDDL is a schema definition snippet.
	ArtifactKindDDL ArtifactKind = "ddl"
	// ArtifactKindDoc is free-text documentation about the database.
	ArtifactKindDoc ArtifactKind = "documentation"
)

// TrainingArtifact is one unit of retrieval context used to ground SQL
// generation. Exactly one variant is populated, tagged by Kind.
type TrainingArtifact struct {
	ID            uuid.UUID    `json:"id"`
	Kind          ArtifactKind `json:"kind"`
	Question      string       `json:"question,omitempty"`
	SQL           string       `json:"sql,omitempty"`
	DDL           string       `json:"ddl,omitempty"`
	Documentation string       `json:"documentation,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// EmbeddingText returns the canonical text projection that is embedded for
// this artifact. QA pairs embed the question, schema facts the DDL and
// documentation facts the documentation body.
func (a *TrainingArtifact) EmbeddingText() string {
	switch a.Kind {
	case ArtifactKindQA:
		return a.Question
	case ArtifactKindDDL:
		return a.DDL
	case ArtifactKindDoc:
		return a.Documentation
	}

	return ""
}

// AddTrainingRequest is the payload for adding a training artifact. All fields
// are optional at the transport level; Artifact validates the combination.
type AddTrainingRequest struct {
	Question      string `json:"question,omitempty"`
	SQL           string `json:"sql,omitempty"`
	DDL           string `json:"ddl,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// Artifact validates the request and returns the artifact it describes,
// without an assigned ID. Valid combinations are question+sql, ddl, or
// documentation; anything else is rejected as an invalid artifact.
func (r *AddTrainingRequest) Artifact() (*TrainingArtifact, error) {
	switch {
	case r.Question != "" && r.SQL != "":
		return &TrainingArtifact{Kind: ArtifactKindQA, Question: r.Question, SQL: r.SQL}, nil
	case r.Question != "" || r.SQL != "":
		return nil, askerrors.NewInvalidArtifactError("question", "question and sql must be provided together")
	case r.DDL != "":
		return &TrainingArtifact{Kind: ArtifactKindDDL, DDL: r.DDL}, nil
	case r.Documentation != "":
		return &TrainingArtifact{Kind: ArtifactKindDoc, Documentation: r.Documentation}, nil
	}

	return nil, askerrors.NewInvalidArtifactError("", "at least one of question+sql, ddl or documentation is required")
}

// ScoredArtifact pairs a retrieved artifact with its similarity score
// (cosine similarity against the question embedding, higher is more similar).
type ScoredArtifact struct {
	Artifact TrainingArtifact `json:"artifact"`
	Score    float64          `json:"score"`
}

// RetrievedContext is the per-kind retrieval result for a question.
type RetrievedContext struct {
	QASamples   []ScoredArtifact
	SchemaFacts []ScoredArtifact
	DocFacts    []ScoredArtifact
}

// GeneratedQuery is the result of the end-to-end text-to-SQL pipeline.
// It is produced per request and never persisted.
type GeneratedQuery struct {
	Question string           `json:"question"`
	SQL      string           `json:"sql"`
	Rows     []map[string]any `json:"rows"`
}

// ListTrainingResponse wraps the bounded training artifact listing.
type ListTrainingResponse struct {
	Data  []TrainingArtifact `json:"data"`
	Limit int                `json:"limit"`
}
