package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/models"
	"github.com/askdb/askdb/internal/prompt"
	"github.com/askdb/askdb/internal/sqlextract"
)

// TextGenerator produces a model completion for an assembled prompt.
type TextGenerator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

// SQLExecutor runs a SQL statement and returns the (capped) result rows.
type SQLExecutor interface {
	Execute(ctx context.Context, query string) ([]map[string]any, error)
}

// Sentinel errors for query answering (used by handlers for status mapping).
var (
	ErrEmptyQuestion = fmt.Errorf("question is required and must be non-empty")
)

// QueryService answers natural-language questions: it retrieves grounding
// context, assembles a bounded prompt, generates a completion, extracts the
// SQL statement and executes it. The first failing stage aborts the chain.
type QueryService struct {
	retriever       *Retriever
	assembler       *prompt.Assembler
	generator       TextGenerator
	executor        SQLExecutor
	generateTimeout time.Duration
	executeTimeout  time.Duration
	logger          *slog.Logger
}

// QueryServiceParams configures QueryService.
type QueryServiceParams struct {
	Retriever       *Retriever
	Assembler       *prompt.Assembler
	Generator       TextGenerator
	Executor        SQLExecutor
	GenerateTimeout time.Duration
	ExecuteTimeout  time.Duration
	Logger          *slog.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(p QueryServiceParams) *QueryService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryService{
		retriever:       p.Retriever,
		assembler:       p.Assembler,
		generator:       p.Generator,
		executor:        p.Executor,
		generateTimeout: p.GenerateTimeout,
		executeTimeout:  p.ExecuteTimeout,
		logger:          logger,
	}
}

// Answer runs the full question-to-rows pipeline. The generation and
// execution stages each run under their own deadline so a stalled model or a
// runaway query cannot hold the request open indefinitely.
func (s *QueryService) Answer(ctx context.Context, question string) (models.GeneratedQuery, error) {
	out := models.GeneratedQuery{Question: question}

	question = strings.TrimSpace(question)
	if question == "" {
		return out, ErrEmptyQuestion
	}

	started := time.Now()

	retrieved, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return out, fmt.Errorf("retrieve context: %w", err)
	}

	p := s.assembler.Assemble(question, retrieved.QASamples, retrieved.SchemaFacts, retrieved.DocFacts)

	s.logger.Debug("prompt assembled",
		"qaSamples", len(retrieved.QASamples),
		"schemaFacts", len(retrieved.SchemaFacts),
		"docFacts", len(retrieved.DocFacts),
		"promptChars", p.Size())

	completion, err := s.generate(ctx, p)
	if err != nil {
		s.logger.Error("query: generation failed", "error", err)

		return out, err
	}

	statement, err := sqlextract.Extract(completion)
	if err != nil {
		s.logger.Warn("query: no SQL in completion", "error", err)
		//nolint:wrapcheck // extraction sentinel passes through for 422 mapping
		return out, err
	}
	out.SQL = statement

	rows, err := s.execute(ctx, statement)
	if err != nil {
		s.logger.Error("query: execution failed", "error", err, "sql", statement)

		return out, err
	}
	out.Rows = rows

	s.logger.Info("question answered",
		"rows", len(rows),
		"durationMs", time.Since(started).Milliseconds())

	return out, nil
}

func (s *QueryService) generate(ctx context.Context, p prompt.Prompt) (string, error) {
	if s.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generateTimeout)
		defer cancel()
	}

	completion, err := s.generator.Generate(ctx, p)
	if err != nil {
		if ctxErr := context.Cause(ctx); ctxErr != nil {
			return "", fmt.Errorf("generate completion: %w", ctxErr)
		}

		return "", fmt.Errorf("generate completion: %w", err)
	}

	return completion, nil
}

func (s *QueryService) execute(ctx context.Context, statement string) ([]map[string]any, error) {
	if s.executeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executeTimeout)
		defer cancel()
	}

	rows, err := s.executor.Execute(ctx, statement)
	if err != nil {
		if ctxErr := context.Cause(ctx); ctxErr != nil {
			return nil, fmt.Errorf("execute query: %w", ctxErr)
		}

		return nil, fmt.Errorf("execute query: %w", err)
	}

	return rows, nil
}
