package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/models"
)

type mockQueryService struct {
	answerFn func(ctx context.Context, question string) (models.GeneratedQuery, error)
}

func (m *mockQueryService) Answer(ctx context.Context, question string) (models.GeneratedQuery, error) {
	return m.answerFn(ctx, question)
}

func TestQueryHandler_TextToSQL(t *testing.T) {
	t.Run("returns sql and rows", func(t *testing.T) {
		svc := &mockQueryService{
			answerFn: func(_ context.Context, question string) (models.GeneratedQuery, error) {
				assert.Equal(t, "how many users?", question)
				return models.GeneratedQuery{
					Question: question,
					SQL:      "SELECT COUNT(*) FROM users;",
					Rows:     []map[string]any{{"count": float64(42)}},
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v0/text-to-sql?question=how+many+users%3F", nil)
		rec := httptest.NewRecorder()

		NewQueryHandler(svc).TextToSQL(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body models.GeneratedQuery
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "SELECT COUNT(*) FROM users;", body.SQL)
		assert.Equal(t, []map[string]any{{"count": float64(42)}}, body.Rows)
	})

	t.Run("missing question is a bad request", func(t *testing.T) {
		svc := &mockQueryService{
			answerFn: func(context.Context, string) (models.GeneratedQuery, error) {
				t.Fatal("service must not be called without a question")
				return models.GeneratedQuery{}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v0/text-to-sql", nil)
		rec := httptest.NewRecorder()

		NewQueryHandler(svc).TextToSQL(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{name: "timeout", err: context.DeadlineExceeded, wantStatus: http.StatusRequestTimeout},
			{name: "no sql extracted", err: askerrors.ErrExtractionFailed, wantStatus: http.StatusUnprocessableEntity},
			{name: "query failed", err: askerrors.ErrQueryExecution, wantStatus: http.StatusUnprocessableEntity},
			{name: "inference down", err: askerrors.ErrInferenceUnavailable, wantStatus: http.StatusBadGateway},
			{name: "inference malformed", err: askerrors.ErrInferenceProtocol, wantStatus: http.StatusBadGateway},
			{name: "embedding down", err: askerrors.ErrEmbeddingUnavailable, wantStatus: http.StatusBadGateway},
			{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &mockQueryService{
					answerFn: func(context.Context, string) (models.GeneratedQuery, error) {
						return models.GeneratedQuery{}, tt.err
					},
				}

				req := httptest.NewRequest(http.MethodGet, "/api/v0/text-to-sql?question=q", nil)
				rec := httptest.NewRecorder()

				NewQueryHandler(svc).TextToSQL(rec, req)

				assert.Equal(t, tt.wantStatus, rec.Code)
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			})
		}
	})

	t.Run("wrapped errors still map", func(t *testing.T) {
		svc := &mockQueryService{
			answerFn: func(context.Context, string) (models.GeneratedQuery, error) {
				return models.GeneratedQuery{}, errors.Join(
					errors.New("generate completion"), context.DeadlineExceeded)
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v0/text-to-sql?question=q", nil)
		rec := httptest.NewRecorder()

		NewQueryHandler(svc).TextToSQL(rec, req)

		assert.Equal(t, http.StatusRequestTimeout, rec.Code)
	})
}
