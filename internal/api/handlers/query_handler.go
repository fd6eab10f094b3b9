package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/api/response"
	"github.com/askdb/askdb/internal/models"
)

// QueryAnswerer runs the question-to-rows pipeline.
type QueryAnswerer interface {
	Answer(ctx context.Context, question string) (models.GeneratedQuery, error)
}

// QueryHandler handles HTTP requests for natural-language querying.
type QueryHandler struct {
	service QueryAnswerer
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(service QueryAnswerer) *QueryHandler {
	return &QueryHandler{service: service}
}

// TextToSQL handles GET /api/v0/text-to-sql.
func (h *QueryHandler) TextToSQL(w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.URL.Query().Get("question"))
	if question == "" {
		response.RespondBadRequest(w, "question query parameter is required")

		return
	}

	result, err := h.service.Answer(r.Context(), question)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
