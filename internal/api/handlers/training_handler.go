package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/api/response"
	"github.com/askdb/askdb/internal/models"
)

// TrainingManager manages the training corpus.
type TrainingManager interface {
	AddArtifact(ctx context.Context, req models.AddTrainingRequest) (*models.TrainingArtifact, error)
	ListArtifacts(ctx context.Context) ([]models.TrainingArtifact, error)
	RemoveArtifact(ctx context.Context, id uuid.UUID) error
}

// TrainingHandler handles HTTP requests for training data management.
type TrainingHandler struct {
	service   TrainingManager
	listLimit int
}

// NewTrainingHandler creates a new training handler.
func NewTrainingHandler(service TrainingManager, listLimit int) *TrainingHandler {
	return &TrainingHandler{service: service, listLimit: listLimit}
}

// AddResponse is the body returned by a successful training insert.
type AddResponse struct {
	ID string `json:"id"`
}

// RemoveResponse is the body returned by a successful training removal.
type RemoveResponse struct {
	Success bool `json:"success"`
}

// Add handles POST /api/v0/train.
func (h *TrainingHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddTrainingRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	artifact, err := h.service.AddArtifact(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, AddResponse{ID: artifact.ID.String()})
}

// List handles GET /api/v0/get_training_data.
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.service.ListArtifacts(r.Context())
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, models.ListTrainingResponse{
		Data:  artifacts,
		Limit: h.listLimit,
	})
}

// Remove handles POST /api/v0/remove_training_data.
func (h *TrainingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		response.RespondBadRequest(w, "id query parameter is required")

		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid training data ID")

		return
	}

	if err := h.service.RemoveArtifact(r.Context(), id); err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, RemoveResponse{Success: true})
}
