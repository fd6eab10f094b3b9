package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/api/response"
	"github.com/askdb/askdb/internal/askerrors"
)

// respondServiceError maps pipeline errors onto HTTP statuses. Validation
// failures are the caller's fault, timeouts report 408, missing SQL and
// failed queries report 422, and unreachable or misbehaving model endpoints
// report 502.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		invalidErr  *askerrors.InvalidArtifactError
		notFoundErr *askerrors.NotFoundError
	)

	switch {
	case errors.As(err, &invalidErr):
		response.RespondBadRequest(w, invalidErr.Error())
	case errors.As(err, &notFoundErr):
		response.RespondNotFound(w, notFoundErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.RespondRequestTimeout(w, "The request took too long to process")
	case errors.Is(err, askerrors.ErrExtractionFailed):
		response.RespondUnprocessableEntity(w, "The model did not produce a runnable SQL statement")
	case errors.Is(err, askerrors.ErrQueryExecution):
		response.RespondUnprocessableEntity(w, "The generated SQL failed to execute")
	case errors.Is(err, askerrors.ErrEmbeddingUnavailable),
		errors.Is(err, askerrors.ErrInferenceUnavailable),
		errors.Is(err, askerrors.ErrInferenceProtocol):
		response.RespondBadGateway(w, "An upstream model service failed")
	default:
		response.RespondInternalServerError(w, "Internal server error")
	}
}
