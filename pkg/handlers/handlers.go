// Package handlers holds the helpers shared by the per-resource HTTP
// handler packages: typed path-parameter parsing, JSON responses, and
// the mapping from domain errors to HTTP status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/openshelf/bookswap/pkg/models"
)

// UUIDParam parses the named chi URL parameter as a UUID.
func UUIDParam(r *http.Request, name string) (openapi_types.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return openapi_types.UUID{}, &models.ValidationError{Field: name, Reason: "must be a valid UUID"}
	}
	return openapi_types.UUID(id), nil
}

// RespondJSON writes v as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// RespondError translates a domain error into an HTTP response.
// ValidationError maps to 400, NotFoundError to 404, ConflictError to
// 409, InvalidStateError to 422; anything else is a 500 whose detail is
// logged but not leaked to the client.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validationErr   *models.ValidationError
		notFoundErr     *models.NotFoundError
		conflictErr     *models.ConflictError
		invalidStateErr *models.InvalidStateError
	)

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		http.Error(w, notFoundErr.Error(), http.StatusNotFound)
	case errors.As(err, &conflictErr):
		http.Error(w, conflictErr.Error(), http.StatusConflict)
	case errors.As(err, &invalidStateErr):
		http.Error(w, invalidStateErr.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// DecodeJSON decodes the request body into v, surfacing malformed input
// as a ValidationError.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}
