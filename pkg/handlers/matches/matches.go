// Package matches exposes the match engine over HTTP.
package matches

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/handlers"
	"github.com/openshelf/bookswap/pkg/mapping"
	"github.com/openshelf/bookswap/pkg/matching"
)

// Handler holds the dependencies for match-related handlers.
type Handler struct {
	Matcher *matching.Matcher
}

// NewHandler creates a new Handler.
func NewHandler(matcher *matching.Matcher) *Handler {
	return &Handler{Matcher: matcher}
}

// Routes returns the router for the matches resource.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{userId}", h.GetMatchesForUser)
	return r
}

// GetMatchesForUser handles the logic for computing a user's ranked
// match candidates. No matches is a valid, empty result.
func (h *Handler) GetMatchesForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	candidates, err := h.Matcher.Matches(r.Context(), userID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	apiCandidates := make([]*api.MatchCandidate, len(candidates))
	for i := range candidates {
		apiCandidates[i] = mapping.ToApiMatchCandidate(&candidates[i])
	}
	handlers.RespondJSON(w, http.StatusOK, apiCandidates)
}
