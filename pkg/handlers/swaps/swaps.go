// Package swaps exposes the swap-request state machine over HTTP. All
// transitions go through the availability tracker, which owns the
// concurrency guarantees.
package swaps

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/availability"
	"github.com/openshelf/bookswap/pkg/handlers"
	"github.com/openshelf/bookswap/pkg/mapping"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
)

// Handler holds the dependencies for swap-related handlers.
type Handler struct {
	Tracker *availability.Tracker
	Store   storage.SwapRequestReader
}

// NewHandler creates a new Handler.
func NewHandler(tracker *availability.Tracker, store storage.SwapRequestReader) *Handler {
	return &Handler{Tracker: tracker, Store: store}
}

// Routes returns the router for the swaps resource.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.RequestSwap)
	r.Get("/book/{bookId}", h.ListSwapRequestsByBook)
	r.Get("/requester/{userId}", h.ListSwapRequestsByRequester)
	r.Route("/{requestId}", func(r chi.Router) {
		r.Get("/", h.GetSwapRequestById)
		r.Post("/accept", h.AcceptRequest)
		r.Post("/decline", h.DeclineRequest)
		r.Post("/cancel", h.CancelRequest)
		r.Post("/complete", h.CompleteSwap)
	})
	return r
}

// RequestSwap handles the logic for creating a new swap request.
func (h *Handler) RequestSwap(w http.ResponseWriter, r *http.Request) {
	var newReq api.NewSwapRequest
	if err := handlers.DecodeJSON(r, &newReq); err != nil {
		handlers.RespondError(w, err)
		return
	}
	if newReq.BookId == "" {
		handlers.RespondError(w, &models.ValidationError{Field: "book_id", Reason: "must not be empty"})
		return
	}
	if newReq.RequesterId == "" {
		handlers.RespondError(w, &models.ValidationError{Field: "requester_id", Reason: "must not be empty"})
		return
	}

	req, err := h.Tracker.RequestSwap(r.Context(), newReq.BookId, newReq.RequesterId)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, mapping.ToApiSwapRequest(req))
}

// GetSwapRequestById handles the logic for retrieving a swap request.
func (h *Handler) GetSwapRequestById(w http.ResponseWriter, r *http.Request) {
	requestID, err := handlers.UUIDParam(r, "requestId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	req, err := h.Store.GetSwapRequest(r.Context(), requestID.String())
	if err != nil {
		handlers.RespondError(w, &models.NotFoundError{Kind: "swap request", Id: requestID.String()})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiSwapRequest(req))
}

// AcceptRequest handles the owner accepting a pending request.
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := handlers.UUIDParam(r, "requestId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	req, err := h.Tracker.AcceptRequest(r.Context(), requestID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiSwapRequest(req))
}

// DeclineRequest handles the owner declining a pending request.
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := handlers.UUIDParam(r, "requestId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	req, err := h.Tracker.DeclineRequest(r.Context(), requestID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiSwapRequest(req))
}

// CancelRequest handles the requester withdrawing their own request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := handlers.UUIDParam(r, "requestId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	var body api.CancelSwapRequest
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.RespondError(w, err)
		return
	}
	if body.RequesterId == "" {
		handlers.RespondError(w, &models.ValidationError{Field: "requester_id", Reason: "must not be empty"})
		return
	}

	req, err := h.Tracker.CancelRequest(r.Context(), requestID.String(), body.RequesterId)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiSwapRequest(req))
}

// CompleteSwap handles marking an accepted swap as done.
func (h *Handler) CompleteSwap(w http.ResponseWriter, r *http.Request) {
	requestID, err := handlers.UUIDParam(r, "requestId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	req, err := h.Tracker.CompleteSwap(r.Context(), requestID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiSwapRequest(req))
}

// ListSwapRequestsByBook handles listing every request on one book.
func (h *Handler) ListSwapRequestsByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := handlers.UUIDParam(r, "bookId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	requests, err := h.Store.ListSwapRequestsByBook(r.Context(), bookID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	respondRequests(w, requests)
}

// ListSwapRequestsByRequester handles listing a user's requests.
func (h *Handler) ListSwapRequestsByRequester(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	requests, err := h.Store.ListSwapRequestsByRequester(r.Context(), userID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	respondRequests(w, requests)
}

func respondRequests(w http.ResponseWriter, requests []models.SwapRequest) {
	apiRequests := make([]*api.SwapRequest, len(requests))
	for i := range requests {
		apiRequests[i] = mapping.ToApiSwapRequest(&requests[i])
	}
	handlers.RespondJSON(w, http.StatusOK, apiRequests)
}
