// Package users exposes swap participants and their wantlists over
// HTTP.
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/handlers"
	"github.com/openshelf/bookswap/pkg/mapping"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/neighborhoods"
	"github.com/openshelf/bookswap/pkg/storage"
)

// Handler holds the dependencies for user-related handlers.
type Handler struct {
	Store storage.Storage
}

// NewHandler creates a new Handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{Store: store}
}

// Routes returns the router for the users resource.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateUser)
	r.Get("/", h.ListUsers)
	r.Route("/{userId}", func(r chi.Router) {
		r.Get("/", h.GetUserById)
		r.Delete("/", h.DeleteUser)
		r.Get("/books", h.ListBooksByOwner)
		r.Get("/wantlist", h.ListWantlist)
		r.Post("/wantlist", h.AddWantlistEntry)
		r.Delete("/wantlist/{entryId}", h.RemoveWantlistEntry)
	})
	return r
}

// CreateUser handles the logic for registering a new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var newUser api.NewUser
	if err := handlers.DecodeJSON(r, &newUser); err != nil {
		handlers.RespondError(w, err)
		return
	}
	if newUser.Name == "" {
		handlers.RespondError(w, &models.ValidationError{Field: "name", Reason: "must not be empty"})
		return
	}
	if !neighborhoods.Valid(newUser.Neighborhood) {
		handlers.RespondError(w, &models.ValidationError{Field: "neighborhood", Reason: "unknown neighborhood " + newUser.Neighborhood})
		return
	}

	created, err := h.Store.CreateUser(r.Context(), mapping.ToDomainNewUser(&newUser))
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, mapping.ToApiUser(created))
}

// GetUserById handles the logic for retrieving a user by their ID.
func (h *Handler) GetUserById(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	user, err := h.Store.GetUser(r.Context(), userID.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handlers.RespondError(w, &models.NotFoundError{Kind: "user", Id: userID.String()})
			return
		}
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiUser(user))
}

// DeleteUser handles the logic for deleting a user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	if err := h.Store.DeleteUser(r.Context(), userID.String()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handlers.RespondError(w, &models.NotFoundError{Kind: "user", Id: userID.String()})
			return
		}
		handlers.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles the logic for retrieving all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	apiUsers := make([]*api.User, len(users))
	for i := range users {
		apiUsers[i] = mapping.ToApiUser(&users[i])
	}
	handlers.RespondJSON(w, http.StatusOK, apiUsers)
}

// ListBooksByOwner handles the logic for retrieving a user's listings.
func (h *Handler) ListBooksByOwner(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	books, err := h.Store.ListBooksByOwner(r.Context(), userID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiBooks(books))
}

// ListWantlist handles the logic for retrieving a user's wantlist.
func (h *Handler) ListWantlist(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	entries, err := h.Store.ListWantlist(r.Context(), userID.String())
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	apiEntries := make([]*api.WantlistEntry, len(entries))
	for i := range entries {
		apiEntries[i] = mapping.ToApiWantlistEntry(&entries[i])
	}
	handlers.RespondJSON(w, http.StatusOK, apiEntries)
}

// AddWantlistEntry handles the logic for adding a standing interest.
func (h *Handler) AddWantlistEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	var newEntry api.NewWantlistEntry
	if err := handlers.DecodeJSON(r, &newEntry); err != nil {
		handlers.RespondError(w, err)
		return
	}

	entry := mapping.ToDomainNewWantlistEntry(userID.String(), &newEntry)
	created, err := h.Store.AddWantlistEntry(r.Context(), entry)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, mapping.ToApiWantlistEntry(created))
}

// RemoveWantlistEntry handles the logic for removing a standing
// interest.
func (h *Handler) RemoveWantlistEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.UUIDParam(r, "userId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	entryID, err := handlers.UUIDParam(r, "entryId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	if err := h.Store.RemoveWantlistEntry(r.Context(), userID.String(), entryID.String()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handlers.RespondError(w, &models.NotFoundError{Kind: "wantlist entry", Id: entryID.String()})
			return
		}
		handlers.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
