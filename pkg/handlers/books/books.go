// Package books exposes the catalog over HTTP: listing, lookup,
// removal and availability-aware search.
package books

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/handlers"
	"github.com/openshelf/bookswap/pkg/mapping"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/neighborhoods"
	"github.com/openshelf/bookswap/pkg/notify"
	"github.com/openshelf/bookswap/pkg/storage"
)

// Handler holds the dependencies for book-related handlers.
type Handler struct {
	Store     storage.BookStore
	Index     *catalog.Index
	Publisher notify.Publisher
}

// NewHandler creates a new Handler.
func NewHandler(store storage.BookStore, index *catalog.Index, publisher notify.Publisher) *Handler {
	if publisher == nil {
		publisher = &notify.NoOpPublisher{}
	}
	return &Handler{Store: store, Index: index, Publisher: publisher}
}

// Routes returns the router for the books resource.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateBook)
	r.Get("/", h.SearchBooks)
	r.Route("/{bookId}", func(r chi.Router) {
		r.Get("/", h.GetBookById)
		r.Delete("/", h.DeleteBook)
	})
	return r
}

// CreateBook handles the logic for listing a new book.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var newBook api.NewBook
	if err := handlers.DecodeJSON(r, &newBook); err != nil {
		handlers.RespondError(w, err)
		return
	}
	if !neighborhoods.Valid(newBook.Neighborhood) {
		handlers.RespondError(w, &models.ValidationError{Field: "neighborhood", Reason: "unknown neighborhood " + newBook.Neighborhood})
		return
	}

	domainBook := mapping.ToDomainNewBook(&newBook)
	created, err := h.Store.CreateBook(r.Context(), domainBook)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	if err := h.Index.Upsert(*created); err != nil {
		slog.Error("book created but not indexed", "bookId", created.Id, "error", err)
	}

	msg := notify.Message{
		Type: notify.MessageTypeBookListed,
		Payload: notify.BookListedPayload{
			BookID:       created.Id,
			Title:        created.Title,
			Author:       created.Author,
			Neighborhood: created.Neighborhood,
			OwnerID:      created.OwnerId,
		},
	}
	if err := h.Publisher.Publish(r.Context(), msg); err != nil {
		slog.Error("failed to publish book listed message", "bookId", created.Id, "error", err)
	}

	handlers.RespondJSON(w, http.StatusCreated, mapping.ToApiBook(created))
}

// GetBookById handles the logic for retrieving a book by its ID.
func (h *Handler) GetBookById(w http.ResponseWriter, r *http.Request) {
	bookID, err := handlers.UUIDParam(r, "bookId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	book, err := h.Store.GetBook(r.Context(), bookID.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handlers.RespondError(w, &models.NotFoundError{Kind: "book", Id: bookID.String()})
			return
		}
		handlers.RespondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiBook(book))
}

// DeleteBook handles the logic for removing a listing.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := handlers.UUIDParam(r, "bookId")
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	if err := h.Store.DeleteBook(r.Context(), bookID.String()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handlers.RespondError(w, &models.NotFoundError{Kind: "book", Id: bookID.String()})
			return
		}
		handlers.RespondError(w, err)
		return
	}
	h.Index.Remove(bookID.String())

	w.WriteHeader(http.StatusNoContent)
}

// SearchBooks answers availability-aware catalog searches. The q
// parameter is a free-text query over title, author and description;
// the neighborhoods parameter is a comma-separated filter set.
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var hoods []string
	if raw := r.URL.Query().Get("neighborhoods"); raw != "" {
		for _, hood := range strings.Split(raw, ",") {
			hood = strings.TrimSpace(hood)
			if hood == "" {
				continue
			}
			if !neighborhoods.Valid(hood) {
				handlers.RespondError(w, &models.ValidationError{Field: "neighborhoods", Reason: "unknown neighborhood " + hood})
				return
			}
			hoods = append(hoods, hood)
		}
	}

	results := h.Index.Search(query, hoods)
	handlers.RespondJSON(w, http.StatusOK, mapping.ToApiBooks(results))
}
