package storage

import (
	"context"

	"github.com/openshelf/bookswap/pkg/models"
)

// BookReader defines the interface for reading book listings.
type BookReader interface {
	// GetBook retrieves a book by its ID.
	GetBook(ctx context.Context, bookID string) (*models.Book, error)

	// LoadAllBooks retrieves every listed book. The catalog index is
	// rebuilt from this on startup.
	LoadAllBooks(ctx context.Context) ([]models.Book, error)

	// ListBooksByOwner retrieves all books listed by one user.
	ListBooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error)
}

// BookManager defines the interface for creating and mutating book
// listings.
type BookManager interface {
	// CreateBook persists a new listing and returns the stored book.
	CreateBook(ctx context.Context, book *models.Book) (*models.Book, error)

	// DeleteBook removes a listing entirely.
	DeleteBook(ctx context.Context, bookID string) error

	// TransitionBookStatus atomically moves a book from one status to
	// another. The write only succeeds if the book's current status is
	// exactly `from`; otherwise ErrStatusConflict is returned and the
	// record is unchanged.
	TransitionBookStatus(ctx context.Context, bookID string, from, to models.BookStatus) (*models.Book, error)
}

// BookStore combines the reader and manager interfaces.
type BookStore interface {
	BookReader
	BookManager
}
