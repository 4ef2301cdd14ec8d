// Package catalog maintains an in-memory index over the full book
// listing set. It answers free-text and neighborhood-filtered searches
// without calling out to storage; the storage layer owns persistence
// and the index is rebuilt from it on startup.
package catalog

import (
	"sort"
	"sync"

	"github.com/openshelf/bookswap/pkg/models"
)

// Index is a read-mostly index of books keyed by id. Reads run fully
// concurrently; mutations are atomic with respect to readers.
type Index struct {
	mu    sync.RWMutex
	books map[string]models.Book
}

// New creates an empty Index.
func New() *Index {
	return &Index{books: make(map[string]models.Book)}
}

// Upsert inserts or replaces a book, keyed by id. It is idempotent: two
// identical upserts leave the index in the same state as one. A book
// that fails validation is rejected and never inserted.
func (idx *Index) Upsert(book models.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.books[book.Id] = book
	return nil
}

// Remove deletes a book from the index. Removing an unknown id is a
// no-op.
func (idx *Index) Remove(bookId string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.books, bookId)
}

// Rebuild replaces the entire index contents in one atomic swap.
// Malformed books are skipped and reported back to the caller.
func (idx *Index) Rebuild(books []models.Book) []error {
	next := make(map[string]models.Book, len(books))
	var rejected []error
	for _, b := range books {
		if err := b.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		next[b.Id] = b
	}

	idx.mu.Lock()
	idx.books = next
	idx.mu.Unlock()
	return rejected
}

// Len returns the number of indexed books, in any status.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.books)
}

// Get returns the indexed book with the given id.
func (idx *Index) Get(bookId string) (models.Book, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.books[bookId]
	return b, ok
}

// Snapshot returns a point-in-time copy of every indexed book, in any
// status. The match engine scores against one snapshot so a concurrent
// upsert can never produce a half-updated result.
func (idx *Index) Snapshot() []models.Book {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]models.Book, 0, len(idx.books))
	for _, b := range idx.books {
		out = append(out, b)
	}
	return out
}

// Search returns the available books matching the free-text query and
// the neighborhood set. An empty query matches everything; an empty
// neighborhood set disables the neighborhood filter. Books whose status
// is not AVAILABLE are never returned. Results are ordered most recently
// listed first, ties broken by ascending id, so identical queries always
// return identical orderings.
func (idx *Index) Search(query string, hoods []string) []models.Book {
	f := Filter{Query: query, Neighborhoods: hoods}

	idx.mu.RLock()
	out := make([]models.Book, 0, len(idx.books))
	for _, b := range idx.books {
		if !b.Available() {
			continue
		}
		if !f.Match(&b) {
			continue
		}
		out = append(out, b)
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ListedAt.Equal(out[j].ListedAt) {
			return out[i].ListedAt.After(out[j].ListedAt)
		}
		return out[i].Id < out[j].Id
	})
	return out
}
