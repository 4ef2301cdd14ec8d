// Package memory implements the Storage interface entirely in process.
// It honors the same compare-and-swap transition semantics as the
// DynamoDB store, which makes it suitable for tests that exercise the
// availability invariants, and for local development without AWS.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage"
)

// Store holds all records behind one mutex. Contention is irrelevant at
// the scale this store is used at.
type Store struct {
	mu        sync.Mutex
	books     map[string]models.Book
	users     map[string]models.User
	wantlists map[string]models.WantlistEntry
	requests  map[string]models.SwapRequest
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		books:     make(map[string]models.Book),
		users:     make(map[string]models.User),
		wantlists: make(map[string]models.WantlistEntry),
		requests:  make(map[string]models.SwapRequest),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

func (s *Store) GetBook(_ context.Context, bookID string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (s *Store) LoadAllBooks(_ context.Context) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) ListBooksByOwner(_ context.Context, ownerID string) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Book
	for _, b := range s.books {
		if b.OwnerId == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateBook(_ context.Context, book *models.Book) (*models.Book, error) {
	now := time.Now()
	if book.Id == "" {
		book.Id = uuid.New().String()
	}
	if book.Status == "" {
		book.Status = models.AVAILABLE
	}
	if book.ListedAt.IsZero() {
		book.ListedAt = now
	}
	book.UpdatedAt = now

	if err := book.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.Id]; exists {
		return nil, storage.ErrAlreadyExists
	}
	s.books[book.Id] = *book
	return book, nil
}

func (s *Store) DeleteBook(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[bookID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.books, bookID)
	return nil
}

func (s *Store) TransitionBookStatus(_ context.Context, bookID string, from, to models.BookStatus) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if b.Status != from {
		return nil, storage.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	s.books[bookID] = b
	return &b, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Id == "" {
		user.Id = uuid.New().String()
	}
	if _, exists := s.users[user.Id]; exists {
		return nil, storage.ErrAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.Id] = *user
	return user, nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) ListWantlist(_ context.Context, userID string) ([]models.WantlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WantlistEntry
	for _, e := range s.wantlists {
		if e.UserId == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) LoadAllWantlists(_ context.Context) ([]models.WantlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WantlistEntry, 0, len(s.wantlists))
	for _, e := range s.wantlists {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) AddWantlistEntry(_ context.Context, entry *models.WantlistEntry) (*models.WantlistEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.wantlists[entry.Id] = *entry
	return entry, nil
}

func (s *Store) RemoveWantlistEntry(_ context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.wantlists[entryID]
	if !ok || e.UserId != userID {
		return storage.ErrNotFound
	}
	delete(s.wantlists, entryID)
	return nil
}

func (s *Store) GetSwapRequest(_ context.Context, requestID string) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListSwapRequestsByBook(_ context.Context, bookID string) ([]models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SwapRequest
	for _, r := range s.requests {
		if r.BookId == bookID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListSwapRequestsByRequester(_ context.Context, requesterID string) ([]models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SwapRequest
	for _, r := range s.requests {
		if r.RequesterId == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetStaleReservations(_ context.Context, maxAge time.Duration) ([]models.SwapRequest, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SwapRequest
	for _, r := range s.requests {
		if r.State == models.ACCEPTED && r.UpdatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) CreateSwapRequest(_ context.Context, req *models.SwapRequest) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Id == "" {
		req.Id = uuid.New().String()
	}
	if _, exists := s.requests[req.Id]; exists {
		return nil, storage.ErrAlreadyExists
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	s.requests[req.Id] = *req
	return req, nil
}

func (s *Store) TransitionSwapRequestState(_ context.Context, requestID string, from, to models.SwapRequestState) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if r.State != from {
		return nil, storage.ErrStatusConflict
	}
	r.State = to
	r.UpdatedAt = time.Now()
	s.requests[requestID] = r
	return &r, nil
}
