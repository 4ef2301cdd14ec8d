package models

import (
	"strings"
	"time"
)

// BookStatus defines the availability states of a listed book.
type BookStatus string

const (
	AVAILABLE BookStatus = "AVAILABLE"
	REQUESTED BookStatus = "REQUESTED"
	RESERVED  BookStatus = "RESERVED"
	SWAPPED   BookStatus = "SWAPPED"
)

// BookCondition defines the physical condition of a listed book.
type BookCondition string

const (
	LIKE_NEW  BookCondition = "LIKE_NEW"
	VERY_GOOD BookCondition = "VERY_GOOD"
	GOOD      BookCondition = "GOOD"
	FAIR      BookCondition = "FAIR"
	POOR      BookCondition = "POOR"
)

// SwapRequestState defines the lifecycle states of a swap request.
// DECLINED, CANCELLED and COMPLETED are terminal; terminal requests are
// retained for audit, never deleted.
type SwapRequestState string

const (
	PENDING   SwapRequestState = "PENDING"
	ACCEPTED  SwapRequestState = "ACCEPTED"
	DECLINED  SwapRequestState = "DECLINED"
	CANCELLED SwapRequestState = "CANCELLED"
	COMPLETED SwapRequestState = "COMPLETED"
)

// Book represents the internal domain model for a listed book.
// It includes dynamodbav tags for marshalling.
type Book struct {
	Id           string        `json:"id" dynamodbav:"id"`
	Title        string        `json:"title" dynamodbav:"title"`
	Author       string        `json:"author" dynamodbav:"author"`
	Description  string        `json:"description" dynamodbav:"description"`
	Condition    BookCondition `json:"condition" dynamodbav:"condition"`
	OwnerId      string        `json:"owner_id" dynamodbav:"owner_id"`
	Neighborhood string        `json:"neighborhood" dynamodbav:"neighborhood"`
	Status       BookStatus    `json:"status" dynamodbav:"status"`
	ListedAt     time.Time     `json:"listed_at" dynamodbav:"listed_at"`
	UpdatedAt    time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}

// User represents a swap participant.
type User struct {
	Id           string    `json:"id" dynamodbav:"id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Neighborhood string    `json:"neighborhood" dynamodbav:"neighborhood"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

// WantlistEntry represents a user's standing interest in a book.
// Either BookId references an exact catalog book, or Query is matched
// against title and author.
type WantlistEntry struct {
	Id        string    `json:"id" dynamodbav:"id"`
	UserId    string    `json:"user_id" dynamodbav:"user_id"`
	Query     string    `json:"query,omitempty" dynamodbav:"query,omitempty"`
	BookId    string    `json:"book_id,omitempty" dynamodbav:"book_id,omitempty"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// SwapRequest represents one requester's claim on one book.
type SwapRequest struct {
	Id          string           `json:"id" dynamodbav:"id"`
	BookId      string           `json:"book_id" dynamodbav:"book_id"`
	RequesterId string           `json:"requester_id" dynamodbav:"requester_id"`
	OwnerId     string           `json:"owner_id" dynamodbav:"owner_id"`
	State       SwapRequestState `json:"state" dynamodbav:"state"`
	CreatedAt   time.Time        `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" dynamodbav:"updated_at"`
}

// MatchCandidate is a derived pairing of the querying user with one
// potential swap partner. It is recomputed per query and never persisted.
type MatchCandidate struct {
	UserId                  string `json:"user_id"`
	Name                    string `json:"name"`
	Neighborhood            string `json:"neighborhood"`
	BooksTheyOfferThatIWant []Book `json:"books_they_offer_that_i_want"`
	BooksIWantThatTheyOffer []Book `json:"books_i_want_that_they_offer"`
	Score                   int    `json:"score"`
}

// Available reports whether the book may be surfaced in search and
// match results.
func (b *Book) Available() bool {
	return b.Status == AVAILABLE
}

// Terminal reports whether the request has reached an end state.
func (s SwapRequestState) Terminal() bool {
	return s == DECLINED || s == CANCELLED || s == COMPLETED
}

func validCondition(c BookCondition) bool {
	switch c {
	case LIKE_NEW, VERY_GOOD, GOOD, FAIR, POOR:
		return true
	}
	return false
}

// Validate checks the invariants every stored book must satisfy.
// A book missing its id, title or owner is malformed and must never
// reach the catalog index.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Id) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.OwnerId) == "" {
		return &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if b.Condition != "" && !validCondition(b.Condition) {
		return &ValidationError{Field: "condition", Reason: "unknown condition " + string(b.Condition)}
	}
	switch b.Status {
	case AVAILABLE, REQUESTED, RESERVED, SWAPPED:
	default:
		return &ValidationError{Field: "status", Reason: "unknown status " + string(b.Status)}
	}
	return nil
}

// Validate checks that the entry names exactly one target: an exact
// book id or a non-empty query.
func (e *WantlistEntry) Validate() error {
	if strings.TrimSpace(e.UserId) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(e.Query) == "" && strings.TrimSpace(e.BookId) == "" {
		return &ValidationError{Field: "query", Reason: "either query or book_id is required"}
	}
	return nil
}

// Matches reports whether the wantlist entry resolves to the given book.
// An entry never matches the wanting user's own books.
func (e *WantlistEntry) Matches(b *Book) bool {
	if b.OwnerId == e.UserId {
		return false
	}
	if e.BookId != "" {
		return e.BookId == b.Id
	}
	q := strings.ToLower(strings.TrimSpace(e.Query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q)
}
