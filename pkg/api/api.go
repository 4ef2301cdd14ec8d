// Package api contains the wire types exchanged with HTTP clients.
// Internal domain models live in pkg/models; these types define the
// public JSON contract and are mapped explicitly in pkg/mapping.
package api

import "time"

// BookCondition is the physical condition of a listed book.
type BookCondition string

// BookStatus is the availability status of a listed book.
type BookStatus string

// SwapRequestState is the lifecycle state of a swap request.
type SwapRequestState string

// NewBook is the request body for listing a book.
type NewBook struct {
	Title        string        `json:"title"`
	Author       string        `json:"author"`
	Description  string        `json:"description,omitempty"`
	Condition    BookCondition `json:"condition,omitempty"`
	OwnerId      string        `json:"owner_id"`
	Neighborhood string        `json:"neighborhood,omitempty"`
}

// Book is a listed book as returned to clients.
type Book struct {
	Id           string        `json:"id"`
	Title        string        `json:"title"`
	Author       string        `json:"author"`
	Description  string        `json:"description,omitempty"`
	Condition    BookCondition `json:"condition,omitempty"`
	OwnerId      string        `json:"owner_id"`
	Neighborhood string        `json:"neighborhood,omitempty"`
	Status       BookStatus    `json:"status"`
	ListedAt     time.Time     `json:"listed_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewUser is the request body for registering a user.
type NewUser struct {
	Name         string `json:"name"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

// User is a swap participant as returned to clients.
type User struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewWantlistEntry is the request body for adding a wantlist entry.
// Exactly one of Query or BookId must be set.
type NewWantlistEntry struct {
	Query  *string `json:"query,omitempty"`
	BookId *string `json:"book_id,omitempty"`
}

// WantlistEntry is a standing interest as returned to clients.
type WantlistEntry struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Query     string    `json:"query,omitempty"`
	BookId    string    `json:"book_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSwapRequest is the request body for requesting a swap.
type NewSwapRequest struct {
	BookId      string `json:"book_id"`
	RequesterId string `json:"requester_id"`
}

// CancelSwapRequest is the request body for cancelling a swap request.
type CancelSwapRequest struct {
	RequesterId string `json:"requester_id"`
}

// SwapRequest is one requester's claim on one book as returned to
// clients.
type SwapRequest struct {
	Id          string           `json:"id"`
	BookId      string           `json:"book_id"`
	RequesterId string           `json:"requester_id"`
	OwnerId     string           `json:"owner_id"`
	State       SwapRequestState `json:"state"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// MatchCandidate is one ranked potential swap partner.
type MatchCandidate struct {
	UserId                  string `json:"user_id"`
	Name                    string `json:"name"`
	Neighborhood            string `json:"neighborhood,omitempty"`
	BooksTheyOfferThatIWant []Book `json:"books_they_offer_that_i_want"`
	BooksIWantThatTheyOffer []Book `json:"books_i_want_that_they_offer"`
	Score                   int    `json:"score"`
}
