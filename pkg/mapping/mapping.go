// Package mapping converts between the public API wire types and the
// internal domain models.
package mapping

import (
	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/models"
)

// ToDomainNewBook converts an API NewBook model to a domain Book model.
// Server-side fields (id, status, timestamps) are filled in by storage.
func ToDomainNewBook(newBook *api.NewBook) *models.Book {
	return &models.Book{
		Title:        newBook.Title,
		Author:       newBook.Author,
		Description:  newBook.Description,
		Condition:    models.BookCondition(newBook.Condition),
		OwnerId:      newBook.OwnerId,
		Neighborhood: newBook.Neighborhood,
	}
}

// ToApiBook converts a domain Book model to an API Book model.
func ToApiBook(book *models.Book) *api.Book {
	return &api.Book{
		Id:           book.Id,
		Title:        book.Title,
		Author:       book.Author,
		Description:  book.Description,
		Condition:    api.BookCondition(book.Condition),
		OwnerId:      book.OwnerId,
		Neighborhood: book.Neighborhood,
		Status:       api.BookStatus(book.Status),
		ListedAt:     book.ListedAt,
		UpdatedAt:    book.UpdatedAt,
	}
}

// ToApiBooks converts a slice of domain Books to API Books.
func ToApiBooks(books []models.Book) []*api.Book {
	out := make([]*api.Book, len(books))
	for i := range books {
		out[i] = ToApiBook(&books[i])
	}
	return out
}

// ToDomainNewUser converts an API NewUser model to a domain User model.
func ToDomainNewUser(newUser *api.NewUser) *models.User {
	return &models.User{
		Name:         newUser.Name,
		Neighborhood: newUser.Neighborhood,
	}
}

// ToApiUser converts a domain User model to an API User model.
func ToApiUser(user *models.User) *api.User {
	return &api.User{
		Id:           user.Id,
		Name:         user.Name,
		Neighborhood: user.Neighborhood,
		CreatedAt:    user.CreatedAt,
	}
}

// ToDomainNewWantlistEntry converts an API NewWantlistEntry to a domain
// WantlistEntry for the given user.
func ToDomainNewWantlistEntry(userID string, newEntry *api.NewWantlistEntry) *models.WantlistEntry {
	entry := &models.WantlistEntry{UserId: userID}
	if newEntry.Query != nil {
		entry.Query = *newEntry.Query
	}
	if newEntry.BookId != nil {
		entry.BookId = *newEntry.BookId
	}
	return entry
}

// ToApiWantlistEntry converts a domain WantlistEntry to an API model.
func ToApiWantlistEntry(entry *models.WantlistEntry) *api.WantlistEntry {
	return &api.WantlistEntry{
		Id:        entry.Id,
		UserId:    entry.UserId,
		Query:     entry.Query,
		BookId:    entry.BookId,
		CreatedAt: entry.CreatedAt,
	}
}

// ToApiSwapRequest converts a domain SwapRequest to an API model.
func ToApiSwapRequest(req *models.SwapRequest) *api.SwapRequest {
	return &api.SwapRequest{
		Id:          req.Id,
		BookId:      req.BookId,
		RequesterId: req.RequesterId,
		OwnerId:     req.OwnerId,
		State:       api.SwapRequestState(req.State),
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}

// ToApiMatchCandidate converts a derived MatchCandidate to an API model.
func ToApiMatchCandidate(c *models.MatchCandidate) *api.MatchCandidate {
	theirs := make([]api.Book, len(c.BooksTheyOfferThatIWant))
	for i := range c.BooksTheyOfferThatIWant {
		theirs[i] = *ToApiBook(&c.BooksTheyOfferThatIWant[i])
	}
	mine := make([]api.Book, len(c.BooksIWantThatTheyOffer))
	for i := range c.BooksIWantThatTheyOffer {
		mine[i] = *ToApiBook(&c.BooksIWantThatTheyOffer[i])
	}
	return &api.MatchCandidate{
		UserId:                  c.UserId,
		Name:                    c.Name,
		Neighborhood:            c.Neighborhood,
		BooksTheyOfferThatIWant: theirs,
		BooksIWantThatTheyOffer: mine,
		Score:                   c.Score,
	}
}
