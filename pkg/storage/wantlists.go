package storage

import (
	"context"

	"github.com/openshelf/bookswap/pkg/models"
)

// WantlistReader defines the read side of wantlist access. The match
// engine depends only on this.
type WantlistReader interface {
	// ListWantlist retrieves one user's wantlist entries.
	ListWantlist(ctx context.Context, userID string) ([]models.WantlistEntry, error)

	// LoadAllWantlists retrieves every wantlist entry across all users,
	// so the match engine can find users interested in the querying
	// user's offered books.
	LoadAllWantlists(ctx context.Context) ([]models.WantlistEntry, error)
}

// WantlistManager defines the write side of wantlist access.
type WantlistManager interface {
	// AddWantlistEntry persists a new standing interest.
	AddWantlistEntry(ctx context.Context, entry *models.WantlistEntry) (*models.WantlistEntry, error)

	// RemoveWantlistEntry deletes one entry.
	RemoveWantlistEntry(ctx context.Context, userID, entryID string) error
}

// WantlistStore combines the reader and manager interfaces.
type WantlistStore interface {
	WantlistReader
	WantlistManager
}
