package storage

import (
	"context"
	"time"

	"github.com/openshelf/bookswap/pkg/models"
)

// SwapRequestReader defines the interface for reading swap requests.
type SwapRequestReader interface {
	// GetSwapRequest retrieves a swap request by its ID.
	GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error)

	// ListSwapRequestsByBook retrieves every request ever made on a
	// book, terminal states included.
	ListSwapRequestsByBook(ctx context.Context, bookID string) ([]models.SwapRequest, error)

	// ListSwapRequestsByRequester retrieves all requests a user has made.
	ListSwapRequestsByRequester(ctx context.Context, requesterID string) ([]models.SwapRequest, error)

	// GetStaleReservations retrieves requests that have sat in ACCEPTED
	// state for longer than maxAge without completing. The
	// reconciliation job re-surfaces these.
	GetStaleReservations(ctx context.Context, maxAge time.Duration) ([]models.SwapRequest, error)
}

// SwapRequestManager defines the interface for creating swap requests
// and driving their state machine.
type SwapRequestManager interface {
	// CreateSwapRequest persists a new PENDING request.
	CreateSwapRequest(ctx context.Context, req *models.SwapRequest) (*models.SwapRequest, error)

	// TransitionSwapRequestState atomically moves a request from one
	// state to another. The write only succeeds if the request's current
	// state is exactly `from`; otherwise ErrStatusConflict is returned.
	TransitionSwapRequestState(ctx context.Context, requestID string, from, to models.SwapRequestState) (*models.SwapRequest, error)
}

// SwapRequestStore combines the reader and manager interfaces.
type SwapRequestStore interface {
	SwapRequestReader
	SwapRequestManager
}
