package scheduler

import (
	"context"
	"time"

	"github.com/openshelf/bookswap/pkg/models"
)

// Scheduler defines the interface for a component that schedules a
// reservation expiry for later processing. When an owner accepts a swap
// request the book is reserved; if the swap has not completed by the
// time the expiry message is delivered, the reservation falls through
// and the book is released.
type Scheduler interface {
	// ScheduleExpiry enqueues the accepted request for an expiry check
	// after the given delay.
	ScheduleExpiry(ctx context.Context, req *models.SwapRequest, delay time.Duration) error
}
