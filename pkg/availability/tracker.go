// Package availability serializes book availability against concurrent
// swap requests. Every book moves through a single state machine:
//
//	AVAILABLE -> REQUESTED -> RESERVED -> SWAPPED
//
// with REQUESTED -> AVAILABLE when the last pending request goes away
// and RESERVED -> AVAILABLE/REQUESTED when a reservation falls through
// before completion. At most one request per book may ever be ACCEPTED;
// the guard is a per-book lock in process plus a compare-and-swap on the
// book's status at the storage layer, so two racing accepts cannot both
// succeed even across processes.
package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/notify"
	"github.com/openshelf/bookswap/pkg/scheduler"
	"github.com/openshelf/bookswap/pkg/storage"
)

// DefaultReservationTTL is how long an accepted reservation may sit
// uncompleted before the expiry job releases the book.
const DefaultReservationTTL = 72 * time.Hour

// Store is the slice of the data layer the tracker needs.
type Store interface {
	storage.BookStore
	storage.SwapRequestStore
}

// Tracker drives the swap-request state machine. All I/O performed
// after a transition commits (notifications, expiry scheduling) is
// best-effort and never fails the operation.
type Tracker struct {
	store          Store
	index          *catalog.Index
	publisher      notify.Publisher
	scheduler      scheduler.Scheduler
	locks          *keyedMutex
	logger         *slog.Logger
	reservationTTL time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithScheduler sets the expiry scheduler. Without one, reservations
// only expire through the reconciliation job.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(t *Tracker) { t.scheduler = s }
}

// WithReservationTTL overrides DefaultReservationTTL.
func WithReservationTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.reservationTTL = d
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates a Tracker. The catalog index is kept in sync with
// every committed status change so search results never surface a book
// that is no longer available.
func NewTracker(store Store, index *catalog.Index, publisher notify.Publisher, opts ...Option) *Tracker {
	if publisher == nil {
		publisher = &notify.NoOpPublisher{}
	}
	t := &Tracker{
		store:          store,
		index:          index,
		publisher:      publisher,
		locks:          newKeyedMutex(),
		logger:         slog.Default(),
		reservationTTL: DefaultReservationTTL,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RequestSwap creates a PENDING request for the book on behalf of the
// requester. A book that is already RESERVED or SWAPPED cannot be
// requested.
func (t *Tracker) RequestSwap(ctx context.Context, bookID, requesterID string) (*models.SwapRequest, error) {
	unlock := t.locks.Lock(bookID)
	defer unlock()

	book, err := t.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &models.NotFoundError{Kind: "book", Id: bookID}
		}
		return nil, fmt.Errorf("failed to get book %s: %w", bookID, err)
	}

	if book.OwnerId == requesterID {
		return nil, &models.ValidationError{Field: "requester_id", Reason: "cannot request your own book"}
	}
	if book.Status == models.RESERVED || book.Status == models.SWAPPED {
		return nil, &models.ConflictError{Reason: fmt.Sprintf("book %s is %s", bookID, book.Status)}
	}

	now := time.Now()
	req := &models.SwapRequest{
		Id:          uuid.New().String(),
		BookId:      book.Id,
		RequesterId: requesterID,
		OwnerId:     book.OwnerId,
		State:       models.PENDING,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := t.store.CreateSwapRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create swap request: %w", err)
	}

	// First request on an available book moves it to REQUESTED.
	if book.Status == models.AVAILABLE {
		updated, err := t.store.TransitionBookStatus(ctx, book.Id, models.AVAILABLE, models.REQUESTED)
		if err != nil {
			if errors.Is(err, storage.ErrStatusConflict) {
				return nil, &models.ConflictError{Reason: fmt.Sprintf("book %s changed state during request", bookID)}
			}
			return nil, fmt.Errorf("failed to mark book requested: %w", err)
		}
		book = updated
		t.reindex(book)
	}

	t.publish(ctx, notify.MessageTypeSwapRequested, req, book)
	return req, nil
}

// AcceptRequest reserves the book for one pending request. The
// REQUESTED -> RESERVED compare-and-swap is the at-most-one-accepted
// guard: of two racing accepts on the same book, exactly one succeeds
// and the other observes ConflictError.
func (t *Tracker) AcceptRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	req, err := t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := t.locks.Lock(req.BookId)
	defer unlock()

	// Re-read under the lock; the state may have moved.
	req, err = t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != models.PENDING {
		return nil, &models.InvalidStateError{Entity: "swap request", From: string(req.State), Op: "accept"}
	}

	book, err := t.store.TransitionBookStatus(ctx, req.BookId, models.REQUESTED, models.RESERVED)
	if err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			return nil, &models.ConflictError{Reason: fmt.Sprintf("book %s already has an accepted request", req.BookId)}
		}
		return nil, fmt.Errorf("failed to reserve book %s: %w", req.BookId, err)
	}
	t.reindex(book)

	accepted, err := t.store.TransitionSwapRequestState(ctx, requestID, models.PENDING, models.ACCEPTED)
	if err != nil {
		// The book CAS won but the request write failed; release the
		// reservation so the book is not stranded.
		if reverted, revertErr := t.store.TransitionBookStatus(ctx, req.BookId, models.RESERVED, models.REQUESTED); revertErr != nil {
			t.logger.Error("failed to release reservation after accept failure", "bookId", req.BookId, "error", revertErr)
		} else {
			t.reindex(reverted)
		}
		return nil, fmt.Errorf("failed to accept request %s: %w", requestID, err)
	}

	if t.scheduler != nil {
		if err := t.scheduler.ScheduleExpiry(ctx, accepted, t.reservationTTL); err != nil {
			t.logger.Error("request accepted but expiry not scheduled", "requestId", accepted.Id, "error", err)
		}
	}

	t.publish(ctx, notify.MessageTypeSwapAccepted, accepted, book)
	return accepted, nil
}

// DeclineRequest is the owner's rejection of a pending request. If no
// other pending request remains the book returns to AVAILABLE;
// otherwise it stays REQUESTED with the remaining requests still open.
func (t *Tracker) DeclineRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	return t.closePending(ctx, requestID, models.DECLINED, notify.MessageTypeSwapDeclined, "decline")
}

// closePending moves a pending request to a terminal state and resettles
// the book from REQUESTED.
func (t *Tracker) closePending(ctx context.Context, requestID string, to models.SwapRequestState, msgType notify.MessageType, op string) (*models.SwapRequest, error) {
	req, err := t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := t.locks.Lock(req.BookId)
	defer unlock()

	req, err = t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != models.PENDING {
		return nil, &models.InvalidStateError{Entity: "swap request", From: string(req.State), Op: op}
	}

	closed, err := t.store.TransitionSwapRequestState(ctx, requestID, models.PENDING, to)
	if err != nil {
		return nil, fmt.Errorf("failed to %s request %s: %w", op, requestID, err)
	}

	book, err := t.settleBookAfterClose(ctx, req.BookId, models.REQUESTED)
	if err != nil {
		return nil, err
	}

	t.publish(ctx, msgType, closed, book)
	return closed, nil
}

// CancelRequest is the requester withdrawing their own request. A
// pending request simply closes; cancelling an accepted request also
// releases the reservation.
func (t *Tracker) CancelRequest(ctx context.Context, requestID, requesterID string) (*models.SwapRequest, error) {
	req, err := t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterId != requesterID {
		return nil, &models.ValidationError{Field: "requester_id", Reason: "request belongs to another user"}
	}

	unlock := t.locks.Lock(req.BookId)
	defer unlock()

	req, err = t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.State {
	case models.PENDING:
		cancelled, err := t.store.TransitionSwapRequestState(ctx, requestID, models.PENDING, models.CANCELLED)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel request %s: %w", requestID, err)
		}
		book, err := t.settleBookAfterClose(ctx, req.BookId, models.REQUESTED)
		if err != nil {
			return nil, err
		}
		t.publish(ctx, notify.MessageTypeSwapCancelled, cancelled, book)
		return cancelled, nil

	case models.ACCEPTED:
		cancelled, err := t.store.TransitionSwapRequestState(ctx, requestID, models.ACCEPTED, models.CANCELLED)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel request %s: %w", requestID, err)
		}
		book, err := t.settleBookAfterClose(ctx, req.BookId, models.RESERVED)
		if err != nil {
			return nil, err
		}
		t.publish(ctx, notify.MessageTypeSwapCancelled, cancelled, book)
		return cancelled, nil

	default:
		return nil, &models.InvalidStateError{Entity: "swap request", From: string(req.State), Op: "cancel"}
	}
}

// CompleteSwap marks an accepted swap as done. The book moves to
// SWAPPED and disappears from search results for good.
func (t *Tracker) CompleteSwap(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	req, err := t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := t.locks.Lock(req.BookId)
	defer unlock()

	req, err = t.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != models.ACCEPTED {
		return nil, &models.InvalidStateError{Entity: "swap request", From: string(req.State), Op: "complete"}
	}

	book, err := t.store.TransitionBookStatus(ctx, req.BookId, models.RESERVED, models.SWAPPED)
	if err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			return nil, &models.ConflictError{Reason: fmt.Sprintf("book %s is not reserved", req.BookId)}
		}
		return nil, fmt.Errorf("failed to mark book swapped: %w", err)
	}
	t.reindex(book)

	completed, err := t.store.TransitionSwapRequestState(ctx, requestID, models.ACCEPTED, models.COMPLETED)
	if err != nil {
		return nil, fmt.Errorf("failed to complete request %s: %w", requestID, err)
	}

	t.publish(ctx, notify.MessageTypeSwapCompleted, completed, book)
	return completed, nil
}

// ExpireReservation releases a reservation whose accepted requester
// never completed the swap. It reports whether anything was expired;
// a request that already completed or was cancelled is left alone.
func (t *Tracker) ExpireReservation(ctx context.Context, requestID string) (bool, error) {
	req, err := t.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}

	unlock := t.locks.Lock(req.BookId)
	defer unlock()

	req, err = t.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	if req.State != models.ACCEPTED {
		return false, nil
	}

	cancelled, err := t.store.TransitionSwapRequestState(ctx, requestID, models.ACCEPTED, models.CANCELLED)
	if err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			return false, nil
		}
		return false, fmt.Errorf("failed to expire request %s: %w", requestID, err)
	}

	book, err := t.settleBookAfterClose(ctx, req.BookId, models.RESERVED)
	if err != nil {
		return true, err
	}

	t.logger.Info("reservation expired", "requestId", requestID, "bookId", req.BookId)
	t.publish(ctx, notify.MessageTypeSwapCancelled, cancelled, book)
	return true, nil
}

// settleBookAfterClose recomputes a book's status after a request left
// the open set: back to REQUESTED while other pending requests remain
// (the next one is thereby re-surfaced), otherwise AVAILABLE.
func (t *Tracker) settleBookAfterClose(ctx context.Context, bookID string, from models.BookStatus) (*models.Book, error) {
	requests, err := t.store.ListSwapRequestsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for book %s: %w", bookID, err)
	}

	pending := 0
	for _, r := range requests {
		if r.State == models.PENDING {
			pending++
		}
	}

	to := models.AVAILABLE
	if pending > 0 {
		to = models.REQUESTED
	}
	if from == to {
		book, err := t.store.GetBook(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("failed to get book %s: %w", bookID, err)
		}
		return book, nil
	}

	book, err := t.store.TransitionBookStatus(ctx, bookID, from, to)
	if err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			return nil, &models.ConflictError{Reason: fmt.Sprintf("book %s changed state concurrently", bookID)}
		}
		return nil, fmt.Errorf("failed to settle book %s: %w", bookID, err)
	}
	t.reindex(book)
	return book, nil
}

func (t *Tracker) getRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	req, err := t.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &models.NotFoundError{Kind: "swap request", Id: requestID}
		}
		return nil, fmt.Errorf("failed to get swap request %s: %w", requestID, err)
	}
	return req, nil
}

func (t *Tracker) reindex(book *models.Book) {
	if t.index == nil || book == nil {
		return
	}
	if err := t.index.Upsert(*book); err != nil {
		t.logger.Error("failed to reindex book", "bookId", book.Id, "error", err)
	}
}

func (t *Tracker) publish(ctx context.Context, msgType notify.MessageType, req *models.SwapRequest, book *models.Book) {
	title := ""
	status := ""
	if book != nil {
		title = book.Title
		status = string(book.Status)
	}
	msg := notify.Message{
		Type: msgType,
		Payload: notify.SwapEventPayload{
			RequestID:   req.Id,
			BookID:      req.BookId,
			BookTitle:   title,
			OwnerID:     req.OwnerId,
			RequesterID: req.RequesterId,
			BookStatus:  status,
		},
	}
	if err := t.publisher.Publish(ctx, msg); err != nil {
		t.logger.Error("failed to publish swap event", "type", string(msgType), "requestId", req.Id, "error", err)
	}
}
