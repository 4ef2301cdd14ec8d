package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage/memory"
)

type trackerFixture struct {
	store   *memory.Store
	index   *catalog.Index
	tracker *Tracker
}

func newTrackerFixture(t *testing.T, opts ...Option) *trackerFixture {
	t.Helper()
	f := &trackerFixture{store: memory.New(), index: catalog.New()}
	f.tracker = NewTracker(f.store, f.index, nil, opts...)
	return f
}

func (f *trackerFixture) addBook(t *testing.T, id, owner string) *models.Book {
	t.Helper()
	b := &models.Book{Id: id, Title: "Title " + id, Author: "Author", OwnerId: owner, Status: models.AVAILABLE, ListedAt: time.Now()}
	_, err := f.store.CreateBook(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, f.index.Upsert(*b))
	return b
}

func (f *trackerFixture) bookStatus(t *testing.T, bookID string) models.BookStatus {
	t.Helper()
	b, err := f.store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	return b.Status
}

func (f *trackerFixture) requestState(t *testing.T, requestID string) models.SwapRequestState {
	t.Helper()
	r, err := f.store.GetSwapRequest(context.Background(), requestID)
	require.NoError(t, err)
	return r.State
}

func TestRequestSwap(t *testing.T) {
	t.Run("First Request Moves Book To Requested", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")

		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")

		require.NoError(t, err)
		assert.Equal(t, models.PENDING, req.State)
		assert.Equal(t, "owner", req.OwnerId)
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b1"))
		assert.Empty(t, f.index.Search("", nil), "a requested book leaves search results")
	})

	t.Run("Second Request Keeps Book Requested", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")

		_, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		req2, err := f.tracker.RequestSwap(context.Background(), "b1", "bob")

		require.NoError(t, err)
		assert.Equal(t, models.PENDING, req2.State)
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b1"))
	})

	t.Run("Own Book", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")

		_, err := f.tracker.RequestSwap(context.Background(), "b1", "owner")

		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("Unknown Book", func(t *testing.T) {
		f := newTrackerFixture(t)

		_, err := f.tracker.RequestSwap(context.Background(), "missing", "alice")

		var nf *models.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("Reserved Book", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)
		require.NoError(t, err)

		_, err = f.tracker.RequestSwap(context.Background(), "b1", "bob")

		var ce *models.ConflictError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestAcceptRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)

		accepted, err := f.tracker.AcceptRequest(context.Background(), req.Id)

		require.NoError(t, err)
		assert.Equal(t, models.ACCEPTED, accepted.State)
		assert.Equal(t, models.RESERVED, f.bookStatus(t, "b1"))
	})

	t.Run("Second Accept Conflicts", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req1, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		req2, err := f.tracker.RequestSwap(context.Background(), "b1", "bob")
		require.NoError(t, err)

		_, err = f.tracker.AcceptRequest(context.Background(), req1.Id)
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req2.Id)

		var ce *models.ConflictError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, models.RESERVED, f.bookStatus(t, "b1"))
		assert.Equal(t, models.PENDING, f.requestState(t, req2.Id), "the losing request stays open")
	})

	t.Run("Concurrent Accepts On One Book", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req1, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		req2, err := f.tracker.RequestSwap(context.Background(), "b1", "bob")
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []string{req1.Id, req2.Id} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, errs[i] = f.tracker.AcceptRequest(context.Background(), id)
			}(i, id)
		}
		wg.Wait()

		var accepted, conflicted int
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			var ce *models.ConflictError
			if errors.As(err, &ce) {
				conflicted++
			}
		}
		assert.Equal(t, 1, accepted, "exactly one accept wins")
		assert.Equal(t, 1, conflicted, "the other observes a conflict")
		assert.Equal(t, models.RESERVED, f.bookStatus(t, "b1"))
	})

	t.Run("Non Pending Request", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.DeclineRequest(context.Background(), req.Id)
		require.NoError(t, err)

		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)

		var ise *models.InvalidStateError
		assert.ErrorAs(t, err, &ise)
	})
}

func TestDeclineRequest(t *testing.T) {
	t.Run("Last Pending Returns Book To Available", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)

		declined, err := f.tracker.DeclineRequest(context.Background(), req.Id)

		require.NoError(t, err)
		assert.Equal(t, models.DECLINED, declined.State)
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
		assert.Len(t, f.index.Search("", nil), 1, "the book is searchable again")
	})

	t.Run("Remaining Pending Keeps Book Requested", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req1, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.RequestSwap(context.Background(), "b1", "bob")
		require.NoError(t, err)

		_, err = f.tracker.DeclineRequest(context.Background(), req1.Id)

		require.NoError(t, err)
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b1"))
	})
}

func TestCancelRequest(t *testing.T) {
	t.Run("Pending Cancel", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)

		cancelled, err := f.tracker.CancelRequest(context.Background(), req.Id, "alice")

		require.NoError(t, err)
		assert.Equal(t, models.CANCELLED, cancelled.State)
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
	})

	t.Run("Accepted Cancel Releases Reservation", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.RequestSwap(context.Background(), "b1", "bob")
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)
		require.NoError(t, err)

		_, err = f.tracker.CancelRequest(context.Background(), req.Id, "alice")

		require.NoError(t, err)
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b1"), "bob's pending request re-surfaces")
	})

	t.Run("Wrong Requester", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)

		_, err = f.tracker.CancelRequest(context.Background(), req.Id, "mallory")

		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, models.PENDING, f.requestState(t, req.Id))
	})

	t.Run("Terminal State", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.DeclineRequest(context.Background(), req.Id)
		require.NoError(t, err)

		_, err = f.tracker.CancelRequest(context.Background(), req.Id, "alice")

		var ise *models.InvalidStateError
		assert.ErrorAs(t, err, &ise)
	})
}

func TestCompleteSwap(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)
		require.NoError(t, err)

		completed, err := f.tracker.CompleteSwap(context.Background(), req.Id)

		require.NoError(t, err)
		assert.Equal(t, models.COMPLETED, completed.State)
		assert.Equal(t, models.SWAPPED, f.bookStatus(t, "b1"))
		assert.Empty(t, f.index.Search("", nil))
	})

	t.Run("Pending Request", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)

		_, err = f.tracker.CompleteSwap(context.Background(), req.Id)

		var ise *models.InvalidStateError
		assert.ErrorAs(t, err, &ise)
	})
}

func TestExpireReservation(t *testing.T) {
	t.Run("Expires Accepted Request", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)
		require.NoError(t, err)

		expired, err := f.tracker.ExpireReservation(context.Background(), req.Id)

		require.NoError(t, err)
		assert.True(t, expired)
		assert.Equal(t, models.CANCELLED, f.requestState(t, req.Id))
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
	})

	t.Run("Completed Request Is Left Alone", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
		require.NoError(t, err)
		_, err = f.tracker.AcceptRequest(context.Background(), req.Id)
		require.NoError(t, err)
		_, err = f.tracker.CompleteSwap(context.Background(), req.Id)
		require.NoError(t, err)

		expired, err := f.tracker.ExpireReservation(context.Background(), req.Id)

		require.NoError(t, err)
		assert.False(t, expired)
		assert.Equal(t, models.COMPLETED, f.requestState(t, req.Id))
		assert.Equal(t, models.SWAPPED, f.bookStatus(t, "b1"))
	})
}

type recordingScheduler struct {
	mu       sync.Mutex
	requests []string
	delays   []time.Duration
}

func (r *recordingScheduler) ScheduleExpiry(_ context.Context, req *models.SwapRequest, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req.Id)
	r.delays = append(r.delays, delay)
	return nil
}

func TestAcceptSchedulesExpiry(t *testing.T) {
	sched := &recordingScheduler{}
	f := newTrackerFixture(t, WithScheduler(sched), WithReservationTTL(time.Hour))
	f.addBook(t, "b1", "owner")
	req, err := f.tracker.RequestSwap(context.Background(), "b1", "alice")
	require.NoError(t, err)

	_, err = f.tracker.AcceptRequest(context.Background(), req.Id)

	require.NoError(t, err)
	require.Len(t, sched.requests, 1)
	assert.Equal(t, req.Id, sched.requests[0])
	assert.Equal(t, time.Hour, sched.delays[0])
}
