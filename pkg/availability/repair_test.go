package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookswap/pkg/models"
)

func (f *trackerFixture) addRequest(t *testing.T, id, bookID, requester string, state models.SwapRequestState) {
	t.Helper()
	_, err := f.store.CreateSwapRequest(context.Background(), &models.SwapRequest{
		Id:          id,
		BookId:      bookID,
		RequesterId: requester,
		OwnerId:     "owner",
		State:       state,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
}

func (f *trackerFixture) forceBookStatus(t *testing.T, bookID string, to models.BookStatus) {
	t.Helper()
	b, err := f.store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	_, err = f.store.TransitionBookStatus(context.Background(), bookID, b.Status, to)
	require.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	t.Run("Clean State Is Untouched", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.addBook(t, "b2", "owner")
		f.addRequest(t, "r1", "b2", "alice", models.PENDING)
		f.forceBookStatus(t, "b2", models.REQUESTED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, report.BooksChecked)
		assert.Equal(t, 0, report.DoubleAccepts)
		assert.Equal(t, 0, report.Resettled)
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b2"))
	})

	t.Run("Double Accept Demotes Both And Forces Requested", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.addRequest(t, "r1", "b1", "alice", models.ACCEPTED)
		f.addRequest(t, "r2", "b1", "bob", models.ACCEPTED)
		f.forceBookStatus(t, "b1", models.RESERVED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, report.DoubleAccepts)
		assert.Equal(t, models.PENDING, f.requestState(t, "r1"))
		assert.Equal(t, models.PENDING, f.requestState(t, "r2"))
		assert.Equal(t, models.REQUESTED, f.bookStatus(t, "b1"), "neither requester silently wins")
	})

	t.Run("Reserved Book Without Accepted Request Is Resettled", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.addRequest(t, "r1", "b1", "alice", models.CANCELLED)
		f.forceBookStatus(t, "b1", models.RESERVED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, report.Resettled)
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
		assert.Len(t, f.index.Search("", nil), 1, "the released book is searchable again")
	})

	t.Run("Requested Book Without Pending Requests Is Resettled", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.forceBookStatus(t, "b1", models.REQUESTED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, report.Resettled)
		assert.Equal(t, models.AVAILABLE, f.bookStatus(t, "b1"))
	})

	t.Run("Available Book With Accepted Request Is Reserved", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.addRequest(t, "r1", "b1", "alice", models.ACCEPTED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, report.Resettled)
		assert.Equal(t, models.RESERVED, f.bookStatus(t, "b1"))
	})

	t.Run("Swapped Books Are Skipped", func(t *testing.T) {
		f := newTrackerFixture(t)
		f.addBook(t, "b1", "owner")
		f.forceBookStatus(t, "b1", models.SWAPPED)

		report, err := f.tracker.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, report.Resettled)
		assert.Equal(t, models.SWAPPED, f.bookStatus(t, "b1"))
	})
}
