package availability

import (
	"context"
	"fmt"

	"github.com/openshelf/bookswap/pkg/models"
)

// RepairReport summarizes what a reconciliation pass found and fixed.
type RepairReport struct {
	BooksChecked  int
	DoubleAccepts int
	Resettled     int
}

// Reconcile scans every book for invariant violations and repairs them.
// The one condition treated as fatal data corruption is two ACCEPTED
// requests on one book: it is logged loudly, every accepted request is
// demoted back to PENDING, and the book is forced to REQUESTED so all
// requests re-surface for the owner to re-decide. It is never resolved
// silently in favor of either requester. Milder drift (a RESERVED book
// with no accepted request, a REQUESTED book with no pending requests)
// is settled back to the status its request set implies.
func (t *Tracker) Reconcile(ctx context.Context) (*RepairReport, error) {
	books, err := t.store.LoadAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load books for reconciliation: %w", err)
	}

	report := &RepairReport{}
	for i := range books {
		book := books[i]
		report.BooksChecked++

		unlock := t.locks.Lock(book.Id)
		if err := t.reconcileBook(ctx, book.Id, report); err != nil {
			t.logger.Error("failed to reconcile book", "bookId", book.Id, "error", err)
		}
		unlock()
	}
	return report, nil
}

func (t *Tracker) reconcileBook(ctx context.Context, bookID string, report *RepairReport) error {
	book, err := t.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book.Status == models.SWAPPED {
		return nil
	}

	requests, err := t.store.ListSwapRequestsByBook(ctx, bookID)
	if err != nil {
		return err
	}

	var accepted []models.SwapRequest
	pending := 0
	for _, r := range requests {
		switch r.State {
		case models.ACCEPTED:
			accepted = append(accepted, r)
		case models.PENDING:
			pending++
		}
	}

	if len(accepted) > 1 {
		report.DoubleAccepts++
		t.logger.Error("invariant violation: multiple accepted requests on one book",
			"bookId", bookID, "acceptedCount", len(accepted))

		for _, r := range accepted {
			if _, err := t.store.TransitionSwapRequestState(ctx, r.Id, models.ACCEPTED, models.PENDING); err != nil {
				t.logger.Error("failed to demote accepted request", "requestId", r.Id, "error", err)
			}
		}
		if book.Status != models.REQUESTED {
			forced, err := t.store.TransitionBookStatus(ctx, bookID, book.Status, models.REQUESTED)
			if err != nil {
				return fmt.Errorf("failed to force book %s back to requested: %w", bookID, err)
			}
			t.reindex(forced)
		}
		return nil
	}

	// Single source of truth: the request set implies the status.
	want := models.AVAILABLE
	switch {
	case len(accepted) == 1:
		want = models.RESERVED
	case pending > 0:
		want = models.REQUESTED
	}

	if book.Status != want {
		report.Resettled++
		t.logger.Warn("book status drifted from its request set",
			"bookId", bookID, "status", string(book.Status), "want", string(want))
		settled, err := t.store.TransitionBookStatus(ctx, bookID, book.Status, want)
		if err != nil {
			return fmt.Errorf("failed to resettle book %s: %w", bookID, err)
		}
		t.reindex(settled)
	}
	return nil
}
