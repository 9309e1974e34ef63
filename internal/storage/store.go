package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bollette/internal/core"
)

// Store is the remote bill table. Implementations translate between the
// domain model and their own wire representation; callers only ever see
// core.Bill.
//
// Series regeneration issues several independent calls against this
// interface. There is no transaction spanning them: a failure mid-sequence
// leaves the store ahead of the caller's local state, which is why the
// reconciliation layer re-fetches the full collection afterwards.
type Store interface {
	// SelectAll returns every bill ordered by due date ascending.
	SelectAll(ctx context.Context) (core.Collection, error)

	// Insert persists one or more bills and returns them with their
	// store-assigned identifiers, in input order.
	Insert(ctx context.Context, bills []core.Bill) ([]core.Bill, error)

	// Update replaces every mutable field of the bill identified by its ID.
	Update(ctx context.Context, bill core.Bill) error

	// Delete removes a single bill by id.
	Delete(ctx context.Context, id string) error

	// DeleteSeriesTail removes every bill of the series due strictly after
	// the given date, returning the number of removed rows.
	DeleteSeriesTail(ctx context.Context, seriesID string, after core.Date) (int64, error)

	// DeleteMatchingTail is the legacy-series variant of DeleteSeriesTail:
	// it matches recurring bills by case-insensitive name and exact amount.
	DeleteMatchingTail(ctx context.Context, name string, amount decimal.Decimal, after core.Date) (int64, error)

	Close() error
}

// remoteFailure tags a store error with the remote-operation sentinel so
// callers can classify it with errors.Is while keeping the driver detail in
// the message.
func remoteFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, core.ErrRemoteOperation, err)
}
