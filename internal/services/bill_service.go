package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bollette/internal/core"
	"bollette/internal/mirror"
	"bollette/internal/storage"
)

// RefreshNotifier announces that the mirror should be reconciled against the
// remote store. A nil notifier is valid and simply disables announcements.
type RefreshNotifier interface {
	PublishRefresh(ctx context.Context, reason string) error
}

// BillService is the reconciliation controller: every bill mutation goes
// through here so the remote store and the local mirror stay consistent
// across the create, edit, toggle-paid and delete paths.
type BillService struct {
	store         storage.Store
	mirror        *mirror.Mirror
	notifier      RefreshNotifier
	horizonMonths int
}

func NewBillService(store storage.Store, m *mirror.Mirror, notifier RefreshNotifier) *BillService {
	return &BillService{
		store:         store,
		mirror:        m,
		notifier:      notifier,
		horizonMonths: DefaultHorizonMonths,
	}
}

// SetHorizonMonths overrides how far ahead recurring series are expanded.
// Values below one month are ignored.
func (s *BillService) SetHorizonMonths(months int) {
	if months > 0 {
		s.horizonMonths = months
	}
}

// Bills returns the client-visible collection (the mirror's copy).
func (s *BillService) Bills() core.Collection {
	return s.mirror.Collection()
}

// Refresh performs the stale-while-revalidate reconciliation: fetch the full
// remote collection, compare its serialized form byte-for-byte against the
// mirror blob and adopt it only when it differs. A fetch failure while the
// mirror already holds data is logged and suppressed; the stale mirror stays
// authoritative until the next successful sync.
func (s *BillService) Refresh(ctx context.Context) (changed bool, err error) {
	remote, err := s.store.SelectAll(ctx)
	if err != nil {
		if len(s.mirror.Collection()) > 0 {
			slog.WarnContext(ctx, "Remote fetch failed, keeping stale mirror", "error", err)
			return false, nil
		}
		return false, fmt.Errorf("refresh bills: %w", err)
	}

	changed, err = s.mirror.ReplaceIfChanged(remote)
	if err != nil {
		return false, fmt.Errorf("refresh bills: %w", err)
	}
	if changed {
		slog.InfoContext(ctx, "Mirror updated from remote store", "count", len(remote))
	}
	return changed, nil
}

// Create persists a new bill. A recurring bill is expanded into its full
// series and batch-inserted; the mirror only adopts the occurrences after the
// store confirms and returns their identifiers.
func (s *BillService) Create(ctx context.Context, bill core.Bill) ([]core.Bill, error) {
	bill.ID = ""
	if err := s.guardDuplicate(bill); err != nil {
		return nil, err
	}

	var toInsert []core.Bill
	if bill.Recurring {
		// A fresh series id is always minted at creation.
		bill.SeriesID = uuid.NewString()
		if err := bill.Validate(); err != nil {
			return nil, err
		}
		occurrences, err := ExpandSeries(bill, bill.Frequency, s.horizonMonths, 0)
		if err != nil {
			return nil, err
		}
		toInsert = occurrences
	} else {
		if err := bill.Validate(); err != nil {
			return nil, err
		}
		toInsert = []core.Bill{bill}
	}

	inserted, err := s.store.Insert(ctx, toInsert)
	if err != nil {
		return nil, fmt.Errorf("create bill %q: %w", bill.Name, err)
	}

	if err := s.mirror.Update(func(bills core.Collection) core.Collection {
		bills = append(bills, inserted...)
		bills.SortByDueDate()
		return bills
	}); err != nil {
		return inserted, err
	}

	slog.InfoContext(ctx, "Bill created",
		"name", bill.Name,
		"recurring", bill.Recurring,
		"occurrences", len(inserted))

	s.notifyRefresh(ctx, "create")
	return inserted, nil
}

// Edit applies one of the four reconciliation paths to an already persisted
// bill. The bill argument carries the fully edited field set.
func (s *BillService) Edit(ctx context.Context, bill core.Bill, intent EditIntent) error {
	if bill.ID == "" {
		return fmt.Errorf("edit bill: %w", core.ErrNotFound)
	}
	if err := s.guardDuplicate(bill); err != nil {
		return err
	}

	prev, ok := s.mirror.Collection().ByID(bill.ID)
	if !ok {
		return fmt.Errorf("edit bill %s: %w", bill.ID, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Editing bill",
		"id", bill.ID,
		"name", bill.Name,
		"intent", intent.String())

	switch intent {
	case EditSimple, EditSingleOccurrence:
		return s.updateSingle(ctx, bill)
	case EditDropSeries:
		return s.dropSeries(ctx, prev, bill)
	case EditRegenerateSeries:
		err := s.regenerateSeries(ctx, prev, bill)
		// The true post-state is only knowable remotely after the
		// update/delete/insert sequence, so re-fetch instead of trusting
		// incremental mirror patches, on failure paths included.
		if _, refreshErr := s.Refresh(ctx); refreshErr != nil {
			slog.ErrorContext(ctx, "Post-regeneration refresh failed", "error", refreshErr)
		}
		return err
	default:
		return fmt.Errorf("edit bill %s: unknown intent %d", bill.ID, intent)
	}
}

// updateSingle replaces one bill's fields remotely and patches the mirror row.
func (s *BillService) updateSingle(ctx context.Context, bill core.Bill) error {
	if err := bill.Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, bill); err != nil {
		return fmt.Errorf("update bill %s: %w", bill.ID, err)
	}
	if err := s.mirror.Update(replaceRow(bill)); err != nil {
		return err
	}
	s.notifyRefresh(ctx, "edit")
	return nil
}

// dropSeries deletes the future occurrences of the edited bill's series and
// then detaches the bill itself from the series. The tail is matched by
// series id, or by the legacy name+amount heuristic for series that predate
// series ids; the match always uses the pre-edit fields, since those are what
// the remnants carry.
func (s *BillService) dropSeries(ctx context.Context, prev, bill core.Bill) error {
	bill.Recurring = false
	bill.SeriesID = ""
	bill.Frequency = 0
	if err := bill.Validate(); err != nil {
		return err
	}

	removed, err := s.deleteTail(ctx, prev, bill.DueDate)
	if err != nil {
		return fmt.Errorf("drop series of bill %s: %w", bill.ID, err)
	}

	if err := s.store.Update(ctx, bill); err != nil {
		return fmt.Errorf("detach bill %s from series: %w", bill.ID, err)
	}

	pivot := prev
	pivot.DueDate = bill.DueDate
	if err := s.mirror.Update(func(bills core.Collection) core.Collection {
		bills = withoutTail(bills, pivot)
		return replaceRow(bill)(bills)
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Recurrence disabled",
		"id", bill.ID,
		"name", bill.Name,
		"tail_removed", removed)

	s.notifyRefresh(ctx, "drop_series")
	return nil
}

// regenerateSeries rebuilds the future tail of a series after a price,
// frequency or date change. The three remote steps are independent
// operations; there is no transaction across them.
func (s *BillService) regenerateSeries(ctx context.Context, prev, bill core.Bill) error {
	bill.Recurring = true
	if bill.SeriesID == "" {
		bill.SeriesID = prev.SeriesID
	}
	// A legacy series gains a real series id here so the regenerated tail
	// and its anchor are tied together from now on.
	if bill.SeriesID == "" {
		bill.SeriesID = uuid.NewString()
	}
	if err := bill.Validate(); err != nil {
		return err
	}

	if err := s.store.Update(ctx, bill); err != nil {
		return fmt.Errorf("update series anchor %s: %w", bill.ID, err)
	}

	if _, err := s.deleteTail(ctx, prev, bill.DueDate); err != nil {
		return fmt.Errorf("delete stale tail of bill %s: %w", bill.ID, err)
	}

	tail, err := ExpandSeries(bill, bill.Frequency, s.horizonMonths, 1)
	if err != nil {
		return err
	}
	if _, err := s.store.Insert(ctx, tail); err != nil {
		return fmt.Errorf("insert regenerated tail of bill %s: %w", bill.ID, err)
	}

	slog.InfoContext(ctx, "Series regenerated",
		"id", bill.ID,
		"name", bill.Name,
		"series_id", bill.SeriesID,
		"tail_size", len(tail))

	s.notifyRefresh(ctx, "regenerate_series")
	return nil
}

// TogglePaid flips the paid flag of exactly one bill, optimistically: the
// mirror is mutated first, and restored from its snapshot when the remote
// update fails.
func (s *BillService) TogglePaid(ctx context.Context, id string) error {
	bill, ok := s.mirror.Collection().ByID(id)
	if !ok {
		return fmt.Errorf("toggle paid %s: %w", id, core.ErrNotFound)
	}
	bill.Paid = !bill.Paid

	err := optimisticCommit(ctx, s.mirror,
		replaceRow(bill),
		func(ctx context.Context) error {
			return s.store.Update(ctx, bill)
		})
	if err != nil {
		return fmt.Errorf("toggle paid %s: %w", id, err)
	}

	s.notifyRefresh(ctx, "toggle_paid")
	return nil
}

// Delete removes exactly one bill row, optimistically. It is not
// series-aware: siblings of a recurring bill are untouched.
func (s *BillService) Delete(ctx context.Context, id string) error {
	if _, ok := s.mirror.Collection().ByID(id); !ok {
		return fmt.Errorf("delete bill %s: %w", id, core.ErrNotFound)
	}

	err := optimisticCommit(ctx, s.mirror,
		func(bills core.Collection) core.Collection {
			idx := bills.IndexOf(id)
			if idx < 0 {
				return bills
			}
			return append(bills[:idx], bills[idx+1:]...)
		},
		func(ctx context.Context) error {
			return s.store.Delete(ctx, id)
		})
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}

	s.notifyRefresh(ctx, "delete")
	return nil
}

// guardDuplicate enforces the one-bill-per-(name, month, year) rule against
// the client-visible collection. Advisory only: the store has no matching
// constraint, which is acceptable for a single-user client.
func (s *BillService) guardDuplicate(bill core.Bill) error {
	if conflict, found := s.mirror.Collection().FindConflict(bill); found {
		return fmt.Errorf("bill %q already exists for %d-%02d (id %s): %w",
			conflict.Name, conflict.DueDate.Year(), conflict.DueDate.Month(), conflict.ID, core.ErrDuplicateBill)
	}
	return nil
}

// deleteTail removes the remote occurrences of prev's series due strictly
// after the given date, choosing the predicate from prev's series identity.
func (s *BillService) deleteTail(ctx context.Context, prev core.Bill, after core.Date) (int64, error) {
	if prev.SeriesID != "" {
		return s.store.DeleteSeriesTail(ctx, prev.SeriesID, after)
	}
	return s.store.DeleteMatchingTail(ctx, prev.Name, prev.Amount, after)
}

func (s *BillService) notifyRefresh(ctx context.Context, reason string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishRefresh(ctx, reason); err != nil {
		slog.WarnContext(ctx, "Failed to publish refresh event",
			"reason", reason,
			"error", err)
	}
}

// replaceRow swaps the row with bill's id for bill and keeps the ordering.
func replaceRow(bill core.Bill) func(core.Collection) core.Collection {
	return func(bills core.Collection) core.Collection {
		idx := bills.IndexOf(bill.ID)
		if idx < 0 {
			bills = append(bills, bill)
		} else {
			bills[idx] = bill
		}
		bills.SortByDueDate()
		return bills
	}
}

// withoutTail drops the mirror-side occurrences of pivot's series due after
// the pivot date, mirroring the remote tail deletion.
func withoutTail(bills core.Collection, pivot core.Bill) core.Collection {
	tail := SeriesTail(bills, pivot)
	if len(tail) == 0 {
		return bills
	}
	drop := make(map[string]bool, len(tail))
	for _, b := range tail {
		drop[b.ID] = true
	}
	var kept core.Collection
	for _, b := range bills {
		if !drop[b.ID] {
			kept = append(kept, b)
		}
	}
	return kept
}

// IsUserError reports whether err should surface as a validation problem
// rather than a remote failure.
func IsUserError(err error) bool {
	return errors.Is(err, core.ErrDuplicateBill) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidFrequency) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, ErrRecurrenceOnEdit)
}
