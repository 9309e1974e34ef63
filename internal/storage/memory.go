package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"bollette/internal/core"
)

// MemoryStore is an in-memory Store used by tests and as the default dev
// backend. It honors the same contract as SQLiteStore, including id
// assignment and the tail-deletion predicates.
type MemoryStore struct {
	mu     sync.Mutex
	bills  core.Collection
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Close() error { return nil }

// SelectAll implements Store.
func (s *MemoryStore) SelectAll(_ context.Context) (core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.bills.Clone()
	out.SortByDueDate()
	return out, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, bills []core.Bill) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Bill, 0, len(bills))
	for _, bill := range bills {
		bill.ID = "mem:" + strconv.FormatInt(s.nextID, 10)
		s.nextID++
		s.bills = append(s.bills, bill)
		out = append(out, bill)
	}
	return out, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, bill core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.bills.IndexOf(bill.ID)
	if idx < 0 {
		return fmt.Errorf("update bill %s: %w", bill.ID, core.ErrNotFound)
	}
	s.bills[idx] = bill
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.bills.IndexOf(id)
	if idx < 0 {
		return fmt.Errorf("delete bill %s: %w", id, core.ErrNotFound)
	}
	s.bills = append(s.bills[:idx], s.bills[idx+1:]...)
	return nil
}

// DeleteSeriesTail implements Store.
func (s *MemoryStore) DeleteSeriesTail(_ context.Context, seriesID string, after core.Date) (int64, error) {
	return s.deleteWhere(func(b core.Bill) bool {
		return b.SeriesID == seriesID && b.DueDate.After(after.Time)
	}), nil
}

// DeleteMatchingTail implements Store.
func (s *MemoryStore) DeleteMatchingTail(_ context.Context, name string, amount decimal.Decimal, after core.Date) (int64, error) {
	pivot := core.Bill{Name: name}
	return s.deleteWhere(func(b core.Bill) bool {
		return b.Recurring && pivot.SameName(b) && b.Amount.Equal(amount) && b.DueDate.After(after.Time)
	}), nil
}

func (s *MemoryStore) deleteWhere(match func(core.Bill) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept core.Collection
	var removed int64
	for _, b := range s.bills {
		if match(b) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	s.bills = kept
	return removed
}
