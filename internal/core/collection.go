package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Collection is the full set of a user's bills. The presentation layer works
// on plain queries over this slice; nothing here touches storage.
type Collection []Bill

// CategoryAmount is one row of a per-category breakdown.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary aggregates a filtered set of bills for display.
type Summary struct {
	Year       int              `json:"year"`
	Month      int              `json:"month,omitempty"`
	Count      int              `json:"count"`
	Total      decimal.Decimal  `json:"total"`
	Paid       decimal.Decimal  `json:"paid"`
	Unpaid     decimal.Decimal  `json:"unpaid"`
	ByCategory []CategoryAmount `json:"byCategory,omitempty"`
}

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// SortByDueDate orders the collection by due date ascending, name as a
// tie-breaker so the order is stable across refreshes.
func (c Collection) SortByDueDate() {
	sort.SliceStable(c, func(i, j int) bool {
		if !c[i].DueDate.Equal(c[j].DueDate) {
			return c[i].DueDate.Before(c[j].DueDate.Time)
		}
		return c[i].Name < c[j].Name
	})
}

// FilterMonth returns the bills due in the given year and month.
func (c Collection) FilterMonth(year, month int) Collection {
	var out Collection
	for _, b := range c {
		if b.DueDate.Year() == year && b.DueDate.Month() == month {
			out = append(out, b)
		}
	}
	return out
}

// FilterYear returns the bills due in the given year.
func (c Collection) FilterYear(year int) Collection {
	var out Collection
	for _, b := range c {
		if b.DueDate.Year() == year {
			out = append(out, b)
		}
	}
	return out
}

// ByID finds a bill by its store-assigned identifier.
func (c Collection) ByID(id string) (Bill, bool) {
	for _, b := range c {
		if b.ID == id {
			return b, true
		}
	}
	return Bill{}, false
}

// IndexOf returns the position of the bill with the given id, or -1.
func (c Collection) IndexOf(id string) int {
	for i, b := range c {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// FindConflict returns the first bill occupying the same (name, month, year)
// slot as the candidate, per the duplicate-guard invariant. The candidate
// itself is skipped by ID, so the guard works for edits as well as creates.
func (c Collection) FindConflict(candidate Bill) (Bill, bool) {
	for _, b := range c {
		if candidate.ConflictsWith(b) {
			return b, true
		}
	}
	return Bill{}, false
}

// Summarize computes totals over the collection. Month may be zero for a
// yearly summary.
func (c Collection) Summarize(year, month int) Summary {
	s := Summary{
		Year:   year,
		Month:  month,
		Count:  len(c),
		Total:  decimal.Zero,
		Paid:   decimal.Zero,
		Unpaid: decimal.Zero,
	}
	byCat := make(map[Category]decimal.Decimal)
	for _, b := range c {
		s.Total = s.Total.Add(b.Amount)
		if b.Paid {
			s.Paid = s.Paid.Add(b.Amount)
		} else {
			s.Unpaid = s.Unpaid.Add(b.Amount)
		}
		byCat[b.Category] = byCat[b.Category].Add(b.Amount)
	}
	// Stable category order, skipping empty buckets.
	for _, cat := range Categories() {
		if amount, ok := byCat[cat]; ok {
			s.ByCategory = append(s.ByCategory, CategoryAmount{Category: cat, Amount: amount})
		}
	}
	return s
}
