package services

import (
	"bollette/internal/core"
)

// TailMatcher decides whether a candidate bill belongs to the same recurrence
// series as a pivot bill. Two strategies exist: exact series-id equality for
// bills created after series tracking, and a name+amount heuristic for legacy
// recurring bills that predate it.
//
// The heuristic has a real collision risk (two unrelated bills with the same
// name and amount are indistinguishable from a split series), which is why it
// lives behind this interface instead of being inlined at the call sites.
type TailMatcher interface {
	// SameSeries reports whether candidate is an occurrence of pivot's series.
	SameSeries(pivot, candidate core.Bill) bool
}

// SeriesIDMatcher matches strictly on series-id equality.
type SeriesIDMatcher struct{}

func (SeriesIDMatcher) SameSeries(pivot, candidate core.Bill) bool {
	return pivot.SeriesID != "" && candidate.SeriesID == pivot.SeriesID
}

// NameAmountMatcher is the legacy fallback for recurring bills without a
// series id: same name (case-insensitive, trimmed) and same amount.
type NameAmountMatcher struct{}

func (NameAmountMatcher) SameSeries(pivot, candidate core.Bill) bool {
	return candidate.Recurring && pivot.SameName(candidate) && pivot.Amount.Equal(candidate.Amount)
}

// MatcherFor picks the matching strategy appropriate for the pivot bill.
func MatcherFor(pivot core.Bill) TailMatcher {
	if pivot.SeriesID != "" {
		return SeriesIDMatcher{}
	}
	return NameAmountMatcher{}
}

// SeriesTail returns the sibling occurrences in coll that belong to pivot's
// series and are due strictly after the pivot. Earlier and same-day siblings
// are never part of the tail.
func SeriesTail(coll core.Collection, pivot core.Bill) core.Collection {
	matcher := MatcherFor(pivot)
	var tail core.Collection
	for _, b := range coll {
		if b.ID == pivot.ID {
			continue
		}
		if matcher.SameSeries(pivot, b) && b.DueDate.After(pivot.DueDate.Time) {
			tail = append(tail, b)
		}
	}
	return tail
}
