package services

import (
	"errors"
)

// EditIntent names the reconciliation path an edit takes. The original
// branching on (wasRecurring, isNowRecurring, updateFuture) pairs is modeled
// as an explicit variant so every path is spelled out at the call sites.
type EditIntent int

const (
	// EditSimple replaces one bill's fields, remotely and in the mirror.
	// This is the path for one-off bills, and for turning recurrence off
	// without confirming tail deletion (the remnant occurrences are left
	// dangling on purpose).
	EditSimple EditIntent = iota

	// EditDropSeries turns recurrence off with confirmation: the series tail
	// after the edited bill is deleted, then the bill itself is updated with
	// its series membership cleared.
	EditDropSeries

	// EditSingleOccurrence changes one occurrence of a recurring bill and
	// leaves the siblings alone, even if they now disagree with it.
	EditSingleOccurrence

	// EditRegenerateSeries updates the edited bill, drops the old tail and
	// regenerates it from the edited bill's new price and frequency.
	EditRegenerateSeries
)

// ErrRecurrenceOnEdit is returned when an edit tries to turn a one-off bill
// into a recurring one; series creation only happens on the create path.
var ErrRecurrenceOnEdit = errors.New("recurrence can only be enabled when creating a bill")

func (i EditIntent) String() string {
	switch i {
	case EditSimple:
		return "simple"
	case EditDropSeries:
		return "drop_series"
	case EditSingleOccurrence:
		return "single_occurrence"
	case EditRegenerateSeries:
		return "regenerate_series"
	default:
		return "unknown"
	}
}

// DeriveEditIntent maps the user's answers onto an intent. confirmed is the
// answer to the "also delete future occurrences?" prompt when recurrence is
// being turned off; updateFuture is the "apply to future occurrences?" choice
// when it stays on.
func DeriveEditIntent(wasRecurring, isRecurring, updateFuture, confirmed bool) (EditIntent, error) {
	switch {
	case !wasRecurring && !isRecurring:
		return EditSimple, nil
	case !wasRecurring && isRecurring:
		return 0, ErrRecurrenceOnEdit
	case wasRecurring && !isRecurring:
		if confirmed {
			return EditDropSeries, nil
		}
		return EditSimple, nil
	case updateFuture:
		return EditRegenerateSeries, nil
	default:
		return EditSingleOccurrence, nil
	}
}
