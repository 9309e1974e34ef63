package services

import (
	"fmt"

	"github.com/google/uuid"

	"bollette/internal/core"
)

// DefaultHorizonMonths is how far ahead a recurring bill is expanded when the
// caller does not ask for a specific horizon.
const DefaultHorizonMonths = 12

// ExpandSeries turns an anchor bill into the bounded sequence of occurrences
// of its recurrence series.
//
// The anchor's due date is occurrence zero. Occurrence i is due exactly
// freq.Months()*i calendar months after the anchor, with the day of month
// clamped to the target month's last day. startOffset selects the first
// occurrence to emit: 0 includes the anchor itself, 1 emits strictly-future
// siblings only. The number of emitted occurrences is
// ceil(horizonMonths/freq) plus one when the anchor is included.
//
// Every occurrence shares one series id, minted here when the anchor carries
// none. Only occurrence zero keeps the anchor's paid flag and store id; every
// sibling starts unpaid and unsaved.
//
// The function is pure: it never touches storage and the anchor is not
// mutated. The only failure mode is a frequency outside the closed set.
func ExpandSeries(anchor core.Bill, freq core.Frequency, horizonMonths, startOffset int) ([]core.Bill, error) {
	if !freq.IsValid() {
		return nil, fmt.Errorf("expand series %q: %w", anchor.Name, core.ErrInvalidFrequency)
	}
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}
	if startOffset < 0 {
		startOffset = 0
	}

	seriesID := anchor.SeriesID
	if seriesID == "" {
		seriesID = uuid.NewString()
	}

	// Occurrence indices run 0..ceil(horizon/freq); dropping the anchor via
	// startOffset narrows the window, it never shrinks the series itself.
	count := (horizonMonths+freq.Months()-1)/freq.Months() + 1

	occurrences := make([]core.Bill, 0, count-startOffset)
	for i := startOffset; i < count; i++ {
		occ := anchor
		occ.DueDate = anchor.DueDate.AddMonths(freq.Months() * i)
		occ.Recurring = true
		occ.Frequency = freq
		occ.SeriesID = seriesID
		if i != 0 {
			occ.ID = ""
			occ.Paid = false
		}
		occurrences = append(occurrences, occ)
	}

	return occurrences, nil
}
