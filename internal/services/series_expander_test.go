package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bollette/internal/core"
)

func anchorBill() core.Bill {
	return core.Bill{
		ID:       "42",
		Name:     "Netflix",
		Amount:   decimal.NewFromFloat(12.99),
		DueDate:  core.NewDate(2024, 3, 5),
		Paid:     true,
		Category: core.CategoryMedia,
	}
}

func TestExpandSeries_OccurrenceCounts(t *testing.T) {
	tests := []struct {
		freq        core.Frequency
		startOffset int
		want        int
	}{
		{freq: core.Monthly, startOffset: 0, want: 13},
		{freq: core.Monthly, startOffset: 1, want: 12},
		{freq: core.Quarterly, startOffset: 0, want: 5},
		{freq: core.Quarterly, startOffset: 1, want: 4},
		{freq: core.Semiannual, startOffset: 0, want: 3},
		{freq: core.Semiannual, startOffset: 1, want: 2},
		{freq: core.Annual, startOffset: 0, want: 2},
		{freq: core.Annual, startOffset: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.freq.String(), func(t *testing.T) {
			got, err := ExpandSeries(anchorBill(), tt.freq, 12, tt.startOffset)
			if err != nil {
				t.Fatalf("ExpandSeries() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ExpandSeries(freq=%d, offset=%d) produced %d occurrences, want %d",
					tt.freq, tt.startOffset, len(got), tt.want)
			}
		})
	}
}

func TestExpandSeries_SharedSeriesAndSpacing(t *testing.T) {
	got, err := ExpandSeries(anchorBill(), core.Quarterly, 12, 0)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}

	seriesID := got[0].SeriesID
	if seriesID == "" {
		t.Fatal("ExpandSeries() did not mint a series id")
	}
	anchor := anchorBill()
	for i, occ := range got {
		if occ.SeriesID != seriesID {
			t.Errorf("occurrence %d has series id %q, want %q", i, occ.SeriesID, seriesID)
		}
		if !occ.Recurring || occ.Frequency != core.Quarterly {
			t.Errorf("occurrence %d lost recurrence flags: %+v", i, occ)
		}
		want := anchor.DueDate.AddMonths(3 * i)
		if !occ.DueDate.Equal(want) {
			t.Errorf("occurrence %d due %s, want %s", i, occ.DueDate, want)
		}
		if i > 0 && !got[i-1].DueDate.Before(occ.DueDate.Time) {
			t.Errorf("due dates not strictly increasing at %d", i)
		}
	}
}

func TestExpandSeries_PaidInheritance(t *testing.T) {
	got, err := ExpandSeries(anchorBill(), core.Monthly, 12, 0)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}
	if !got[0].Paid {
		t.Error("occurrence 0 did not inherit the anchor's paid flag")
	}
	if got[0].ID != "42" {
		t.Errorf("occurrence 0 lost the anchor id: %q", got[0].ID)
	}
	for i, occ := range got[1:] {
		if occ.Paid {
			t.Errorf("occurrence %d generated as paid", i+1)
		}
		if occ.ID != "" {
			t.Errorf("occurrence %d carries id %q, want unsaved", i+1, occ.ID)
		}
	}
}

func TestExpandSeries_StrictlyFutureOffset(t *testing.T) {
	got, err := ExpandSeries(anchorBill(), core.Monthly, 12, 1)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}
	anchor := anchorBill()
	for i, occ := range got {
		if !occ.DueDate.After(anchor.DueDate.Time) {
			t.Errorf("occurrence %d due %s is not strictly after the anchor", i, occ.DueDate)
		}
		if occ.Paid {
			t.Errorf("occurrence %d generated as paid", i)
		}
	}
}

func TestExpandSeries_KeepsSuppliedSeriesID(t *testing.T) {
	anchor := anchorBill()
	anchor.SeriesID = "series-keep"
	got, err := ExpandSeries(anchor, core.Monthly, 12, 1)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}
	for i, occ := range got {
		if occ.SeriesID != "series-keep" {
			t.Errorf("occurrence %d series id = %q, want series-keep", i, occ.SeriesID)
		}
	}
}

func TestExpandSeries_MonthEndClamping(t *testing.T) {
	anchor := anchorBill()
	anchor.DueDate = core.NewDate(2024, 1, 31)

	got, err := ExpandSeries(anchor, core.Monthly, 12, 0)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}

	// Each occurrence steps from the anchor, not from the previous clamped
	// date, so a 31st reappears whenever the target month allows it.
	wants := []core.Date{
		core.NewDate(2024, 1, 31),
		core.NewDate(2024, 2, 29),
		core.NewDate(2024, 3, 31),
		core.NewDate(2024, 4, 30),
	}
	for i, want := range wants {
		if !got[i].DueDate.Equal(want) {
			t.Errorf("occurrence %d due %s, want %s", i, got[i].DueDate, want)
		}
	}
}

func TestExpandSeries_InvalidFrequency(t *testing.T) {
	for _, freq := range []core.Frequency{0, 2, 5, 13} {
		if _, err := ExpandSeries(anchorBill(), freq, 12, 0); !errors.Is(err, core.ErrInvalidFrequency) {
			t.Errorf("ExpandSeries(freq=%d) = %v, want ErrInvalidFrequency", freq, err)
		}
	}
}

func TestExpandSeries_DefaultHorizon(t *testing.T) {
	got, err := ExpandSeries(anchorBill(), core.Monthly, 0, 1)
	if err != nil {
		t.Fatalf("ExpandSeries() error = %v", err)
	}
	if len(got) != 12 {
		t.Errorf("ExpandSeries() with zero horizon produced %d occurrences, want 12", len(got))
	}
}
