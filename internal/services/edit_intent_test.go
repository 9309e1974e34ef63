package services

import (
	"errors"
	"testing"
)

func TestDeriveEditIntent(t *testing.T) {
	tests := []struct {
		name         string
		wasRecurring bool
		isRecurring  bool
		updateFuture bool
		confirmed    bool
		want         EditIntent
		wantErr      error
	}{
		{
			name: "one-off stays one-off",
			want: EditSimple,
		},
		{
			name:        "recurrence cannot be enabled on edit",
			isRecurring: true,
			wantErr:     ErrRecurrenceOnEdit,
		},
		{
			name:         "recurrence off, confirmed",
			wasRecurring: true,
			confirmed:    true,
			want:         EditDropSeries,
		},
		{
			name:         "recurrence off, not confirmed leaves remnants",
			wasRecurring: true,
			want:         EditSimple,
		},
		{
			name:         "just this occurrence",
			wasRecurring: true,
			isRecurring:  true,
			want:         EditSingleOccurrence,
		},
		{
			name:         "apply to future occurrences",
			wasRecurring: true,
			isRecurring:  true,
			updateFuture: true,
			want:         EditRegenerateSeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveEditIntent(tt.wasRecurring, tt.isRecurring, tt.updateFuture, tt.confirmed)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DeriveEditIntent() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveEditIntent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DeriveEditIntent() = %s, want %s", got, tt.want)
			}
		})
	}
}
