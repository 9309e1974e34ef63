package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bollette/internal/core"
	"bollette/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed body", fmt.Errorf("%w: oops", errMalformedBody), http.StatusBadRequest},
		{"not found", fmt.Errorf("bill x: %w", core.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("exists: %w", core.ErrDuplicateBill), http.StatusConflict},
		{"empty name", core.ErrEmptyName, http.StatusUnprocessableEntity},
		{"invalid frequency", fmt.Errorf("freq 5: %w", core.ErrInvalidFrequency), http.StatusUnprocessableEntity},
		{"recurrence on edit", services.ErrRecurrenceOnEdit, http.StatusUnprocessableEntity},
		{"network failure", fmt.Errorf("select: %w", core.ErrNetworkFailure), http.StatusBadGateway},
		{"remote operation", fmt.Errorf("update: %w", core.ErrRemoteOperation), http.StatusBadGateway},
		{"missing configuration", core.ErrMissingConfiguration, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bills", nil)

	writeError(rec, req, errors.New("sql: connection string contains password"))

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("internal error leaked: %q", body.Error)
	}
}

func TestWriteError_ExposesUserErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", nil)

	writeError(rec, req, fmt.Errorf("bill %q already exists: %w", "Netflix", core.ErrDuplicateBill))

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" || body.Error == http.StatusText(http.StatusConflict) {
		t.Errorf("user error message lost: %q", body.Error)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "{\"n\":1}\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
