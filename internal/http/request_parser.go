package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bollette/internal/core"
)

// errMalformedBody marks bodies that could not be decoded at all, as opposed
// to well-formed bodies with invalid field values.
var errMalformedBody = errors.New("malformed request body")

// billPayload is the JSON shape accepted on create and update. Amount comes
// in as a string so localized comma separators survive the transport.
type billPayload struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
	IsPaid      bool   `json:"isPaid"`
	IsRecurring bool   `json:"isRecurring"`
	Frequency   int    `json:"frequency"`
	Category    string `json:"category"`
}

// editOptions carries the flags that select the edit reconciliation path.
type editOptions struct {
	UpdateFuture bool `json:"updateFuture"`
	Confirmed    bool `json:"confirmed"`
}

type billRequest struct {
	billPayload
	editOptions
}

// parseBillRequest decodes and validates the request body into a bill.
func parseBillRequest(r *http.Request) (core.Bill, editOptions, error) {
	var req billRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.Bill{}, editOptions{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	bill := core.Bill{
		Name:      sanitizeInput(req.Name),
		Paid:      req.IsPaid,
		Recurring: req.IsRecurring,
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Bill{}, editOptions{}, err
	}
	bill.Amount = amount

	due, err := core.ParseDate(sanitizeInput(req.DueDate))
	if err != nil {
		return core.Bill{}, editOptions{}, err
	}
	bill.DueDate = due

	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Bill{}, editOptions{}, err
	}
	bill.Category = category

	if req.IsRecurring {
		freq, err := core.ParseFrequency(req.Frequency)
		if err != nil {
			return core.Bill{}, editOptions{}, err
		}
		bill.Frequency = freq
	}

	if err := bill.Validate(); err != nil {
		return core.Bill{}, editOptions{}, err
	}

	return bill, req.editOptions, nil
}

// parseYearMonth extracts year and month from query parameters, defaulting to
// the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}
