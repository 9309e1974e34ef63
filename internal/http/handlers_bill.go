package http

import (
	"fmt"
	"net/http"
	"strings"

	"bollette/internal/core"
	"bollette/internal/services"
)

// handleListBills returns the client-visible collection, optionally filtered
// by ?year= and ?month=.
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills := s.bills.Bills()
	bills.SortByDueDate()

	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		year, month := parseYearMonth(r)
		if q.Get("month") == "" {
			bills = bills.FilterYear(year)
		} else {
			bills = bills.FilterMonth(year, month)
		}
	}

	if bills == nil {
		bills = core.Collection{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	bill, _, err := parseBillRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inserted, err := s.bills.Create(r.Context(), bill)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, inserted)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	bill, opts, err := parseBillRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill.ID = id

	prev, ok := s.bills.Bills().ByID(id)
	if !ok {
		writeError(w, r, fmt.Errorf("bill %s: %w", id, core.ErrNotFound))
		return
	}

	// Keep series identity through the edit; the service decides whether it
	// survives based on the chosen path.
	bill.SeriesID = prev.SeriesID

	intent, err := services.DeriveEditIntent(prev.Recurring, bill.Recurring, opts.UpdateFuture, opts.Confirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.bills.Edit(r.Context(), bill, intent); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()

	updated, _ := s.bills.Bills().ByID(id)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	if err := s.bills.TogglePaid(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()

	bill, _ := s.bills.Bills().ByID(id)
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	if err := s.bills.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusNoContent, nil)
}

// handleRefresh forces a reconciliation against the remote store.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	changed, err := s.bills.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if changed {
		s.invalidateSummaries()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
