package http

import (
	"fmt"
	"net/http"
	"time"

	"bollette/internal/services"
)

// handleSummary returns the month totals for ?year= and ?month= (defaulting
// to the current month). Summaries are cached until the next mutation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("summary:%04d-%02d", year, month)

	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary := s.bills.Bills().FilterMonth(year, month).Summarize(year, month)
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

// handleExport streams the full collection as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bills := s.bills.Bills()
	bills.SortByDueDate()

	data, err := services.ExportCSV(bills)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", services.ExportFilename(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
