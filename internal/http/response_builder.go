package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bollette/internal/core"
	"bollette/internal/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps a service error onto the HTTP status space: validation
// problems are the client's fault, remote store failures are a bad gateway,
// anything else is internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status >= 500 {
		// Internal details stay in the logs.
		msg = http.StatusText(status)
	}

	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"status", status,
			"error", err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected",
			"method", r.Method,
			"url", r.URL.Path,
			"status", status,
			"error", err)
	}

	writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateBill):
		return http.StatusConflict
	case services.IsUserError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNetworkFailure), errors.Is(err, core.ErrRemoteOperation):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrMissingConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
