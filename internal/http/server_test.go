package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bollette/internal/core"
	"bollette/internal/mirror"
	"bollette/internal/services"
	"bollette/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := services.NewBillService(store, mirror.New(mirror.NewMemoryBlobStore()), nil)
	srv := NewServer(":0", svc)
	t.Cleanup(func() { srv.cacheManager.Stop(); srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func billBody(name, amount, due string) map[string]any {
	return map[string]any{
		"name":     name,
		"amount":   amount,
		"dueDate":  due,
		"category": "media",
	}
}

func createBill(t *testing.T, srv *Server, body map[string]any) []core.Bill {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/bills", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /bills = %d: %s", rec.Code, rec.Body.String())
	}
	var inserted []core.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &inserted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return inserted
}

func TestServer_CreateAndList(t *testing.T) {
	srv := newTestServer(t)

	inserted := createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))
	if len(inserted) != 1 || inserted[0].ID == "" {
		t.Fatalf("unexpected create response: %+v", inserted)
	}

	rec := doJSON(t, srv, http.MethodGet, "/bills", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /bills = %d", rec.Code)
	}
	var listed []core.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Netflix" {
		t.Errorf("GET /bills = %+v", listed)
	}
}

func TestServer_ListFilters(t *testing.T) {
	srv := newTestServer(t)
	createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))
	createBill(t, srv, billBody("Luce", "55,00", "2024-04-02"))

	rec := doJSON(t, srv, http.MethodGet, "/bills?year=2024&month=3", nil)
	var listed []core.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Netflix" {
		t.Errorf("month filter returned %+v", listed)
	}

	rec = doJSON(t, srv, http.MethodGet, "/bills?year=2025", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("year filter returned %+v", listed)
	}
}

func TestServer_CreateRejections(t *testing.T) {
	srv := newTestServer(t)
	createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "duplicate name in month",
			body:       billBody("netflix", "12,99", "2024-03-05"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid amount",
			body:       billBody("Acqua", "abc", "2024-03-05"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid date",
			body:       billBody("Acqua", "10,00", "not-a-date"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid category",
			body:       map[string]any{"name": "Acqua", "amount": "10,00", "dueDate": "2024-03-05", "category": "nope"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "recurring with invalid frequency",
			body: map[string]any{
				"name": "Palestra", "amount": "30,00", "dueDate": "2024-03-05",
				"category": "subscription", "isRecurring": true, "frequency": 5,
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/bills", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("POST /bills = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error response not JSON: %s", rec.Body.String())
			}
		})
	}
}

func TestServer_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /bills with garbage = %d, want 400", rec.Code)
	}
}

func TestServer_TogglePaidAndDelete(t *testing.T) {
	srv := newTestServer(t)
	id := createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))[0].ID

	rec := doJSON(t, srv, http.MethodPost, "/bills/"+id+"/paid", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST paid = %d: %s", rec.Code, rec.Body.String())
	}
	var toggled core.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil || !toggled.Paid {
		t.Errorf("toggle response = %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodDelete, "/bills/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/bills/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE missing = %d, want 404", rec.Code)
	}
}

func TestServer_UpdateBill(t *testing.T) {
	srv := newTestServer(t)
	id := createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))[0].ID

	body := billBody("Netflix", "15,99", "2024-03-20")
	rec := doJSON(t, srv, http.MethodPut, "/bills/"+id, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d: %s", rec.Code, rec.Body.String())
	}
	var updated core.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := core.FormatAmount(updated.Amount); got != "15,99" {
		t.Errorf("updated amount = %s", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/bills/missing", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("PUT missing = %d, want 404", rec.Code)
	}
}

func TestServer_UpdateRequiresConfirmationFlags(t *testing.T) {
	srv := newTestServer(t)

	// One-off bill: turning recurrence on through an edit is not allowed.
	id := createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))[0].ID

	body := billBody("Netflix", "12,99", "2024-03-20")
	body["isRecurring"] = true
	body["frequency"] = 1

	rec := doJSON(t, srv, http.MethodPut, "/bills/"+id, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("PUT recurrence-on = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Summary(t *testing.T) {
	srv := newTestServer(t)
	createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))

	rec := doJSON(t, srv, http.MethodGet, "/summary?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /summary = %d", rec.Code)
	}
	var summary core.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("summary count = %d, want 1", summary.Count)
	}

	// A mutation must invalidate the cached value.
	createBill(t, srv, billBody("Luce", "55,00", "2024-03-02"))
	rec = doJSON(t, srv, http.MethodGet, "/summary?year=2024&month=3", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 2 {
		t.Errorf("summary count after create = %d, want 2", summary.Count)
	}
}

func TestServer_SummaryCoversRequestedMonthOnly(t *testing.T) {
	srv := newTestServer(t)
	createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))
	createBill(t, srv, billBody("Condominio", "120,00", "2024-07-01"))

	rec := doJSON(t, srv, http.MethodGet, "/summary?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /summary = %d", rec.Code)
	}
	var summary core.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("summary count = %d, want 1", summary.Count)
	}
	if got := core.FormatAmount(summary.Total); got != "12,99" {
		t.Errorf("summary total = %s, want 12,99", got)
	}
}

func TestServer_Export(t *testing.T) {
	srv := newTestServer(t)
	createBill(t, srv, billBody("Netflix", "12,99", "2024-03-20"))

	rec := doJSON(t, srv, http.MethodGet, "/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /export = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Netflix;12,99;20/03/2024") {
		t.Errorf("export body = %q", rec.Body.String())
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
}

func TestServer_RateLimitsMutations(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		body := billBody(fmt.Sprintf("Bill %d", i), "10,00", fmt.Sprintf("2%03d-01-10", i))
		rec := doJSON(t, srv, http.MethodPost, "/bills", body)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("mutations were never rate limited")
	}
}
