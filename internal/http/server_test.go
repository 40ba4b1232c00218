package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets/memory"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

func newTestServer(t *testing.T, now time.Time) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	srv := NewServer(":0", services.NewLedgerReader(store), services.NewLedgerWriter(store), nil, quietLogger())
	srv.now = func() time.Time { return now }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func seedJan(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for _, row := range [][]any{
		{"05/01/2026", "Salary", 2500.0, "Receita"},
		{"10/01/2026", "Rent", -800.0, "Despesa"},
	} {
		if err := store.Append(ctx, "Jan", row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC))

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Novo registro") {
		t.Fatalf("index body missing heading")
	}
	if !strings.Contains(body, `value="2026-02-12"`) {
		t.Fatalf("date should default to today: %s", body)
	}
	if strings.Contains(body, "checked") {
		t.Fatalf("category must have no default")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	store := memory.New()
	srv := NewServer(":0", services.NewLedgerReader(store), services.NewLedgerWriter(store),
		fakePinger{err: core.ErrStoreUnavailable}, quietLogger())
	defer srv.Shutdown(context.Background())

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil || resp.Status != "not_ready" {
		t.Fatalf("unexpected body (err=%v): %+v", err, resp)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, time.Now())

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", RequestIDHeader} {
		if rr.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = do(srv, req)
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, time.Now())
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/records", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	srv, store := newTestServer(t, time.Now())

	tests := []struct {
		name    string
		form    url.Values
		invalid string
	}{
		{"missing description", url.Values{"date": {"2026-02-12"}, "description": {"  "}, "amount": {"3,50"}, "category": {"Despesa"}}, "description"},
		{"zero amount", url.Values{"date": {"2026-02-12"}, "description": {"Coffee"}, "amount": {"0"}, "category": {"Despesa"}}, "amount"},
		{"bad amount", url.Values{"date": {"2026-02-12"}, "description": {"Coffee"}, "amount": {"abc"}, "category": {"Despesa"}}, "amount"},
		{"no category", url.Values{"date": {"2026-02-12"}, "description": {"Coffee"}, "amount": {"3,50"}}, "category"},
		{"bad date", url.Values{"date": {"yesterday"}, "description": {"Coffee"}, "amount": {"3,50"}, "category": {"Receita"}}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, postForm("/records", tt.form))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, msgFillAllFields) {
				t.Fatalf("missing inline message: %s", body)
			}
			if v := tt.form.Get("amount"); v != "" && !strings.Contains(body, `value="`+v+`"`) {
				t.Fatalf("amount %q not kept in form", v)
			}
		})
	}

	if store.Len("Feb") != 0 {
		t.Fatalf("invalid records must not reach the store")
	}
}

func TestCreateRecordSuccess(t *testing.T) {
	srv, store := newTestServer(t, time.Now())

	rr := do(srv, postForm("/records", url.Values{
		"date":        {"2026-02-12"},
		"description": {"Coffee"},
		"amount":      {"3,50"},
		"category":    {"Despesa"},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Último registro") || !strings.Contains(body, "€ -3,50") {
		t.Fatalf("missing confirmation: %s", body)
	}
	if strings.Contains(body, `value="Coffee"`) || strings.Contains(body, `value="3,50"`) {
		t.Fatalf("form should be cleared after success")
	}

	rows, _ := store.Fetch(context.Background(), "Feb")
	if len(rows) != 2 {
		t.Fatalf("expected one appended row, got %v", rows)
	}
	want := []string{"12/02/2026", "Coffee", "-3,50", "Despesa"}
	for i, c := range want {
		if rows[1][i] != c {
			t.Fatalf("cell %d: got %q, want %q", i, rows[1][i], c)
		}
	}
}

func TestCreateRecordJSON(t *testing.T) {
	srv, store := newTestServer(t, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/records",
		strings.NewReader(`{"date":"2026-02-12","description":"Coffee","amount":3.5,"category":"Despesa"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := do(srv, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var got recordJSON
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Partition != "Feb" || got.Category != "Despesa" || !got.Amount.Equal(decimal.RequireFromString("-3.5")) {
		t.Fatalf("unexpected record %+v", got)
	}
	if store.Len("Feb") != 1 {
		t.Fatalf("expected one row in Feb")
	}

	req = httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"description":""}`))
	rr = do(srv, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var verr struct {
		Fields []string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&verr); err != nil || len(verr.Fields) != 4 {
		t.Fatalf("expected four invalid fields, got %v (err=%v)", verr.Fields, err)
	}
}

func TestReport(t *testing.T) {
	srv, store := newTestServer(t, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))
	seedJan(t, store)

	tests := []struct {
		name   string
		path   string
		status int
		want   []string
	}{
		{"explicit month", "/report?period=1&month=Jan", 200, []string{"€ 2.500,00", "€ -800,00", "€ 1.700,00", "metric positive", "05/01/26"}},
		{"defaults to current month", "/report", 200, []string{"€ 1.700,00", `<option value="Jan" selected>`}},
		{"no period selected", "/report?period=1", 200, []string{msgNoPeriod}},
		{"empty period", "/report?period=1&month=Mar", 200, []string{msgNoRecords}},
		{"unknown month", "/report?month=Xyz", 404, []string{msgUnknownMonth}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.status {
				t.Fatalf("status=%d, want %d", rr.Code, tt.status)
			}
			body := rr.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Fatalf("body missing %q:\n%s", w, body)
				}
			}
		})
	}
}

func TestReportNegativeResult(t *testing.T) {
	srv, store := newTestServer(t, time.Now())
	if err := store.Append(context.Background(), "Mar", []any{"02/03/2026", "Car", -1200.0, "Despesa"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/report?month=Mar", nil))
	if !strings.Contains(rr.Body.String(), "metric negative") {
		t.Fatalf("negative result should be flagged")
	}
}

func TestReportOnlyRejectedRows(t *testing.T) {
	srv, store := newTestServer(t, time.Now())
	for _, row := range [][]any{
		{"2026-04-01", "Bonus", 100.0, "Receita"},
		{"", "Gift", 20.0, "Receita"},
	} {
		if err := store.Append(context.Background(), "Apr", row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/report?month=Apr", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, msgNoRecords) {
		t.Fatalf("expected empty period message: %s", body)
	}
	if !strings.Contains(body, "2 linha(s) com data") {
		t.Fatalf("rejected rows should still be reported: %s", body)
	}
}

func TestReportJSON(t *testing.T) {
	srv, store := newTestServer(t, time.Now())
	seedJan(t, store)
	if err := store.Append(context.Background(), "Feb", []any{"12/02/2026", "Coffee", -3.5, "Despesa"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/report?month=Feb&month=Jan", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", rr.Code, rr.Body.String())
	}
	var got reportJSON
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Net.Equal(decimal.RequireFromString("1696.5")) || !got.Positive {
		t.Fatalf("unexpected net %s", got.Net)
	}
	if len(got.Entries) != 3 || got.Entries[0].Description != "Salary" || got.Entries[2].Description != "Coffee" {
		t.Fatalf("entries not sorted by date: %+v", got.Entries)
	}
	if len(got.PerMonth) != 2 || got.PerMonth[0].Month != "Jan" {
		t.Fatalf("unexpected per-month totals %+v", got.PerMonth)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/report?month=Xyz", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/report?month=", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty period, got %d", rr.Code)
	}
}

type failingReader struct{ err error }

func (f failingReader) Read(context.Context, []string) (core.Table, error) { return core.Table{}, f.err }

func TestReportStoreUnavailable(t *testing.T) {
	err := errors.Join(core.ErrStoreUnavailable, errors.New("quota"))
	srv := NewServer(":0", failingReader{err: err}, services.NewLedgerWriter(memory.New()), nil, quietLogger())
	defer srv.Shutdown(context.Background())

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/report?month=Jan", nil))
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), msgReadFailed) {
		t.Fatalf("unexpected response %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRateLimitOnPost(t *testing.T) {
	srv, _ := newTestServer(t, time.Now())
	srv.rateLimiter.limit = 2

	form := url.Values{"date": {"2026-02-12"}, "description": {"Coffee"}, "amount": {"1"}, "category": {"Despesa"}}
	for i := 0; i < 2; i++ {
		if rr := do(srv, postForm("/records", form)); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, rr.Code)
		}
	}
	rr := do(srv, postForm("/records", form))
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	// GETs are not limited.
	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK {
		t.Fatalf("GET should not be rate limited, got %d", rr.Code)
	}
}
