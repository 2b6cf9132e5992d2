package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Kaladeen1717/economic/internal/testutil"
	"github.com/Kaladeen1717/economic/pkg/filter"
)

var testHeaders = map[string]string{
	"X-AppSecretToken":      "demo",
	"X-AgreementGrantToken": "demo",
	"Content-Type":          "application/json",
}

func newTestClient(t *testing.T, mock *testutil.MockAPI) *Client {
	t.Helper()

	c, err := New(DefaultConfig(mock.URL(), testHeaders))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(c.Close)

	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("https://example.com/api/v1", testHeaders),
			expectError: false,
		},
		{
			name:        "missing base URL",
			config:      Config{Headers: testHeaders},
			expectError: true,
			errorMsg:    "base URL is required",
		},
		{
			name:        "missing headers",
			config:      Config{BaseURL: "https://example.com/api/v1"},
			expectError: true,
			errorMsg:    "auth headers are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("Client is nil")
			}
			if c.config.MaxPages <= 0 {
				t.Errorf("MaxPages = %d, should default to > 0", c.config.MaxPages)
			}
		})
	}
}

func TestFetchAll_ThreePages(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/booked-entries", testutil.PagedHandler([]testutil.PageFixture{
		{Items: []Record{{"entryNumber": 1.0}, {"entryNumber": 2.0}}, Cursor: "abc"},
		{Items: []Record{{"entryNumber": 3.0}, {"entryNumber": 4.0}}, Cursor: "def"},
		{Items: []Record{{"entryNumber": 5.0}, {"entryNumber": 6.0}}},
	}))

	c := newTestClient(t, mock)
	items, err := c.FetchAll(context.Background(), "/booked-entries", "")
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}

	if len(items) != 6 {
		t.Fatalf("len(items) = %d, want 6", len(items))
	}
	for i, item := range items {
		if got := item["entryNumber"].(float64); got != float64(i+1) {
			t.Errorf("items[%d] entryNumber = %v, want %d (arrival order must be preserved)", i, got, i+1)
		}
	}

	if got := mock.RequestCount(); got != 3 {
		t.Errorf("RequestCount = %d, want 3 (one per cursor plus the initial request)", got)
	}

	// Successive requests must echo the previous response's cursor.
	wantCursors := []string{"", "abc", "def"}
	for i, req := range mock.Requests() {
		if got := req.Query.Get("cursor"); got != wantCursors[i] {
			t.Errorf("request %d cursor = %q, want %q", i, got, wantCursors[i])
		}
	}
}

func TestFetchAll_ForwardsFilterAndHeaders(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/invoices/booked/lines", testutil.PagedHandler([]testutil.PageFixture{
		{Items: []Record{{"lineNumber": 1.0}}, Cursor: "p2"},
		{Items: []Record{{"lineNumber": 2.0}}},
	}))

	c := newTestClient(t, mock)
	f := filter.DateRange("2024-01-01", "2024-06-30")
	if _, err := c.FetchAll(context.Background(), "/invoices/booked/lines", f); err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}

	for i, req := range mock.Requests() {
		if got := req.Query.Get("filter"); got != f.String() {
			t.Errorf("request %d filter = %q, want %q", i, got, f)
		}
		if got := req.Header.Get("X-AppSecretToken"); got != "demo" {
			t.Errorf("request %d X-AppSecretToken = %q, want %q", i, got, "demo")
		}
		if got := req.Header.Get("X-AgreementGrantToken"); got != "demo" {
			t.Errorf("request %d X-AgreementGrantToken = %q, want %q", i, got, "demo")
		}
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("request %d Content-Type = %q, want %q", i, got, "application/json")
		}
	}
}

func TestFetchAll_EmptyPageWithCursorContinues(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/booked-entries", testutil.PagedHandler([]testutil.PageFixture{
		{Items: nil, Cursor: "more"},
		{Items: []Record{{"entryNumber": 1.0}, {"entryNumber": 2.0}}},
	}))

	c := newTestClient(t, mock)
	items, err := c.FetchAll(context.Background(), "/booked-entries", "")
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}

	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if got := mock.RequestCount(); got != 2 {
		t.Errorf("RequestCount = %d, want 2 (empty items must not terminate while a cursor remains)", got)
	}
}

func TestFetchAll_NoCursorTerminates(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/booked-entries", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PagedBody([]Record{{"entryNumber": 1.0}}, ""),
	})

	c := newTestClient(t, mock)
	items, err := c.FetchAll(context.Background(), "/booked-entries", "")
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}

	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("RequestCount = %d, want 1", got)
	}
}

func TestFetchAll_ErrorDiscardsPartialResult(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/booked-entries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(testutil.PagedBody([]Record{{"entryNumber": 1.0}}, "boom")))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Something broke"}`))
	})

	c := newTestClient(t, mock)
	items, err := c.FetchAll(context.Background(), "/booked-entries", "")

	if items != nil {
		t.Errorf("items = %v, want nil (no partial result on page failure)", items)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", httpErr.StatusCode)
	}
	if httpErr.Body == "" {
		t.Error("HTTPError should carry the response body")
	}
}

func TestFetchAll_PageLimitGuard(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	// A misbehaving server that returns the same cursor forever.
	var served atomic.Int64
	mock.SetHandler("/booked-entries", func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testutil.PagedBody([]Record{{"entryNumber": 1.0}}, "again")))
	})

	cfg := DefaultConfig(mock.URL(), testHeaders)
	cfg.MaxPages = 5
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	_, err = c.FetchAll(context.Background(), "/booked-entries", "")
	if !errors.Is(err, ErrPageLimitExceeded) {
		t.Fatalf("error = %v, want ErrPageLimitExceeded", err)
	}
	if got := served.Load(); got != 5 {
		t.Errorf("server saw %d requests, want 5", got)
	}
}

func TestFetchSinglePage(t *testing.T) {
	tests := []struct {
		name         string
		pageSize     int
		wantPageSize string
	}{
		{"explicit size", 25, "25"},
		{"zero uses maximum", 0, "100"},
		{"capped at maximum", 500, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()

			// The page carries a cursor; a single-page fetch must not follow it.
			mock.SetResponse("/AttachedDocuments/paged", testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       testutil.PagedBody([]Record{{"number": 42.0}}, "truncated"),
			})

			c := newTestClient(t, mock)
			page, err := c.FetchSinglePage(context.Background(), "/AttachedDocuments/paged", filter.Eq("voucherNumber", 7), tt.pageSize)
			if err != nil {
				t.Fatalf("FetchSinglePage() error: %v", err)
			}

			if len(page.Items) != 1 {
				t.Errorf("len(Items) = %d, want 1", len(page.Items))
			}
			if page.Cursor != "truncated" {
				t.Errorf("Cursor = %q, want %q", page.Cursor, "truncated")
			}
			if got := mock.RequestCount(); got != 1 {
				t.Errorf("RequestCount = %d, want 1 (cursor must not be followed)", got)
			}

			req := mock.LastRequest()
			if got := req.Query.Get("pageSize"); got != tt.wantPageSize {
				t.Errorf("pageSize = %q, want %q", got, tt.wantPageSize)
			}
			if got := req.Query.Get("filter"); got != "voucherNumber$eq:7" {
				t.Errorf("filter = %q, want %q", got, "voucherNumber$eq:7")
			}
		})
	}
}

func TestGetObject(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/AttachedDocuments/42", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"number": 42, "note": "Invoice scan"}`,
	})

	c := newTestClient(t, mock)
	doc, err := c.GetObject(context.Background(), "/AttachedDocuments/42")
	if err != nil {
		t.Fatalf("GetObject() error: %v", err)
	}

	if got := doc["note"]; got != "Invoice scan" {
		t.Errorf("note = %v, want %q", got, "Invoice scan")
	}
}

func TestGetObject_NotFound(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, mock)
	_, err := c.GetObject(context.Background(), "/AttachedDocuments/9999")

	if !IsNotFound(err) {
		t.Fatalf("error = %v, want HTTP 404", err)
	}
}

func TestGetBytes(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	pdf := "%PDF-1.4 fake content"
	mock.SetResponse("/AttachedDocuments/42/pdf", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       pdf,
		Headers:    map[string]string{"Content-Type": "application/pdf"},
	})

	c := newTestClient(t, mock)
	data, err := c.GetBytes(context.Background(), "/AttachedDocuments/42/pdf")
	if err != nil {
		t.Fatalf("GetBytes() error: %v", err)
	}

	if string(data) != pdf {
		t.Errorf("data = %q, want %q (bytes must pass through verbatim)", data, pdf)
	}
}
