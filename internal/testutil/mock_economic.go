// Package testutil provides testing utilities for the e-conomic client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	json "github.com/goccy/go-json"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RecordedRequest captures one request the mock server received.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockAPI is a configurable mock e-conomic API server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Unconfigured paths behave like a missing resource.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Resource not found"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears the recorded requests.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests the server received.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Requests returns a copy of all recorded requests in arrival order.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// LastRequest returns the most recent recorded request, or nil.
func (m *MockAPI) LastRequest() *RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// PageFixture is one page served by PagedHandler.
type PageFixture struct {
	Items  []map[string]any
	Cursor string
}

// PagedBody builds the JSON body of a list-endpoint page. An empty cursor
// omits the cursor field entirely.
func PagedBody(items []map[string]any, cursor string) string {
	page := map[string]any{"items": items}
	if cursor != "" {
		page["cursor"] = cursor
	}
	data, err := json.Marshal(page)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// PagedHandler serves a fixed sequence of pages keyed by the cursor query
// parameter: a request without a cursor gets the first page, a request
// carrying page N's cursor gets page N+1.
func PagedHandler(pages []PageFixture) http.HandlerFunc {
	byCursor := make(map[string]int)
	for i, page := range pages {
		if page.Cursor != "" {
			byCursor[page.Cursor] = i + 1
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		index := 0
		if cursor := r.URL.Query().Get("cursor"); cursor != "" {
			next, ok := byCursor[cursor]
			if !ok || next >= len(pages) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message": "Unknown cursor"}`))
				return
			}
			index = next
		}

		page := pages[index]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(PagedBody(page.Items, page.Cursor)))
	}
}
