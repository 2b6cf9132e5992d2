// Package client provides the core e-conomic HTTP client with cursor
// pagination, error classification, and request metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Kaladeen1717/economic/pkg/filter"
)

// Prometheus metrics for API client operations.
var (
	economicRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "economic_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	economicRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "economic_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	economicErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "economic_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})

	economicPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "economic_pages_fetched_total",
		Help: "Total pages fetched by endpoint",
	}, []string{"endpoint"})

	economicItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "economic_items_fetched_total",
		Help: "Total items accumulated across pages by endpoint",
	}, []string{"endpoint"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// MaxPageSize is the largest pageSize the API accepts on paged endpoints.
const MaxPageSize = 100

// Record is one structured API record. The remote schema is not owned by
// this module, so records stay opaque key-value documents: known fields
// (number, note) are read for display, everything else passes through to
// output untouched.
type Record = map[string]any

// Page is one server response from a list endpoint: an ordered slice of
// records plus an optional continuation cursor. An empty cursor means the
// stream is exhausted.
type Page struct {
	Items  []Record `json:"items"`
	Cursor string   `json:"cursor"`
}

// Client is an HTTP client bound to one API base URL and one credential
// header set. The underlying connection pool is reused across the calls of
// a pagination run; Close releases it.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the versioned API root, e.g.
	// "https://apis.e-conomic.com/bookedEntriesapi/v3.1.0".
	BaseURL string

	// Headers are attached verbatim to every outgoing request. For the
	// e-conomic API this is the three-entry auth header set.
	Headers map[string]string

	// Timeout bounds each individual page fetch. Zero means no timeout;
	// callers may instead impose a deadline through the request context.
	Timeout time.Duration

	// MaxPages guards a pagination run against a server that returns an
	// endlessly repeating cursor. Well-behaved servers never reach it.
	MaxPages int
}

// DefaultConfig returns a configuration with safe defaults for the given
// base URL and header set.
func DefaultConfig(baseURL string, headers map[string]string) Config {
	return Config{
		BaseURL:  baseURL,
		Headers:  headers,
		Timeout:  30 * time.Second,
		MaxPages: 10000,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if len(cfg.Headers) == 0 {
		return nil, fmt.Errorf("auth headers are required")
	}

	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10000
	}

	logger := log.With().Str("component", "economic-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchAll retrieves every record behind a cursor-paginated list endpoint,
// following the continuation cursor until the server stops returning one.
// Items are accumulated in arrival order with no deduplication. Any page
// failure discards the accumulated result and propagates the error.
func (c *Client) FetchAll(ctx context.Context, endpoint string, f filter.Expr) ([]Record, error) {
	start := time.Now()

	var items []Record
	cursor := ""
	pages := 0

	for {
		if pages >= c.config.MaxPages {
			return nil, fmt.Errorf("%w: %d pages on %s", ErrPageLimitExceeded, pages, endpoint)
		}

		page, err := c.fetchPage(ctx, endpoint, f, cursor)
		if err != nil {
			return nil, err
		}
		pages++
		economicPagesFetched.WithLabelValues(endpoint).Inc()

		items = append(items, page.Items...)

		// Only the cursor controls termination: a page with an empty items
		// slice but a cursor still continues the loop.
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	economicItemsFetched.WithLabelValues(endpoint).Add(float64(len(items)))
	c.logger.Info().
		Str("endpoint", endpoint).
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return items, nil
}

// fetchPage issues one GET for a single page of results.
func (c *Client) fetchPage(ctx context.Context, endpoint string, f filter.Expr, cursor string) (*Page, error) {
	params := url.Values{}
	if f != "" {
		params.Set("filter", f.String())
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	return c.getPage(ctx, endpoint, params)
}

// FetchSinglePage retrieves exactly one page from a paged endpoint without
// following its cursor. pageSize is capped at MaxPageSize; values <= 0 use
// the maximum. Lookups through this path are assumed small enough for one
// page; larger result sets are truncated at the page-size ceiling.
func (c *Client) FetchSinglePage(ctx context.Context, endpoint string, f filter.Expr, pageSize int) (*Page, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	if f != "" {
		params.Set("filter", f.String())
	}

	return c.getPage(ctx, endpoint, params)
}

// getPage issues one GET and decodes the response as a Page.
func (c *Client) getPage(ctx context.Context, endpoint string, params url.Values) (*Page, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page from %s: %w", endpoint, err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("items", len(page.Items)).
		Bool("has_cursor", page.Cursor != "").
		Msg("Fetched page")

	return &page, nil
}

// GetObject retrieves a single record from an endpoint that returns one
// JSON object, e.g. "/AttachedDocuments/{number}".
func (c *Client) GetObject(ctx context.Context, endpoint string) (Record, error) {
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode object from %s: %w", endpoint, err)
	}

	return record, nil
}

// GetBytes retrieves a binary sub-resource verbatim, with no JSON parsing,
// e.g. the PDF rendition of an attached document.
func (c *Client) GetBytes(ctx context.Context, endpoint string) ([]byte, error) {
	return c.get(ctx, endpoint, nil)
}

// get performs one GET request with the configured headers and returns the
// response body. Non-2xx responses become an *HTTPError carrying the status
// code and body; the client does not retry.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.config.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", params.Encode()).
		Msg("Executing API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	economicRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		economicErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		economicRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	economicRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		economicErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classifyStatus(resp.StatusCode)
		economicErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")

		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// classifyStatus categorizes an HTTP status for observability.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Close releases the client's idle connections. Call it when the retrieval
// run using this client is done.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
