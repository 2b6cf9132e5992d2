// Package resources provides the thin per-resource retrievers over the
// generic pagination engine: booked invoice lines, booked ledger entries,
// and attached documents. Each resource family lives behind its own
// versioned base URL; the variation between them is configuration, not
// behavior.
package resources

import (
	"time"

	"github.com/Kaladeen1717/economic/pkg/auth"
	"github.com/Kaladeen1717/economic/pkg/client"
)

// Production base URLs, one per resource family.
const (
	InvoiceLinesBaseURL  = "https://apis.e-conomic.com/q2capi/v4.0.0"
	BookedEntriesBaseURL = "https://apis.e-conomic.com/bookedEntriesapi/v3.1.0"
	DocumentsBaseURL     = "https://apis.e-conomic.com/documentsapi/v1.0.1"
)

// Config holds the settings shared by every retriever.
type Config struct {
	// Credentials authenticate every request.
	Credentials *auth.Credentials

	// BaseURL overrides the resource's production base URL (for testing).
	BaseURL string

	// Timeout bounds each page fetch. Zero uses the client default.
	Timeout time.Duration
}

// newClient builds the underlying API client for one retriever.
func newClient(cfg Config, defaultBaseURL string) (*client.Client, error) {
	if cfg.Credentials == nil {
		return nil, auth.ErrMissingCredentials
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	clientCfg := client.DefaultConfig(baseURL, cfg.Credentials.Headers())
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}

	return client.New(clientCfg)
}
