package resources

import (
	"context"

	"github.com/Kaladeen1717/economic/pkg/client"
	"github.com/Kaladeen1717/economic/pkg/filter"
)

const invoiceLinesEndpoint = "/invoices/booked/lines"

// InvoiceLines retrieves booked invoice lines.
type InvoiceLines struct {
	c *client.Client
}

// NewInvoiceLines creates an invoice-lines retriever.
func NewInvoiceLines(cfg Config) (*InvoiceLines, error) {
	c, err := newClient(cfg, InvoiceLinesBaseURL)
	if err != nil {
		return nil, err
	}
	return &InvoiceLines{c: c}, nil
}

// All retrieves every booked invoice line matching the filter, following
// the cursor across pages.
func (r *InvoiceLines) All(ctx context.Context, f filter.Expr) ([]client.Record, error) {
	return r.c.FetchAll(ctx, invoiceLinesEndpoint, f)
}

// Close releases the retriever's connections.
func (r *InvoiceLines) Close() {
	r.c.Close()
}
