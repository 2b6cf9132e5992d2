package resources

import (
	"context"
	"fmt"

	"github.com/Kaladeen1717/economic/pkg/client"
	"github.com/Kaladeen1717/economic/pkg/filter"
)

const documentsEndpoint = "/AttachedDocuments"

// Documents retrieves attached documents and their PDF renditions.
type Documents struct {
	c *client.Client
}

// NewDocuments creates an attached-documents retriever.
func NewDocuments(cfg Config) (*Documents, error) {
	c, err := newClient(cfg, DocumentsBaseURL)
	if err != nil {
		return nil, err
	}
	return &Documents{c: c}, nil
}

// Get retrieves one attached document by its number. A missing document
// surfaces as an HTTPError with status 404.
func (r *Documents) Get(ctx context.Context, number int) (client.Record, error) {
	return r.c.GetObject(ctx, fmt.Sprintf("%s/%d", documentsEndpoint, number))
}

// PDF retrieves the raw PDF rendition of one attached document.
func (r *Documents) PDF(ctx context.Context, number int) ([]byte, error) {
	return r.c.GetBytes(ctx, fmt.Sprintf("%s/%d/pdf", documentsEndpoint, number))
}

// List retrieves a single page of attached documents. limit is capped at
// the server's 100-item page-size ceiling.
func (r *Documents) List(ctx context.Context, f filter.Expr, limit int) ([]client.Record, error) {
	page, err := r.c.FetchSinglePage(ctx, documentsEndpoint+"/paged", f, limit)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FindByVoucherNumber finds attached documents whose voucher number
// matches, optionally narrowed by accounting year.
//
// Known limitation: this issues a single page request with the maximum
// page size and does not follow the page's cursor, so a voucher with more
// than 100 attached documents is truncated.
func (r *Documents) FindByVoucherNumber(ctx context.Context, voucherNumber int, accountingYear string) ([]client.Record, error) {
	f := filter.Eq("voucherNumber", voucherNumber)
	if accountingYear != "" {
		f = filter.And(f, filter.Eq("accountingYear", accountingYear))
	}

	page, err := r.c.FetchSinglePage(ctx, documentsEndpoint+"/paged", f, client.MaxPageSize)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Close releases the retriever's connections.
func (r *Documents) Close() {
	r.c.Close()
}
