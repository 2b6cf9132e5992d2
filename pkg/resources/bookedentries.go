package resources

import (
	"context"

	"github.com/Kaladeen1717/economic/pkg/client"
	"github.com/Kaladeen1717/economic/pkg/filter"
)

const bookedEntriesEndpoint = "/booked-entries"

// BookedEntries retrieves booked ledger entries.
type BookedEntries struct {
	c *client.Client
}

// NewBookedEntries creates a booked-entries retriever.
func NewBookedEntries(cfg Config) (*BookedEntries, error) {
	c, err := newClient(cfg, BookedEntriesBaseURL)
	if err != nil {
		return nil, err
	}
	return &BookedEntries{c: c}, nil
}

// All retrieves every booked entry matching the filter, following the
// cursor across pages. Callers typically compose the filter from
// filter.DateRange plus any ad hoc expression.
func (r *BookedEntries) All(ctx context.Context, f filter.Expr) ([]client.Record, error) {
	return r.c.FetchAll(ctx, bookedEntriesEndpoint, f)
}

// Close releases the retriever's connections.
func (r *BookedEntries) Close() {
	r.c.Close()
}
