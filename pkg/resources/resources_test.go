package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaladeen1717/economic/internal/testutil"
	"github.com/Kaladeen1717/economic/pkg/auth"
	"github.com/Kaladeen1717/economic/pkg/client"
	"github.com/Kaladeen1717/economic/pkg/filter"
)

func testConfig(mock *testutil.MockAPI) Config {
	return Config{
		Credentials: auth.Demo(),
		BaseURL:     mock.URL(),
	}
}

func TestNewRetrievers_RequireCredentials(t *testing.T) {
	_, err := NewInvoiceLines(Config{})
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)

	_, err = NewBookedEntries(Config{})
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)

	_, err = NewDocuments(Config{})
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestInvoiceLines_All(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/invoices/booked/lines", testutil.PagedHandler([]testutil.PageFixture{
		{Items: []client.Record{{"lineNumber": 1.0}}, Cursor: "next"},
		{Items: []client.Record{{"lineNumber": 2.0}}},
	}))

	r, err := NewInvoiceLines(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	lines, err := r.All(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Equal(t, 2, mock.RequestCount())
}

func TestBookedEntries_All_ForwardsDateFilter(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/booked-entries", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PagedBody([]client.Record{{"entryNumber": 1.0}}, ""),
	})

	r, err := NewBookedEntries(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	f := filter.DateRange("2024-01-01", "2024-03-31")
	entries, err := r.All(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	req := mock.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "date$gte:2024-01-01$and:date$lte:2024-03-31", req.Query.Get("filter"))
}

func TestDocuments_Get(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/AttachedDocuments/42", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"number": 42, "note": "Receipt"}`,
	})

	r, err := NewDocuments(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	doc, err := r.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Receipt", doc["note"])
}

func TestDocuments_Get_NotFound(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	r, err := NewDocuments(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(context.Background(), 9999)
	assert.True(t, client.IsNotFound(err), "expected a 404, got %v", err)
}

func TestDocuments_PDF(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/AttachedDocuments/42/pdf", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "%PDF-1.4 content",
	})

	r, err := NewDocuments(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	data, err := r.PDF(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 content", string(data))
}

func TestDocuments_List_CapsPageSize(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/AttachedDocuments/paged", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PagedBody([]client.Record{{"number": 1.0}, {"number": 2.0}}, ""),
	})

	r, err := NewDocuments(testConfig(mock))
	require.NoError(t, err)
	defer r.Close()

	docs, err := r.List(context.Background(), "", 500)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	req := mock.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "100", req.Query.Get("pageSize"))
}

func TestDocuments_FindByVoucherNumber(t *testing.T) {
	tests := []struct {
		name           string
		accountingYear string
		wantFilter     string
	}{
		{"voucher only", "", "voucherNumber$eq:70492"},
		{"with accounting year", "2024", "voucherNumber$eq:70492$and:accountingYear$eq:2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()

			// The page advertises a cursor; the lookup must stay single-page.
			mock.SetResponse("/AttachedDocuments/paged", testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       testutil.PagedBody([]client.Record{{"number": 7.0, "note": "Invoice"}}, "more"),
			})

			r, err := NewDocuments(testConfig(mock))
			require.NoError(t, err)
			defer r.Close()

			docs, err := r.FindByVoucherNumber(context.Background(), 70492, tt.accountingYear)
			require.NoError(t, err)
			assert.Len(t, docs, 1)
			assert.Equal(t, 1, mock.RequestCount(), "secondary-key lookup must not follow the cursor")

			req := mock.LastRequest()
			require.NotNil(t, req)
			assert.Equal(t, tt.wantFilter, req.Query.Get("filter"))
			assert.Equal(t, "100", req.Query.Get("pageSize"))
		})
	}
}
