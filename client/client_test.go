package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlsson/tabview/config"
	"github.com/dkarlsson/tabview/types"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New(config.BackendConfig{BaseURL: srv.URL, APIKey: "secret"})
	return c, srv
}

func TestTables(t *testing.T) {
	var gotKey string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		assert.Equal(t, "/tables", r.URL.Path)
		json.NewEncoder(w).Encode(types.TablesResponse{Tables: []string{"orders", "customers"}})
	}))
	defer srv.Close()

	tables, err := c.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, tables)
	assert.Equal(t, "secret", gotKey, "api key attached to every request")
}

func TestColumns(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tables/orders/columns", r.URL.Path)
		json.NewEncoder(w).Encode(types.ColumnsResponse{Columns: []string{"id", "status"}})
	}))
	defer srv.Close()

	cols, err := c.Columns(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "status"}, cols)
}

func TestQuery_SendsDescriptorBody(t *testing.T) {
	var body map[string]any
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tables/orders/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(types.QueryResult{
			Rows:  []map[string]any{{"id": float64(1), "status": "shipped"}},
			Total: 1,
		})
	}))
	defer srv.Close()

	d := &types.QueryDescriptor{
		Table:           "orders",
		Filters:         []types.FilterClause{{Column: "status", Op: types.OpEq, Value: "shipped"}},
		LogicalOperator: types.LogicalAnd,
		Limit:           100,
	}
	result, err := c.Query(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Rows, 1)

	assert.Equal(t, "AND", body["logical_operator"])
	assert.Equal(t, float64(100), body["limit"])
	assert.NotContains(t, body, "order_by")
	filters := body["filters"].([]any)
	require.Len(t, filters, 1)
	clause := filters[0].(map[string]any)
	assert.Equal(t, "status", clause["column"])
	assert.Equal(t, "eq", clause["op"])
	assert.Equal(t, "shipped", clause["value"])
}

func TestQuery_StatusError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := c.Query(context.Background(), &types.QueryDescriptor{Table: "orders", Limit: 10})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "query", statusErr.Op)
}

func TestStream_ReturnsRawBody(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tables/orders/stream", r.URL.Path)
		w.Write([]byte("{\"id\":1}\n{\"id\":2}\n"))
	}))
	defer srv.Close()

	body, err := c.Stream(context.Background(), &types.QueryDescriptor{Table: "orders", Limit: 10})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", string(data))
}
