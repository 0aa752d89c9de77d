package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlsson/tabview/client"
	"github.com/dkarlsson/tabview/config"
	"github.com/dkarlsson/tabview/controller"
	"github.com/dkarlsson/tabview/export"
	"github.com/dkarlsson/tabview/grid"
	"github.com/dkarlsson/tabview/query"
	"github.com/dkarlsson/tabview/types"
)

func TestParseFilter(t *testing.T) {
	row, err := parseFilter("status:eq:shipped")
	require.NoError(t, err)
	assert.Equal(t, types.FilterRow{Column: "status", Operator: "eq", Value: "shipped"}, row)

	row, err = parseFilter("deleted_at:is_null")
	require.NoError(t, err)
	assert.Equal(t, types.FilterRow{Column: "deleted_at", Operator: "is_null"}, row)

	row, err = parseFilter("path:like:a:b:c")
	require.NoError(t, err)
	assert.Equal(t, "a:b:c", row.Value, "value keeps embedded colons")

	_, err = parseFilter("status")
	assert.Error(t, err)

	_, err = parseFilter("status:matches:x")
	assert.Error(t, err, "unknown operator rejected")
}

func TestEndToEndQuery(t *testing.T) {
	rows := []map[string]any{
		{"id": float64(1), "status": "shipped"},
		{"id": float64(2), "status": "shipped"},
	}

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tables/orders/query", r.URL.Path)
		var err error
		gotBody, err = readAll(r)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(types.QueryResult{Rows: rows, Total: 2})
	}))
	defer srv.Close()

	session := query.NewSession()
	session.SelectTable("orders")
	session.AddRow()
	session.Rows[0] = types.FilterRow{Column: "status", Operator: types.OpEq, Value: "shipped"}

	c := client.New(config.BackendConfig{BaseURL: srv.URL})
	ctrl := controller.New(c, controller.WithDebounce(5*time.Millisecond))
	defer ctrl.Close()

	ctrl.SetDescriptor(session.Descriptor())

	deadline := time.After(2 * time.Second)
	for {
		var snap controller.Snapshot
		select {
		case <-ctrl.Updates():
			snap = ctrl.Snapshot()
		case <-deadline:
			t.Fatal("query never settled")
		}
		if snap.Busy || snap.Result == nil {
			continue
		}

		assert.JSONEq(t,
			`{"filters":[{"column":"status","op":"eq","value":"shipped"}],"logical_operator":"AND","limit":100,"offset":0}`,
			string(gotBody))

		columns := query.Columns(snap.Descriptor, snap.Result)
		g := grid.New(columns, grid.EstimateWidths(columns, snap.Result.Rows))
		var buf bytes.Buffer
		g.Render(&buf, snap.Result.Rows, grid.Window{Height: 10}, false)

		out := buf.String()
		assert.Contains(t, out, "shipped")
		assert.Contains(t, out, "1")
		assert.Contains(t, out, "2")
		return
	}
}

func TestEndToEndExport(t *testing.T) {
	chunks := [][]byte{
		[]byte("{\"id\":1}\n{\"id\":2}\n"),
		[]byte("{\"id\":3}\n"),
		[]byte("{\"id\":4"),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tables/orders/stream", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			w.Write(chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := client.New(config.BackendConfig{BaseURL: srv.URL})
	e := export.New(c, export.WithDir(dir))

	session := query.NewSession()
	session.SelectTable("orders")

	path, records, err := e.Run(context.Background(), session.Descriptor())
	require.NoError(t, err)
	assert.Equal(t, 3, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(bytes.Join(chunks, nil)), string(data))
}

func readAll(r *http.Request) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	return buf.Bytes(), err
}
