package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkarlsson/tabview/config"
	"github.com/dkarlsson/tabview/types"
)

// APIKeyHeader is attached to every request when a key is configured.
const APIKeyHeader = "X-API-Key"

// Client speaks the dataset backend's HTTP contract. It never retries: a
// failed request surfaces as an error for the caller to report.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-success HTTP response, carrying the operation name so
// notifications can say what failed.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
}

func (c *Client) Tables(ctx context.Context) ([]string, error) {
	var resp types.TablesResponse
	if err := c.getJSON(ctx, "list tables", "/tables", &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	var resp types.ColumnsResponse
	path := fmt.Sprintf("/tables/%s/columns", url.PathEscape(table))
	if err := c.getJSON(ctx, "list columns", path, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

// Query runs one paginated query for the descriptor.
func (c *Client) Query(ctx context.Context, d *types.QueryDescriptor) (*types.QueryResult, error) {
	path := fmt.Sprintf("/tables/%s/query", url.PathEscape(d.Table))
	resp, err := c.post(ctx, "query", path, d)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result types.QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("query: failed to decode response: %w", err)
	}
	return &result, nil
}

// Stream opens the chunked export stream for the descriptor. The caller owns
// the returned body and must close it.
func (c *Client) Stream(ctx context.Context, d *types.QueryDescriptor) (io.ReadCloser, error) {
	path := fmt.Sprintf("/tables/%s/stream", url.PathEscape(d.Table))
	resp, err := c.post(ctx, "stream", path, d)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("stream: response has no body")
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Op: op, Status: resp.StatusCode}
	}
	return resp, nil
}
