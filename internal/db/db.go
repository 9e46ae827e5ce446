package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Prefer controls whether the store echoes written rows back.
type Prefer string

const (
	PreferNone           Prefer = ""
	ReturnRepresentation Prefer = "return=representation"
	ReturnMinimal        Prefer = "return=minimal"
)

// StatusError is a non-2xx response from the store.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store responded %d: %s", e.Status, e.Body)
}

// Client talks to the Supabase REST and auth endpoints on behalf of a caller.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// Open validates the base URL and returns a client. A nil httpClient uses
// http.DefaultClient.
func Open(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing store url: %q is not absolute", baseURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("opening store client: api key is empty")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: u, apiKey: apiKey, http: httpClient}, nil
}

// Select runs a read and returns the raw JSON array.
func (c *Client) Select(ctx context.Context, token string, q *Query) ([]byte, error) {
	return c.do(ctx, http.MethodGet, restPath(q.Table()), q.Encode(), token, nil, PreferNone)
}

// Insert writes one row or a slice of rows to table.
func (c *Client) Insert(ctx context.Context, token, table string, rows any, prefer Prefer) ([]byte, error) {
	return c.do(ctx, http.MethodPost, restPath(table), "", token, rows, prefer)
}

// Update applies patch to every row matched by q.
func (c *Client) Update(ctx context.Context, token string, q *Query, patch any, prefer Prefer) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, restPath(q.Table()), q.Encode(), token, patch, prefer)
}

// Delete removes every row matched by q.
func (c *Client) Delete(ctx context.Context, token string, q *Query) error {
	_, err := c.do(ctx, http.MethodDelete, restPath(q.Table()), q.Encode(), token, nil, PreferNone)
	return err
}

func restPath(table string) string {
	return "/rest/v1/" + table
}

// do sends one request. An empty token falls back to the anon key as bearer.
func (c *Client) do(ctx context.Context, method, path, rawQuery, token string, body any, prefer Prefer) ([]byte, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = rawQuery

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}

	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != PreferNone {
		req.Header.Set("Prefer", string(prefer))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
