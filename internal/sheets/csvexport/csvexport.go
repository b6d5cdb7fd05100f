// Package csvexport reads the payments sheet from a published CSV export URL,
// e.g. https://docs.google.com/spreadsheets/d/<id>/export?format=csv.
package csvexport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paydash/internal/core"
	ports "paydash/internal/sheets"
)

// DefaultMaxBodyBytes caps the export body read into memory.
const DefaultMaxBodyBytes int64 = 10 << 20

var _ ports.TableReader = (*Client)(nil)

type Client struct {
	url          string
	httpClient   *http.Client
	maxBodyBytes int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// New validates the source address and returns a reader for it.
func New(sourceURL string, opts ...Option) (*Client, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, errors.New("missing source URL")
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse source URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported source URL scheme %q", u.Scheme)
	}
	c := &Client{
		url:          sourceURL,
		httpClient:   newHTTPClientWithPooling(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Describe() string {
	u, err := url.Parse(c.url)
	if err != nil {
		return "csv"
	}
	return "csv:" + u.Host + u.Path
}

// ReadTable performs a GET against the export URL and parses the body.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Table{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Table{}, &core.FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return core.Table{}, &core.FetchError{URL: c.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return core.Table{}, &core.FetchError{URL: c.url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return core.Table{}, &core.FetchError{URL: c.url, Err: fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)}
	}

	return core.ParseCSV(body)
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// timeouts and keep-alive suitable for polling the same host.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	// No client-level Timeout: each pipeline run bounds the request with its context.
	return &http.Client{Transport: transport}
}
