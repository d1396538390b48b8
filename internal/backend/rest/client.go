// Package rest is a backend client for a hosted platform reached over HTTP
// (GoTrue-style auth endpoints and PostgREST-style table endpoints).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
)

// Client talks to a hosted platform. It keeps the session in memory only.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
	now     func() time.Time

	mu        sync.Mutex
	session   *backend.Session
	listeners map[int]backend.AuthListener
	nextID    int
}

var _ backend.Client = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the platform at baseURL
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		http:      http.DefaultClient,
		logger:    log.New(io.Discard, "", 0),
		now:       time.Now,
		listeners: make(map[int]backend.AuthListener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.Expired(c.now()) {
		return ""
	}
	return c.session.AccessToken
}

// do sends a request and decodes a successful JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return backend.Wrap(backend.CodeInternal, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backend.Wrap(backend.CodeInternal, "decode response: "+err.Error(), err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body backend.ErrorBody
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		return backend.NewError(backend.CodeInternal, fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(data))))
	}
	if body.Code == "" {
		body.Code = backend.CodeInternal
	}
	return backend.NewError(body.Code, body.Message)
}
