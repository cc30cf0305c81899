package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxPayloadsPerCall is the service-imposed ceiling on the number of
// payloads accepted in one batch call.
const DefaultMaxPayloadsPerCall = 500

// Service is the boundary to the remote document service. BatchUpdate
// submits ordered payloads in one call against one document; Get fetches the
// document's current structure for read-back.
type Service interface {
	BatchUpdate(ctx context.Context, documentID string, requests []Request) ([]Reply, error)
	Get(ctx context.Context, documentID string) (*Document, error)
}

// TokenSource supplies a bearer token per call. Token refresh is handled by
// the caller's auth layer, not by this client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token, suitable for tests
// and short-lived CLI runs.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client is the HTTP implementation of Service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	maxBatch   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxPayloadsPerCall overrides the payload-count ceiling enforced before
// a call is made.
func WithMaxPayloadsPerCall(n int) ClientOption {
	return func(c *Client) {
		c.maxBatch = n
	}
}

// NewClient creates a document service client. A token source is required;
// passing nil is a programming error and fails immediately.
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("document service base URL is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		tokens:     tokens,
		maxBatch:   DefaultMaxPayloadsPerCall,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CallError is a call-level failure from the service. The whole batch shares
// one fate; per-request retry policy lives in the queue, not here.
type CallError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("document service returned %d: %s", e.StatusCode, e.Message)
}

type batchUpdateBody struct {
	Requests []Request `json:"requests"`
}

type batchUpdateResponse struct {
	Replies []map[string]interface{} `json:"replies"`
}

// BatchUpdate submits the payloads in order as one call against the target
// document and returns one reply per payload. An empty payload list is a
// no-op and performs no network call.
func (c *Client) BatchUpdate(ctx context.Context, documentID string, requests []Request) ([]Reply, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if len(requests) == 0 {
		return []Reply{}, nil
	}
	if len(requests) > c.maxBatch {
		return nil, fmt.Errorf("batch of %d payloads exceeds the per-call ceiling of %d", len(requests), c.maxBatch)
	}

	body, err := json.Marshal(batchUpdateBody{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/documents/%s:batchUpdate", c.baseURL, url.PathEscape(documentID))
	respBody, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var parsed batchUpdateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}

	// The service may omit trailing empty replies; pad so callers always see
	// one reply per payload, in submission order.
	replies := make([]Reply, len(requests))
	for i := range parsed.Replies {
		if i >= len(replies) {
			break
		}
		replies[i] = Reply{Raw: parsed.Replies[i]}
	}
	return replies, nil
}

// Get fetches the document's current structure.
func (c *Client) Get(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	endpoint := fmt.Sprintf("%s/v1/documents/%s", c.baseURL, url.PathEscape(documentID))
	respBody, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &CallError{StatusCode: resp.StatusCode, Message: msg}
	}
	return respBody, nil
}
