// Package googlewallet is a minimal client for the Google Wallet generic pass REST API.
//
// Only the four calls the coupon workflow needs are covered: reading and creating
// generic classes and generic objects. Every call is bearer authenticated with a
// token supplied by the caller, and every non-2xx answer becomes an *UpstreamError
// carrying the provider's status and body verbatim.
package googlewallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/placemaking/walletpass/internal/logging"
	"github.com/placemaking/walletpass/internal/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpGetClass     = "class.get"
	OpCreateClass  = "class.create"
	OpCreateObject = "object.create"
	OpGetObject    = "object.get"
)

// UpstreamError is a rejected provider call.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("google wallet %s: status %d: %s", e.Op, e.Status, e.Body)
}

// StatusOf returns the provider status carried by err, or 0.
func StatusOf(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}

// IsNotFound reports a 404 from the provider.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// IsConflict reports a 409 from the provider.
func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }

// IsUnauthorized reports a 401 from the provider.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// Client calls the Wallet Objects API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client rooted at baseURL (…/walletobjects/v1).
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// GetClass reads a generic class by id.
func (c *Client) GetClass(ctx context.Context, token, id string) (GenericClass, error) {
	var out GenericClass
	err := c.do(ctx, OpGetClass, token, http.MethodGet, "/genericClass/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CreateClass inserts a generic class.
func (c *Client) CreateClass(ctx context.Context, token string, class GenericClass) (GenericClass, error) {
	var out GenericClass
	err := c.do(ctx, OpCreateClass, token, http.MethodPost, "/genericClass", class, &out)
	return out, err
}

// CreateObject inserts a generic object and returns the stored representation.
func (c *Client) CreateObject(ctx context.Context, token string, obj GenericObject) (GenericObject, error) {
	var out GenericObject
	err := c.do(ctx, OpCreateObject, token, http.MethodPost, "/genericObject", obj, &out)
	return out, err
}

// GetObject reads a generic object by id.
func (c *Client) GetObject(ctx context.Context, token, id string) (GenericObject, error) {
	var out GenericObject
	err := c.do(ctx, OpGetObject, token, http.MethodGet, "/genericObject/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, token, method, path string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(op, 0)
		return fmt.Errorf("google wallet %s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(op, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	c.logger.Debug("google wallet call", slog.String("op", op), slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Body: string(respBody)}
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("google wallet %s: failed to unmarshal response body: %w", op, err)
		}
	}
	return nil
}
