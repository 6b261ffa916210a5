package arm

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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
)

const (
	DefaultEndpoint   = "https://management.azure.com"
	DefaultAPIVersion = "2020-04-01"
)

// Client issues management-plane requests and follows long-running operations.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	apiVersion   string
	pollInterval time.Duration
	maxPolls     int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the authenticated HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPolling sets the interval and attempt budget for operation polling.
func WithPolling(interval time.Duration, maxPolls int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = maxPolls
	}
}

// NewClient creates a client that authenticates every request with ts.
func NewClient(ctx context.Context, endpoint, apiVersion string, ts oauth2.TokenSource, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	c := &Client{
		httpClient:   oauth2.NewClient(ctx, ts),
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiVersion:   apiVersion,
		pollInterval: time.Second,
		maxPolls:     10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a request to path and decodes the final result into out, which may
// be nil. A Location header on the response is polled until the operation
// reaches a terminal state.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	u, err := url.Parse(c.endpoint + path)
	if err != nil {
		return fmt.Errorf("building management URL: %w", err)
	}
	q := u.Query()
	q.Set("api-version", c.apiVersion)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, raw)
	}

	if location := resp.Header.Get("Location"); location != "" {
		raw, err = c.poll(ctx, location)
		if err != nil {
			return err
		}
	}
	return decode(raw, out)
}

// errOperationRunning marks a status poll that has not reached a terminal state.
var errOperationRunning = errors.New("operation still running")

// poll follows an operation status URL. A 204 ends with no body, a 200 ends
// with the body unless the status is Failed or Canceled, and anything else is
// polled again after the poll interval.
func (c *Client) poll(ctx context.Context, location string) ([]byte, error) {
	polls := max(c.maxPolls, 1)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(polls-1)),
		ctx,
	)

	var (
		result     []byte
		lastStatus string
	)
	err := backoff.Retry(func() error {
		raw, status, err := c.pollOnce(ctx, location)
		if err != nil {
			return err
		}
		if status != "" {
			lastStatus = status
			return errOperationRunning
		}
		result = raw
		return nil
	}, policy)
	if errors.Is(err, errOperationRunning) {
		return nil, fmt.Errorf("operation %s did not complete after %d polls (last status %q)", location, polls, lastStatus)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pollOnce reads the operation status once. A non-empty status means the
// operation is still running; terminal failures are permanent.
func (c *Client) pollOnce(ctx context.Context, location string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", backoff.Permanent(fmt.Errorf("creating operation status request: %w", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("arm: operation status request failed", "location", location, "error", err)
		return nil, "", fmt.Errorf("%w: %v", errOperationRunning, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, "", backoff.Permanent(fmt.Errorf("reading operation status: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", backoff.Permanent(parseError(resp.StatusCode, raw))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, "", nil
	}

	var status struct {
		Status string          `json:"status"`
		Error  json.RawMessage `json:"error"`
	}
	_ = json.Unmarshal(raw, &status)
	switch status.Status {
	case "Failed", "Canceled":
		msg := "Operation could not be completed"
		if len(status.Error) > 0 {
			msg = string(status.Error)
		}
		return nil, "", backoff.Permanent(&Error{StatusCode: resp.StatusCode, Code: status.Status, Message: msg})
	}
	if resp.StatusCode == http.StatusOK {
		return raw, "", nil
	}
	if status.Status == "" {
		return nil, http.StatusText(resp.StatusCode), nil
	}
	return nil, status.Status, nil
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding management response: %w", err)
	}
	return nil
}

// Endpoint returns the management endpoint the client targets.
func (c *Client) Endpoint() string { return c.endpoint }
