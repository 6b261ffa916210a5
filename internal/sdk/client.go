package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Data-plane headers.
const (
	HeaderDate                   = "x-ms-date"
	HeaderVersion                = "x-ms-version"
	HeaderRetryAfterMs           = "x-ms-retry-after-ms"
	HeaderContinuation           = "x-ms-continuation"
	HeaderOfferReplacePending    = "x-ms-offer-replace-pending"
	HeaderPopulateThroughputInfo = "x-ms-documentdb-populatecollectionthroughputinfo"
	HeaderMigrateToAutopilot     = "x-ms-cosmos-migrate-offer-to-autopilot"
	HeaderMigrateToManual        = "x-ms-cosmos-migrate-offer-to-manual-throughput"
	HeaderOfferThroughput        = "x-ms-offer-throughput"
	HeaderOfferAutopilotSettings = "x-ms-cosmos-offer-autopilot-settings"
	HeaderEncryptedAuthToken     = "x-ms-encrypted-auth-token"
	apiVersion                   = "2018-12-31"
)

// RetryPolicy bounds retries of throttled requests.
type RetryPolicy struct {
	// MaxAttempts is the number of retries after the first attempt.
	MaxAttempts int
	// Interval, when set, replaces the server's retry-after hint.
	Interval time.Duration
}

// Client talks to the data-plane REST endpoint of one account.
type Client struct {
	httpClient *http.Client
	endpoint   string
	tokens     TokenProvider
	retry      RetryPolicy
	now        func() time.Time
}

// NewClient creates a data-plane client for endpoint.
func NewClient(endpoint string, tokens TokenProvider, retry RetryPolicy, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		tokens:     tokens,
		retry:      retry,
		now:        time.Now,
	}
}

type request struct {
	method       string
	path         string
	resourceType string
	resourceID   string
	headers      map[string]string
	body         any
}

type response struct {
	header http.Header
	body   []byte
}

// do sends the request, retrying throttled responses per the retry policy.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	var payload []byte
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = raw
	}

	wait := &throttleBackOff{interval: c.retry.Interval}
	policy := backoff.WithContext(backoff.WithMaxRetries(wait, uint64(max(c.retry.MaxAttempts, 0))), ctx)

	var resp *response
	err := backoff.RetryNotify(func() error {
		out, err := c.send(ctx, r, payload)
		if err != nil {
			if !IsThrottled(err) {
				return backoff.Permanent(err)
			}
			var e *Error
			if errors.As(err, &e) {
				wait.hint = e.RetryAfter
			}
			return err
		}
		resp = out
		return nil
	}, policy, func(_ error, d time.Duration) {
		slog.Debug("sdk: request throttled, retrying", "path", r.path, "wait", d.String())
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// throttleBackOff waits for the configured interval, or for the server's
// retry-after hint of the last throttled response.
type throttleBackOff struct {
	interval time.Duration
	hint     time.Duration
}

func (b *throttleBackOff) NextBackOff() time.Duration {
	if b.interval > 0 {
		return b.interval
	}
	return b.hint
}

func (b *throttleBackOff) Reset() { b.hint = 0 }

func (c *Client) send(ctx context.Context, r request, payload []byte) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint+"/"+r.path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	date := strings.ToLower(c.now().UTC().Format(http.TimeFormat))
	auth, err := c.tokens.Authorize(ctx, RequestInfo{
		Verb:         r.method,
		ResourceType: r.resourceType,
		ResourceID:   r.resourceID,
		Date:         date,
	})
	if err != nil {
		return nil, err
	}
	if auth.Date != "" {
		date = auth.Date
	}

	req.Header.Set("Authorization", auth.Token)
	req.Header.Set(HeaderDate, date)
	req.Header.Set(HeaderVersion, apiVersion)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s /%s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp, raw)
	}
	return &response{header: resp.Header, body: raw}, nil
}
