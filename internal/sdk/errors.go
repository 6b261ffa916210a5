package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Error is a failed data-plane response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("data plane returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// IsThrottled reports a 429, or a 400 whose message carries the request rate
// signal.
func IsThrottled(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Message), "request rate is large")
}

func parseError(resp *http.Response, body []byte) *Error {
	e := &Error{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Code != "" {
		e.Code = parsed.Code
		e.Message = parsed.Message
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	if ms := resp.Header.Get(HeaderRetryAfterMs); ms != "" {
		var n int
		if _, err := fmt.Sscanf(ms, "%d", &n); err == nil {
			e.RetryAfter = time.Duration(n) * time.Millisecond
		}
	}
	return e
}
