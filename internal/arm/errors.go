package arm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupported is returned for operations a resource family does not offer.
var ErrUnsupported = errors.New("operation not supported by the management API")

// Error is a failed management-plane response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("management API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("management API returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsMethodNotAllowed reports whether err rejects an operation that does not
// apply to the current offer shape.
func IsMethodNotAllowed(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == "MethodNotAllowed" || e.StatusCode == http.StatusMethodNotAllowed
}

func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == "NotFound" || e.StatusCode == http.StatusNotFound
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

type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Error   *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// parseError builds an Error from either the flat or the wrapped envelope.
// Bodies that are not JSON become the message verbatim.
func parseError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}
	if parsed.Error != nil {
		e.Code = rawString(parsed.Error.Code)
		e.Message = parsed.Error.Message
		return e
	}
	e.Code = rawString(parsed.Code)
	e.Message = parsed.Message
	return e
}

// rawString accepts a JSON string or number.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
