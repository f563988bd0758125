package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fallback messages surfaced when the backend gives no detail.
const (
	FallbackQuote       = "Failed to get quote"
	FallbackTransfer    = "Failed to execute transfer"
	FallbackHistory     = "Failed to get transaction history"
	FallbackProfile     = "Failed to get user profile"
	FallbackUnavailable = "Backend service unavailable"
)

// APIError is returned by every Client operation. Its message is the
// backend-provided detail when there is one, else the operation fallback.
type APIError struct {
	Op       string
	Status   int
	Detail   string
	Fallback string
	Err      error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Fallback
}

func (e *APIError) Unwrap() error { return e.Err }

// Unauthorized reports whether the backend rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Message extracts the user-facing message from any error returned by the
// Client, falling back to fallback for foreign errors.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return fallback
}

// statusError carries a non-2xx response out of the executor.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("backend returned %d", e.status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.status, e.detail)
}

// errorBody is the FastAPI error envelope. detail is either a string or a
// list of validation issues.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var issues []validationIssue
	if err := json.Unmarshal(eb.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			if is.Msg != "" {
				msgs = append(msgs, is.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func wrap(op, fallback string, err error) error {
	apiErr := &APIError{Op: op, Fallback: fallback, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		apiErr.Status = se.status
		apiErr.Detail = se.detail
	}
	return apiErr
}
