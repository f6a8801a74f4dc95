package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the planning service. Detail carries
// the server's human-readable message when one was provided.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("planner API: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("planner API: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the error is a 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newAPIError(statusCode int, body []byte) *APIError {
	// The planning service reports errors as {"detail": "..."}.
	var payload struct {
		Detail string `json:"detail"`
		Err    string `json:"error"`
	}
	detail := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		detail = payload.Detail
		if detail == "" {
			detail = payload.Err
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
	}
	return &APIError{StatusCode: statusCode, Detail: detail}
}
