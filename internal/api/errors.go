package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized marks a 401 from the backend. DoAuthorized reacts to it
	// with a single refresh-and-retry; everyone else treats it as terminal.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshFailed means the refresh token was rejected. The session is
	// cleared by the time callers see it; the only recovery is a new login.
	ErrRefreshFailed = errors.New("session refresh failed")
)

// ValidationError carries field-level messages, either from local checks that
// short-circuit before any network call or from a 400 response body.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	var sb strings.Builder

	for i, f := range fields {
		if i > 0 {
			sb.WriteString("; ")
		}

		sb.WriteString(f + ": " + strings.Join(e.Fields[f], ", "))
	}

	return sb.String()
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// StatusError is a non-2xx response that is not a field-validation failure.
// Codes >= 500 indicate a server-side fault.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
	}

	return fmt.Sprintf("request failed with status %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	return nil
}

// parseError maps a non-2xx response body to the error taxonomy. The backend
// speaks DRF: messages arrive as {"detail": ...}, {"non_field_errors": [...]},
// {"error": ...}, or per-field arrays on 400s.
func parseError(status int, body []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return &StatusError{Code: status}
	}

	if msg := stringField(payload, "detail"); msg != "" {
		return &StatusError{Code: status, Message: msg}
	}

	if msg := stringField(payload, "error"); msg != "" {
		return &StatusError{Code: status, Message: msg}
	}

	fields := make(map[string][]string)

	for key, raw := range payload {
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err == nil && len(msgs) > 0 {
			fields[key] = msgs
		}
	}

	if msgs, ok := fields["non_field_errors"]; ok {
		return &StatusError{Code: status, Message: msgs[0]}
	}

	if status == http.StatusBadRequest && len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return &StatusError{Code: status}
}

func stringField(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return s
}
