package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrUpstream   = errors.New("upstream error")
)

type AppError struct {
	Err     error           // actual error
	Message string          // Human-readable error message
	Field   string          // Optional: field causing the error
	Status  int             // Optional: HTTP status returned by the upstream API
	Details json.RawMessage // Optional: raw upstream response body for diagnostics
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Upstream returns an AppError for a failed call to GitHub (OAuth or REST).
// The upstream status and raw response body are preserved so the caller can
// diagnose the failure without reading server logs. HTTP handlers map this
// to 502 Bad Gateway and surface the details field verbatim.
func Upstream(message string, status int, body []byte) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
		Status:  status,
		Details: detailsJSON(body),
	}
}

// detailsJSON makes an upstream body safe to embed in a JSON response.
// GitHub normally answers with JSON, which is kept as-is; anything else
// (HTML error pages, truncated bodies) is wrapped as a JSON string.
func detailsJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}
