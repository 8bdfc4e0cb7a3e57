package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns:
//
//	{"error": "...", "details": {...}}
//
// error is the human-readable description; details, when present, is the raw
// upstream response body that caused the failure, enough for the caller to
// diagnose a GitHub-side rejection without reading server logs.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body; after the first byte
// of body they are immutable.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// The service layer knows nothing about HTTP; this is the single place where
// apperror kinds become status codes:
//
//	validation → 400, unknown user → 404, failed GitHub call → 502
//
// Unknown errors become a generic 500; raw internal error strings (SQL,
// file paths) are never exposed to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
		}

		writeJSON(w, status, ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "An internal error occurred",
	})
}

// writeCallbackError is writeError with one remapping: on the OAuth callback
// an upstream rejection (bad or expired authorization code, failed identity
// fetch) is the client's fault, so it comes back as 400 rather than the 502
// the provisioning endpoint uses. The {error, details} body is unchanged.
func writeCallbackError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrUpstream) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	writeError(w, err)
}
