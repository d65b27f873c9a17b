package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/api/middleware"
	"github.com/felixgeelhaar/academiax/internal/domain"
)

// Error codes
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is the failure envelope every endpoint answers with:
// {"success": false, "message": ..., "code": ..., "error": ...}.
type APIError struct {
	Code    string
	Message string
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NewAPIError creates a new API error
func NewAPIError(code string, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithCause wraps an underlying error. Its text is returned to the client
// as "error".
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// ErrorResponse is the JSON structure for error responses
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError) {
	logAttrs := []any{
		"code", apiErr.Code,
		"message", apiErr.Message,
		"status", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
	}

	resp := ErrorResponse{
		Success: false,
		Message: apiErr.Message,
		Code:    apiErr.Code,
	}
	if apiErr.cause != nil {
		resp.Error = apiErr.cause.Error()
		logAttrs = append(logAttrs, "cause", resp.Error)
	}

	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		logAttrs = append(logAttrs, "request_id", requestID)
	}

	// Log at appropriate level based on status code
	if statusCode >= 500 {
		slog.Error("api error", logAttrs...)
	} else if statusCode >= 400 {
		slog.Warn("api error", logAttrs...)
	}

	WriteJSON(w, statusCode, resp)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Envelope is the success shape {"success": true, "message"?: ..., "data"?: ...}.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK writes {"success": true, "data": data}.
func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Helper functions for common responses
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusBadRequest, NewAPIError(CodeBadRequest, message))
}

func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusNotFound, NewAPIError(CodeNotFound, message))
}

func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusUnauthorized, NewAPIError(CodeUnauthorized, message))
}

func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusForbidden, NewAPIError(CodeForbidden, message))
}

func InternalError(w http.ResponseWriter, r *http.Request, message string, cause error) {
	WriteError(w, r, http.StatusInternalServerError, NewAPIError(CodeInternal, message).WithCause(cause))
}

// Fail maps a domain error onto its status code. message is used for
// client errors; server errors use fallback and relay err as "error".
func Fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := domain.StatusCode(err)
	switch status {
	case http.StatusBadRequest:
		BadRequest(w, r, message)
	case http.StatusNotFound:
		NotFound(w, r, message)
	case http.StatusUnauthorized:
		Unauthorized(w, r, domain.ErrUnauthenticated.Error())
	case http.StatusForbidden:
		Forbidden(w, r, domain.ErrForbidden.Error())
	default:
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// Client went away; nothing useful to send
			slog.Debug("request canceled", "path", r.URL.Path, "error", err)
			return
		}
		InternalError(w, r, message, err)
	}
}
