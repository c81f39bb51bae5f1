package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taskflow/taskflow-api/internal/redact"
)

// Response is the envelope every endpoint answers with. Success carries
// Message and usually Data; failure carries Message and optionally the
// per-field validation Errors.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithSuccess writes a success envelope with the given payload.
func RespondWithSuccess(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	RespondWithJSON(w, r, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithError writes an error envelope with the given message. The
// trace ID from the request context is included so clients can quote it.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, Response{
		Success: false,
		Message: message,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithValidationErrors writes a 400 envelope listing the
// per-field validation failures.
func RespondWithValidationErrors(w http.ResponseWriter, r *http.Request, fieldErrors []string) {
	RespondWithJSON(w, r, http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Errors:  fieldErrors,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithErrorAndLog writes a sanitized error envelope and logs the
// underlying error with request context. The raw error never reaches
// the client.
//
// Log level strategy: 5xx at ERROR, everything else at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, Response{
		Success: false,
		Message: userMessage,
		TraceID: traceID,
	})
}
