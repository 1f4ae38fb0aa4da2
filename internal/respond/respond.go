// Package respond writes JSON responses and maps application errors to
// user-safe error envelopes.
package respond

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopsy/internal/apperrors"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type ctxKey struct{}

// WithRequestID stores the request id used to correlate logs and responses.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func JSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func Error(w http.ResponseWriter, code int, errorCode, message string) {
	JSON(w, code, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// AppError renders err. Opaque kinds are logged with a correlation id and
// the caller only sees a generic message and that id.
func AppError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	appErr := apperrors.From(err)
	status := appErr.Kind.HTTPStatus()

	if !appErr.Kind.Opaque() {
		Error(w, status, appErr.Code, appErr.Message)
		return
	}

	correlationID := RequestID(r.Context())
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger.Error().
		Err(err).
		Str("correlation_id", correlationID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("kind", appErr.Kind.String()).
		Msg("Request failed")

	JSON(w, status, ErrorResponse{
		Error:         appErr.Code,
		Message:       appErr.Message,
		CorrelationID: correlationID,
	})
}
