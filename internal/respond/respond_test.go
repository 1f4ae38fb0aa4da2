package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsy/internal/apperrors"
)

func TestAppError_InternalIsOpaque(t *testing.T) {
	var logs bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req = req.WithContext(WithRequestID(req.Context(), "req-123"))
	rec := httptest.NewRecorder()

	AppError(rec, req, zerolog.New(&logs), apperrors.Internal(errors.New("Error 1045: Access denied for user 'shop'@'10.0.0.7'")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Access denied")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error)
	assert.Equal(t, "An internal error occurred", body.Message)
	assert.Equal(t, "req-123", body.CorrelationID)

	assert.Contains(t, logs.String(), "Access denied")
	assert.Contains(t, logs.String(), "req-123")
}

func TestAppError_UnclassifiedErrorGetsGeneratedCorrelationID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	AppError(rec, req, zerolog.Nop(), errors.New("boom"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestAppError_ClientErrorsKeepMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	AppError(rec, req, zerolog.Nop(), apperrors.Conflict("a user with this email already exists"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", body.Error)
	assert.Equal(t, "a user with this email already exists", body.Message)
	assert.Empty(t, body.CorrelationID)
}
