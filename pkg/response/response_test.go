package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

func TestErrorMasksInternalFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Internal(errors.New("pq: duplicate key value violates unique constraint"), "failed to create account"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.NotContains(t, w.Body.String(), "failed to create account")

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Message)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)

	stored, ok := c.Get(ErrorContextKey)
	require.True(t, ok)
	assert.Error(t, stored.(error))
}

func TestErrorKeepsServiceUnavailableCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "metrics are disabled"))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	assert.Equal(t, "metrics are disabled", body.Message)
}

func TestErrorKeepsDomainMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrValidation, "Password must be at least 6 characters"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Password must be at least 6 characters", body.Message)
	assert.Equal(t, http.StatusBadRequest, body.Error.Status)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Created(c, "done", gin.H{"id": "1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"done"`)
}
