package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/sessions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"config", &llm.ConfigError{Field: "api_key", Reason: "missing"}, http.StatusServiceUnavailable, CategoryConfig},
		{"upstream", &llm.UpstreamError{StatusCode: 404, Body: "nope"}, http.StatusBadGateway, CategoryUpstream},
		{"exhausted", &llm.RetryExhaustedError{Attempts: 3, Last: &llm.TransientError{StatusCode: 502}}, http.StatusBadGateway, CategoryNetwork},
		{"attempt timeout", &llm.RetryExhaustedError{Attempts: 3, Last: &llm.TransientError{Err: llm.ErrAttemptTimeout}}, http.StatusGatewayTimeout, CategoryTimeout},
		{"idle", fmt.Errorf("stream: %w", llm.ErrIdleTimeout), http.StatusGatewayTimeout, CategoryTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout, CategoryTimeout},
		{"context missing", &agent.HandlerError{Err: agent.ErrContextMissing}, http.StatusBadRequest, CategoryValidation},
		{"manager closed", sessions.ErrManagerClosed, http.StatusServiceUnavailable, CategoryUnknown},
		{"invalid session", sessions.ErrInvalidID, http.StatusBadRequest, CategoryValidation},
		{"session missing", sessions.ErrSessionNotFound, http.StatusNotFound, CategoryNotFound},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := classifyError(tt.err)
			assert.Equal(t, tt.status, info.status)
			assert.Equal(t, tt.category, info.category)
			assert.Equal(t, tt.status, StatusCode(tt.err))
		})
	}
}

func TestSanitizeInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	assert.Equal(t, "connection error occurred", sanitizeError(fmt.Errorf("dial tcp: connection refused")))
	assert.Equal(t, "an error occurred", sanitizeError(fmt.Errorf("secret detail")))
	assert.Equal(t, "llm service rejected the request", PublicMessage(&llm.UpstreamError{StatusCode: 401, Body: "bad key abc"}))

	t.Setenv("ENVIRONMENT", "development")
	assert.Equal(t, "secret detail", sanitizeError(fmt.Errorf("secret detail")))
}

func TestFromErrorWritesResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/agent/action", nil)

	FromError(c, "", &llm.UpstreamError{StatusCode: 500, Body: "down"})

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeUpstreamError, resp.Error)
	assert.Contains(t, resp.Message, "status 500")
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequest(c, "", fmt.Errorf("missing message"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad_request","message":"invalid request","details":"missing message"}`, w.Body.String())
}
