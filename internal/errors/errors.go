package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/logger"
)

// How failures reach the editor:
//
// REST handlers answer with one of the helpers below. InternalError and
// FromError (for 5xx) log the underlying error themselves, so handlers must
// not log it again.
//
// Once an SSE or websocket stream is open the status line is gone; the error
// is sent as a stream event carrying PublicMessage(err) and logged once.
//
// Everything below the HTTP layer returns wrapped errors
// (fmt.Errorf("...: %w", err)) and leaves logging to the caller. The agent
// dispatcher is the exception: it logs the handler failures it folds into a
// failed Response.

// body of every non-2xx JSON reply
type ErrorResponse struct {
	Error   string `json:"error"`             // machine readable code, e.g. "upstream_error"
	Message string `json:"message"`           // shown to the user
	Details string `json:"details,omitempty"` // sanitized in production
}

const (
	CodeNotFound           = "not_found"
	CodeValidationError    = "validation_error"
	CodeServerError        = "server_error"
	CodeBadRequest         = "bad_request"
	CodeTooManyRequests    = "too_many_requests"
	CodeSessionNotFound    = "session_not_found"
	CodeUpstreamError      = "upstream_error"
	CodeServiceUnavailable = "service_unavailable"
	CodeTimeout            = "timeout"
)

func respond(c *gin.Context, status int, code, message string, err error) {
	response := ErrorResponse{Error: code, Message: message}

	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(status, response)
}

func logFailure(c *gin.Context, err error, message string, args ...any) {
	args = append([]any{"path", c.Request.URL.Path, "method", c.Request.Method}, args...)
	logger.ErrorErr(err, message, args...)
}

// 400 for requests that could not be understood
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	respond(c, http.StatusBadRequest, CodeBadRequest, message, err)
}

// 400 for bodies that failed binding
func ValidationError(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, CodeValidationError, "request validation failed", err)
}

// 500; logs err with the request path
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	logFailure(c, err, message)
	respond(c, http.StatusInternalServerError, CodeServerError, message, err)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	respond(c, http.StatusTooManyRequests, CodeTooManyRequests, message, nil)
}

// 503 while the server drains
func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusServiceUnavailable, CodeServiceUnavailable, message, nil)
}

func SessionNotFound(c *gin.Context) {
	respond(c, http.StatusNotFound, CodeSessionNotFound, "session not found", nil)
}

// maps a transport, session or agent failure to its HTTP status and writes it
func FromError(c *gin.Context, message string, err error) {
	info := classifyError(err)

	if info.status >= http.StatusInternalServerError {
		logFailure(c, err, message, "category", info.category)
	}

	if message == "" {
		message = info.sanitized
	}

	c.JSON(info.status, ErrorResponse{
		Error:   info.code,
		Message: message,
		Details: info.sanitized,
	})
}
