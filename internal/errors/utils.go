package errors

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/sessions"
)

// error categories for classification
const (
	CategoryConfig     = "config"
	CategoryUpstream   = "upstream"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryUnknown    = "unknown"
)

type ErrorInfo struct {
	category  string
	code      string
	status    int
	sanitized string
}

// analyzes an error and returns its category, status and sanitized message
func classifyError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{CategoryUnknown, CodeServerError, http.StatusInternalServerError, ""}
	}

	isProduction := os.Getenv("ENVIRONMENT") == "production"

	var (
		cfgErr       *llm.ConfigError
		upstreamErr  *llm.UpstreamError
		exhaustedErr *llm.RetryExhaustedError
	)

	switch {
	case errors.As(err, &cfgErr):
		return ErrorInfo{
			category:  CategoryConfig,
			code:      CodeServiceUnavailable,
			status:    http.StatusServiceUnavailable,
			sanitized: ternary(isProduction, "llm service is not configured", err.Error()),
		}

	case errors.As(err, &upstreamErr):
		return ErrorInfo{
			category:  CategoryUpstream,
			code:      CodeUpstreamError,
			status:    http.StatusBadGateway,
			sanitized: ternary(isProduction, "llm service rejected the request", err.Error()),
		}

	case errors.Is(err, llm.ErrAttemptTimeout), errors.Is(err, llm.ErrIdleTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorInfo{
			category:  CategoryTimeout,
			code:      CodeTimeout,
			status:    http.StatusGatewayTimeout,
			sanitized: ternary(isProduction, "request timed out", err.Error()),
		}

	case errors.As(err, &exhaustedErr):
		return ErrorInfo{
			category:  CategoryNetwork,
			code:      CodeUpstreamError,
			status:    http.StatusBadGateway,
			sanitized: ternary(isProduction, "llm service unavailable", err.Error()),
		}

	case errors.Is(err, context.Canceled):
		return ErrorInfo{
			category:  CategoryTimeout,
			code:      CodeTimeout,
			status:    http.StatusRequestTimeout,
			sanitized: ternary(isProduction, "request canceled", err.Error()),
		}

	case errors.Is(err, sessions.ErrManagerClosed):
		return ErrorInfo{
			category:  CategoryUnknown,
			code:      CodeServiceUnavailable,
			status:    http.StatusServiceUnavailable,
			sanitized: "server is shutting down",
		}

	case errors.Is(err, agent.ErrContextMissing), errors.Is(err, sessions.ErrInvalidID):
		return ErrorInfo{
			category:  CategoryValidation,
			code:      CodeValidationError,
			status:    http.StatusBadRequest,
			sanitized: err.Error(),
		}

	case errors.Is(err, agent.ErrNoHandler), errors.Is(err, sessions.ErrSessionNotFound):
		return ErrorInfo{
			category:  CategoryNotFound,
			code:      CodeNotFound,
			status:    http.StatusNotFound,
			sanitized: err.Error(),
		}
	}

	return ErrorInfo{
		category:  CategoryUnknown,
		code:      CodeServerError,
		status:    http.StatusInternalServerError,
		sanitized: sanitizeError(err),
	}
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	if os.Getenv("ENVIRONMENT") != "production" {
		return errMsg
	}

	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network") || strings.Contains(lower, "dial"):
		return "connection error occurred"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return "request timed out"
	case strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized"):
		return "permission denied"
	case strings.Contains(lower, "not found"):
		return "resource not found"
	default:
		return "an error occurred"
	}
}

// message safe to show to clients of an already-open stream
func PublicMessage(err error) string {
	return classifyError(err).sanitized
}

// HTTP status that best describes err
func StatusCode(err error) int {
	return classifyError(err).status
}

// ternary helper for cleaner conditional assignment
func ternary(condition bool, trueVal, falseVal string) string {
	if condition {
		return trueVal
	}

	return falseVal
}
