// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by all endpoints: the
// structured error envelope, error-to-status mapping, and small success
// helpers.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - fail() centralizes error logging and formatting; 5xx responses are
//     logged with request context. Internal error text is logged, never sent.
//   - ok() and noContent() write success responses.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "country not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-country-cache/internal/external"
	"github.com/tbourn/go-country-cache/internal/http/middleware"
	"github.com/tbourn/go-country-cache/internal/services"
	"github.com/tbourn/go-country-cache/internal/snapshot"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"country not found"`
	// Optional structured context, e.g. per-field validation messages
	Details map[string]string `json:"details,omitempty" swaggertype:"object,string" example:"sort:must be one of gdp_desc, gdp_asc, name_asc, name_desc"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged using the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWithDetails(c, status, code, msg, nil)
}

func failWithDetails(c *gin.Context, status int, code, msg string, details map[string]string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Details:   details,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		ev := lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg)
		if len(c.Errors) > 0 {
			ev = ev.Str("cause", c.Errors.Last().Error())
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error to its HTTP status and code. Unrecognized
// errors become 500 internal_error; their text goes to the log only.
func failErr(c *gin.Context, err error) {
	var srcErr *external.SourceError
	switch {
	case errors.Is(err, services.ErrInvalidSort):
		failWithDetails(c, http.StatusBadRequest, ErrCodeValidation, "validation failed",
			map[string]string{"sort": "must be one of gdp_desc, gdp_asc, name_asc, name_desc"})
	case errors.Is(err, services.ErrCountryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "country not found")
	case errors.Is(err, snapshot.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "summary image not found")
	case errors.Is(err, services.ErrRefreshInProgress):
		fail(c, http.StatusConflict, ErrCodeRefreshInProgress, "a refresh is already in progress")
	case errors.As(err, &srcErr):
		_ = c.Error(err)
		failWithDetails(c, http.StatusServiceUnavailable, ErrCodeExternalUnavailable,
			"external data source unavailable", map[string]string{"source": srcErr.Source})
	case errors.Is(err, external.ErrExternalUnavailable):
		_ = c.Error(err)
		fail(c, http.StatusServiceUnavailable, ErrCodeExternalUnavailable, "external data source unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
