// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error response carries an HTTP status plus one of
// these codes (see fail in response.go).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "external_unavailable",
//	  "message": "external data source unavailable",
//	  "details": {"source": "rates"}
//	}
package handlers

const (
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeExternalUnavailable = "external_unavailable"
	ErrCodeRefreshInProgress   = "refresh_in_progress"
)
