// Package services defines the business logic for the country cache: record
// transformation, reconciliation, refresh orchestration and read queries.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrCountryNotFound indicates that no stored country matches the
	// requested name.
	ErrCountryNotFound = errors.New("country not found")

	// ErrInvalidSort is returned when a list request names an unknown sort
	// order.
	ErrInvalidSort = errors.New("invalid sort order")

	// ErrRefreshInProgress is returned when a refresh is requested while
	// another one holds the refresh lock.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)
