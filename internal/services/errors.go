// Package services defines the business logic for configuration management
// and report generation. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrFieldNotFound indicates that the requested field id does not exist
	// in the current configuration.
	ErrFieldNotFound = errors.New("field not found")

	// ErrCategoryNotFound indicates that the requested category id does not
	// exist in the current configuration.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidScores is returned when submit-time validation failed for at
	// least one field. The per-field messages accompany it.
	ErrInvalidScores = errors.New("one or more scores are invalid")

	// ErrStoreSave indicates the configuration store rejected a save. The
	// in-memory mutation that triggered it is kept (optimistic local state)
	// and the affected entity is marked dirty; callers surface this as a
	// warning rather than rolling back.
	ErrStoreSave = errors.New("configuration store save failed")
)
