// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. The constants below form the stable, machine-readable taxonomy
// clients branch on; every error response pairs one of them with an HTTP
// status via the `fail()` helper.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes cover business failures a status alone cannot
//     convey (e.g. validation_failed carries a per-field error map).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeImportFailed     = "import_failed"
	ErrCodeExportFailed     = "export_failed"
	ErrCodeGenerateFailed   = "generate_failed"
	ErrCodeDraftFailed      = "draft_failed"
)
