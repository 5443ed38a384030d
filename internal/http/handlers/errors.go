// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics. Domain codes
// name failures the status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "forbidden",
//	  "message": "not a member of this group"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodePersistence        = "persistence_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)

// User-facing messages that must not leak internal detail.
const (
	msgInvalidCredentials = "Invalid student ID or name"
	msgNotLoggedIn        = "not logged in"
	msgSaveFailed         = "Failed to save, please try again."
	msgInternal           = "internal server error"
)
