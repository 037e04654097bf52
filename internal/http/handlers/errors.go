// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and travel in the `code` field of
// ErrorResponse (see response.go). Generic codes mirror HTTP status
// semantics; domain codes name the operation that failed. Clients branch on
// the code, never on the message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "topic not found"
//	}
package handlers

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"

	// Domain-specific:
	ErrCodeInvalidConfig    = "invalid_notification_config"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeIngestFailed     = "ingest_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
