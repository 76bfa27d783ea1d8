// Package errors provides unified error handling for blobkit.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807 and Google AIP-193.
//
// The storage facade reports every failure as an *AppError:
//
//	INVALID_INPUT / MISSING_FIELD  caller error, never retried
//	NOT_FOUND                      object absent
//	SERVICE_UNAVAILABLE            remote storage call failed
package errors
