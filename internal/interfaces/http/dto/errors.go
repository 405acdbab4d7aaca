package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeClaimNotFound       = "ERR_CLAIM_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeLocationConflict  = "ERR_LOCATION_CONFLICT"
	ErrCodeOverRelease       = "ERR_OVER_RELEASE"
	ErrCodeInvalidQuantity   = "ERR_INVALID_QUANTITY"
	ErrCodeNoEligibleTarget  = "ERR_NO_ELIGIBLE_TARGET"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Malformed or incomplete input -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Missing resources -> 404 Not Found
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeClaimNotFound: http.StatusNotFound,

	// Conflicting writes -> 409 Conflict
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Well-formed requests the business rules reject -> 422 Unprocessable Entity
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeLocationConflict:  http.StatusUnprocessableEntity,
	ErrCodeOverRelease:       http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:   http.StatusUnprocessableEntity,
	ErrCodeNoEligibleTarget:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error; in particular, FATAL
// consistency violations surface as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to their API representation
var DomainErrorCodeMapping = map[string]string{
	"VALIDATION_ERROR":       ErrCodeValidation,
	"NOT_FOUND":              ErrCodeNotFound,
	"CLAIM_NOT_FOUND":        ErrCodeClaimNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_STATE":          ErrCodeConflict,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"OPTIMISTIC_LOCK_FAILED": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":     ErrCodeInsufficientStock,
	"LOCATION_CONFLICT":      ErrCodeLocationConflict,
	"OVER_RELEASE":           ErrCodeOverRelease,
	"INVALID_QUANTITY":       ErrCodeInvalidQuantity,
	"NO_ELIGIBLE_TARGET":     ErrCodeNoEligibleTarget,
	"INVALID_INPUT":          ErrCodeBadRequest,
	"FATAL":                  ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized API
// format. Codes already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
