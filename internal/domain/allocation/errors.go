package allocation

import (
	"errors"
	"fmt"

	"github.com/stockalloc/engine/internal/domain/shared"
)

// Error codes surfaced by the allocation engine. Every expected business
// failure is returned as a *shared.DomainError carrying one of these codes;
// FATAL is reserved for invariant violations that indicate a defect.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeLocationConflict  = "LOCATION_CONFLICT"
	CodeClaimNotFound     = "CLAIM_NOT_FOUND"
	CodeOverRelease       = "OVER_RELEASE"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeNoEligibleTarget  = "NO_ELIGIBLE_TARGET"
	CodeFatal             = "FATAL"
)

// MetaProjectCode is the metadata key carrying the project code that holds a
// conflicting claim, so callers can offer reallocation instead.
const MetaProjectCode = "project_code"

// NewValidationError creates a validation error for malformed or incomplete requests
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

// NewInsufficientStockError reports that a location cannot cover the requested quantity
func NewInsufficientStockError(location string, available, requested int64) *shared.DomainError {
	return shared.NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock at %s: available=%d, requested=%d", location, available, requested))
}

// NewLocationConflictError reports that a location is already claimed by another project
func NewLocationConflictError(location, holderProject string) *shared.DomainError {
	return shared.NewDomainError(CodeLocationConflict,
		fmt.Sprintf("location %s is already claimed by project %s", location, holderProject)).
		WithMeta(MetaProjectCode, holderProject)
}

// NewFatalError reports an internal consistency violation. These must never
// occur under correct sequencing; callers must not retry them.
func NewFatalError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeFatal, message)
}

// ErrClaimNotFound is returned when a claim ID does not resolve to an active claim
var ErrClaimNotFound = shared.NewDomainError(CodeClaimNotFound, "claim not found")

// HasCode reports whether err is a domain error with the given code
func HasCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
