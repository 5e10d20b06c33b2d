package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ErrorKind classifies domain errors so transports can map them to a status.
type ErrorKind int

const (
	// KindNotFound means the referenced product, coupon or discount is absent
	// or already in the terminal state for the operation.
	KindNotFound ErrorKind = iota + 1
	// KindConflict means a uniqueness or exclusivity rule would be violated.
	KindConflict
	// KindInvalidInput means a malformed or out-of-range value was rejected
	// before any mutation.
	KindInvalidInput
	// KindUnprocessable means the input is well-formed but cannot be
	// satisfied in the current state.
	KindUnprocessable
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidInput:
		return "InvalidInput"
	case KindUnprocessable:
		return "Unprocessable"
	default:
		return "Unknown"
	}
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeInvalidParameter     = "INVALID_PARAMETER"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeProductNameTaken     = "PRODUCT_NAME_TAKEN"
	ErrCodeInvalidProduct       = "INVALID_PRODUCT"
	ErrCodeCouponNotFound       = "COUPON_NOT_FOUND"
	ErrCodeCouponCodeTaken      = "COUPON_CODE_TAKEN"
	ErrCodeCouponCodeReserved   = "COUPON_CODE_RESERVED"
	ErrCodeInvalidCoupon        = "INVALID_COUPON"
	ErrCodeCouponNotValidNow    = "COUPON_NOT_VALID_NOW"
	ErrCodeDiscountActive       = "DISCOUNT_ALREADY_ACTIVE"
	ErrCodeDiscountNotFound     = "DISCOUNT_NOT_FOUND"
	ErrCodeInvalidPercentage    = "INVALID_PERCENTAGE"
	ErrCodePriceBelowMinimum    = "PRICE_BELOW_MINIMUM"
	ErrCodeRestoreAffectedNone  = "RESTORE_AFFECTED_NONE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrCodeRouteNotFound        = "ROUTE_NOT_FOUND"
	ErrCodeInvalidPaginationArg = "INVALID_PAGINATION"
)

// DomainError is a business rule failure surfaced to the caller.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NotFound creates a KindNotFound error.
func NotFound(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// Conflict creates a KindConflict error.
func Conflict(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// InvalidInput creates a KindInvalidInput error.
func InvalidInput(code, message string) *DomainError {
	return NewDomainError(KindInvalidInput, code, message)
}

// Unprocessable creates a KindUnprocessable error.
func Unprocessable(code, message string) *DomainError {
	return NewDomainError(KindUnprocessable, code, message)
}

// AsDomainError unwraps err into a *DomainError when possible.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == kind
}

// Common domain errors
var (
	ErrProductNotFound   = NotFound(ErrCodeProductNotFound, "product not found")
	ErrCouponNotFound    = NotFound(ErrCodeCouponNotFound, "coupon not found")
	ErrNoActiveDiscount  = NotFound(ErrCodeDiscountNotFound, "no active discount to remove")
	ErrDiscountActive    = Conflict(ErrCodeDiscountActive, "product already has an active discount")
	ErrCouponNotValidNow = Unprocessable(ErrCodeCouponNotValidNow, "coupon is not valid at this time")
	ErrPriceBelowMinimum = Unprocessable(ErrCodePriceBelowMinimum, "resulting price below minimum of 0.01")
	ErrInvalidPercentage = InvalidInput(ErrCodeInvalidPercentage, "percentage must be between 1 and 80")
)
