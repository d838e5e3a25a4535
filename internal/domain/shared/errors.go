package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomainError extracts a *DomainError from err, if it is one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Error codes for the ledger core. These are caller-visible, recoverable
// conditions: the HTTP layer maps them to status codes and returns them
// verbatim for user-facing messaging.
const (
	CodeNotFound                  = "NOT_FOUND"
	CodeInvalidInput              = "INVALID_INPUT"
	CodeInvalidState              = "INVALID_STATE"
	CodeInsufficientStock         = "INSUFFICIENT_STOCK"
	CodeInsufficientBatchQuantity = "INSUFFICIENT_BATCH_QUANTITY"
	CodeBatchNotFound             = "BATCH_NOT_FOUND"
	CodeSaleNotFound              = "SALE_NOT_FOUND"
	CodeSaleAlreadyCanceled       = "SALE_ALREADY_CANCELED"
	CodeReversalRequiresRefund    = "REVERSAL_REQUIRES_REFUND"
	CodeOverpaymentRejected       = "OVERPAYMENT_REJECTED"
	CodeConcurrentModification    = "CONCURRENT_MODIFICATION"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)
