package dto

import (
	"net/http"

	"github.com/poscore/backend/internal/domain/shared"
)

// Transport-level error codes. Domain error codes pass through unchanged;
// these cover failures that never reach the domain.
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes.
//
// Business rule violations map to 422: the request was well formed but the
// ledger or stock state refuses it. Optimistic lock exhaustion maps to 409
// so clients know a retry may succeed.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,

	shared.CodeInvalidInput: http.StatusBadRequest,

	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeBatchNotFound: http.StatusNotFound,
	shared.CodeSaleNotFound:  http.StatusNotFound,

	shared.CodeConcurrentModification: http.StatusConflict,

	shared.CodeInvalidState:              http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:         http.StatusUnprocessableEntity,
	shared.CodeInsufficientBatchQuantity: http.StatusUnprocessableEntity,
	shared.CodeSaleAlreadyCanceled:       http.StatusUnprocessableEntity,
	shared.CodeReversalRequiresRefund:    http.StatusUnprocessableEntity,
	shared.CodeOverpaymentRejected:       http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes default to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
