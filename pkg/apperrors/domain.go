package apperrors

import (
	"net/http"
)

// Factories for common business-logic errors.

// ErrNotFound converts a repository miss (e.g. gorm.ErrRecordNotFound)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic conflict factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation builds a 400 for operations the domain forbids.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidCredentials - same message for a wrong password and an
// unknown email, so login attempts cannot probe for accounts.
func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)
}

// --- payment verification rejections ---
//
// All rejection factories return 402 so the checkout UI can show one
// generic "payment not confirmed" screen. The code distinguishes the
// causes in logs only.

// ErrUnknownTransaction - the transaction id was never issued by us.
func ErrUnknownTransaction(transactionUUID string) *AppError {
	return New(CodeUnknownTransaction, "payment", "Payment not confirmed", http.StatusPaymentRequired).
		WithDetails(map[string]string{"transaction_uuid": transactionUUID})
}

// ErrReplay - the intent was already consumed by a prior verification.
func ErrReplay(transactionUUID string) *AppError {
	return New(CodeReplay, "payment", "Payment not confirmed", http.StatusPaymentRequired).
		WithDetails(map[string]string{"transaction_uuid": transactionUUID})
}

// ErrAmountMismatch - the caller-reported total differs from the stored intent.
func ErrAmountMismatch(transactionUUID string) *AppError {
	return New(CodeAmountMismatch, "payment", "Payment not confirmed", http.StatusPaymentRequired).
		WithDetails(map[string]string{"transaction_uuid": transactionUUID})
}

// ErrGatewayRejected - the gateway reported a non-COMPLETE terminal status.
func ErrGatewayRejected(transactionUUID, gatewayStatus string) *AppError {
	return New(CodeGatewayRejected, "payment", "Payment not confirmed", http.StatusPaymentRequired).
		WithDetails(map[string]string{"transaction_uuid": transactionUUID, "gateway_status": gatewayStatus})
}

// ErrGatewayUnreachable - the status lookup failed or timed out. The caller
// may retry later; this must never be treated as success.
func ErrGatewayUnreachable(err error, transactionUUID string) *AppError {
	return Wrap(err, CodeGatewayUnreachable, "payment", "Payment status unavailable, retry later", http.StatusServiceUnavailable).
		WithDetails(map[string]string{"transaction_uuid": transactionUUID})
}

// ErrStorageInconsistent - a partial activation write. Fatal for the request,
// never retried: a retry could double-extend the billing period.
func ErrStorageInconsistent(err error, message string) *AppError {
	return Wrap(err, CodeStorageInconsistent, "payment", message, http.StatusInternalServerError)
}
