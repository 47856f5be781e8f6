package apperrors

// ErrorCode identifies a class of failure.
type ErrorCode string

// Generic, non-domain codes.
const (
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

// Payment verification taxonomy. These codes are logged internally;
// HTTP responses collapse them into a generic rejection message.
const (
	CodeUnknownTransaction  ErrorCode = "UNKNOWN_TRANSACTION"
	CodeReplay              ErrorCode = "REPLAY"
	CodeAmountMismatch      ErrorCode = "AMOUNT_MISMATCH"
	CodeGatewayRejected     ErrorCode = "GATEWAY_REJECTED"
	CodeGatewayUnreachable  ErrorCode = "GATEWAY_UNREACHABLE"
	CodeStorageInconsistent ErrorCode = "STORAGE_INCONSISTENT"
)
