package dto

import "net/http"

// Error codes returned by the API. Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeOrderZeroed is used when an invoice is requested for a cancelled or refunded order
	ErrCodeOrderZeroed          = "ERR_ORDER_ZEROED"
	ErrCodeEmissionInProgress   = "ERR_EMISSION_IN_PROGRESS"
	ErrCodeInvalidJustification = "ERR_INVALID_JUSTIFICATION"
	ErrCodeInvalidEnvironment   = "ERR_INVALID_ENVIRONMENT"
	ErrCodeInvalidPlatform      = "ERR_INVALID_PLATFORM"
	ErrCodeInvalidCost          = "ERR_INVALID_COST"
	ErrCodeExportUnavailable    = "ERR_EXPORT_UNAVAILABLE"
)

// Upstream error codes, for the invoicing API and the marketplaces
const (
	ErrCodeUpstreamUnavailable   = "ERR_UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamRejected      = "ERR_UPSTREAM_REJECTED"
	ErrCodeUpstreamNotFound      = "ERR_UPSTREAM_NOT_FOUND"
	ErrCodeUpstreamAuth          = "ERR_UPSTREAM_AUTH"
	ErrCodeUpstreamRateLimited   = "ERR_UPSTREAM_RATE_LIMITED"
	ErrCodePlatformNotConfigured = "ERR_PLATFORM_NOT_CONFIGURED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeOrderZeroed:          http.StatusUnprocessableEntity,
	ErrCodeEmissionInProgress:   http.StatusConflict,
	ErrCodeInvalidJustification: http.StatusBadRequest,
	ErrCodeInvalidEnvironment:   http.StatusBadRequest,
	ErrCodeInvalidPlatform:      http.StatusBadRequest,
	ErrCodeInvalidCost:          http.StatusBadRequest,
	ErrCodeExportUnavailable:    http.StatusServiceUnavailable,

	ErrCodeUpstreamUnavailable:   http.StatusServiceUnavailable,
	ErrCodeUpstreamRejected:      http.StatusBadGateway,
	ErrCodeUpstreamNotFound:      http.StatusNotFound,
	ErrCodeUpstreamAuth:          http.StatusBadGateway,
	ErrCodeUpstreamRateLimited:   http.StatusTooManyRequests,
	ErrCodePlatformNotConfigured: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONFLICT":              ErrCodeConflict,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"ORDER_ZEROED":          ErrCodeOrderZeroed,
	"EMISSION_IN_PROGRESS":  ErrCodeEmissionInProgress,
	"INVALID_JUSTIFICATION": ErrCodeInvalidJustification,
	"INVALID_ENVIRONMENT":   ErrCodeInvalidEnvironment,
	"INVALID_PLATFORM":      ErrCodeInvalidPlatform,
	"INVALID_COST":          ErrCodeInvalidCost,
	"INVALID_COMPANY":       ErrCodeInvalidInput,
	"INVALID_ORDER":         ErrCodeInvalidInput,
	"INVALID_EXTERNAL_ID":   ErrCodeInvalidInput,
	"EXPORT_UNAVAILABLE":    ErrCodeExportUnavailable,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
