package core

import "fmt"

// Code classifies a failure so callers can tell transient upstream
// trouble from bad input or a defect on our side.
type Code string

const (
	CodeConfigError     Code = "CONFIG_ERROR"     // credential missing, never retried
	CodeValidationError Code = "VALIDATION_ERROR" // bad caller input, no network attempt
	CodeTitleNotFound   Code = "TITLE_NOT_FOUND"  // search returned zero results
	CodeNetworkError    Code = "NETWORK_ERROR"    // transport failure after retries
	CodeRateLimit       Code = "RATE_LIMIT"       // 429 after retries
	CodeUpstreamError   Code = "UPSTREAM_ERROR"   // 5xx after retries
	CodeBadRequest      Code = "BAD_REQUEST"      // permanent 4xx from the provider
	CodeJSONError       Code = "JSON_ERROR"       // success status with an unparseable body
	CodeUnknownTool     Code = "UNKNOWN_TOOL"     // routing miss
	CodeInternalError   Code = "INTERNAL_ERROR"   // unclassified defect
)

// Error is a classified failure threaded from the upstream client
// through the query operations to the dispatcher boundary.
type Error struct {
	Code    Code
	Message string
	Status  int // HTTP-like status for the classification
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Errf builds a classified error with a formatted message.
func Errf(code Code, status int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
	}
}
