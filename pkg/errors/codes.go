package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Short aliases used across the code base.
const (
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
)

// Parser Module Error Codes
const (
	ErrCodeFormatUnknown         ErrorCode = "PARSE_001"
	ErrCodeDocumentTooLarge      ErrorCode = "PARSE_002"
	ErrCodeRootNotRecognized     ErrorCode = "PARSE_003"
	ErrCodeMalformedDocument     ErrorCode = "PARSE_004"
	ErrCodeFieldExtractionFailed ErrorCode = "PARSE_005"
	ErrCodeEmptyDocument         ErrorCode = "PARSE_006"
)

// Document Identifier Module Error Codes
const (
	ErrCodeDocumentIDInvalid    ErrorCode = "DOCID_001"
	ErrCodeCountryCodeUnknown   ErrorCode = "DOCID_002"
	ErrCodeCountryCodeAmbiguous ErrorCode = "DOCID_003"
	ErrCodeDateInvalid          ErrorCode = "DOCID_004"
	ErrCodeKindCodeInvalid      ErrorCode = "DOCID_005"
)

// Classification Module Error Codes
const (
	ErrCodeClassificationInvalid     ErrorCode = "CLS_001"
	ErrCodeClassificationUnsupported ErrorCode = "CLS_002"
	ErrCodeFacetInvalid              ErrorCode = "CLS_003"
)

// Ingest Module Error Codes
const (
	ErrCodeArchiveUnreadable  ErrorCode = "INGEST_001"
	ErrCodeRecordSplitFailed  ErrorCode = "INGEST_002"
	ErrCodeArchiveAlreadyDone ErrorCode = "INGEST_003"
	ErrCodeSinkWriteFailed    ErrorCode = "INGEST_004"
	ErrCodeDuplicateRecord    ErrorCode = "INGEST_005"
)

// ErrorCodeHTTPStatus maps ErrorCode to HTTP Status Code.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeFormatUnknown:         http.StatusUnprocessableEntity,
	ErrCodeDocumentTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeRootNotRecognized:     http.StatusUnprocessableEntity,
	ErrCodeMalformedDocument:     http.StatusUnprocessableEntity,
	ErrCodeFieldExtractionFailed: http.StatusUnprocessableEntity,
	ErrCodeEmptyDocument:         http.StatusBadRequest,

	ErrCodeDocumentIDInvalid:    http.StatusBadRequest,
	ErrCodeCountryCodeUnknown:   http.StatusBadRequest,
	ErrCodeCountryCodeAmbiguous: http.StatusBadRequest,
	ErrCodeDateInvalid:          http.StatusBadRequest,
	ErrCodeKindCodeInvalid:      http.StatusBadRequest,

	ErrCodeClassificationInvalid:     http.StatusBadRequest,
	ErrCodeClassificationUnsupported: http.StatusBadRequest,
	ErrCodeFacetInvalid:              http.StatusBadRequest,

	ErrCodeArchiveUnreadable:  http.StatusUnprocessableEntity,
	ErrCodeRecordSplitFailed:  http.StatusUnprocessableEntity,
	ErrCodeArchiveAlreadyDone: http.StatusConflict,
	ErrCodeSinkWriteFailed:    http.StatusBadGateway,
	ErrCodeDuplicateRecord:    http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCode to default error message.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeFormatUnknown:         "document format could not be determined",
	ErrCodeDocumentTooLarge:      "document exceeds the configured size ceiling",
	ErrCodeRootNotRecognized:     "document root does not match a known schema",
	ErrCodeMalformedDocument:     "document could not be parsed into a tree",
	ErrCodeFieldExtractionFailed: "field extraction failed",
	ErrCodeEmptyDocument:         "document is empty",

	ErrCodeDocumentIDInvalid:    "invalid document identifier",
	ErrCodeCountryCodeUnknown:   "unknown country code",
	ErrCodeCountryCodeAmbiguous: "historical country code maps to several current codes",
	ErrCodeDateInvalid:          "invalid date",
	ErrCodeKindCodeInvalid:      "invalid kind code",

	ErrCodeClassificationInvalid:     "classification does not match the grammar",
	ErrCodeClassificationUnsupported: "unsupported classification standard",
	ErrCodeFacetInvalid:              "invalid facet string",

	ErrCodeArchiveUnreadable:  "archive could not be read",
	ErrCodeRecordSplitFailed:  "archive could not be split into records",
	ErrCodeArchiveAlreadyDone: "archive already ingested",
	ErrCodeSinkWriteFailed:    "sink write failed",
	ErrCodeDuplicateRecord:    "record already processed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
