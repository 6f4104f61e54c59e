package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Error codes surfaced to callers.
const (
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeValidation         = "VALIDATION_FAILED"
	CodeAuth               = "AUTH_FAILED"
	CodeSearch             = "SEARCH_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// UserMessage is the message shown to callers. Upstream failures carry their
// cause; internal causes stay hidden.
func (e *DomainError) UserMessage() string {
	if e.Err != nil && (e.Code == CodeAuth || e.Code == CodeSearch) {
		return e.Error()
	}
	return e.Message
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewConfigurationError reports missing or invalid process configuration,
// such as absent API credentials.
func NewConfigurationError(message string) error {
	return NewDomainError(CodeConfiguration, message, http.StatusInternalServerError, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewAuthError wraps a failed token exchange.
func NewAuthError(message string, err error) error {
	return &DomainError{Code: CodeAuth, Message: message, HTTPStatus: http.StatusBadGateway, Err: err}
}

// NewSearchError wraps a failed search call. Details may carry the upstream status.
func NewSearchError(message string, details map[string]any, err error) error {
	return &DomainError{Code: CodeSearch, Message: message, HTTPStatus: http.StatusBadGateway, Details: details, Err: err}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewServiceUnavailable(message string) error {
	return NewDomainError(CodeServiceUnavailable, message, http.StatusServiceUnavailable, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func IsConfiguration(err error) bool { return HasCode(err, CodeConfiguration) }
func IsValidation(err error) bool    { return HasCode(err, CodeValidation) }
func IsAuth(err error) bool          { return HasCode(err, CodeAuth) }
func IsSearch(err error) bool        { return HasCode(err, CodeSearch) }

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

const excerptLimit = 512

// Excerpt trims body to at most excerptLimit bytes for logs and error causes,
// cutting on a rune boundary.
func Excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= excerptLimit {
		return text
	}
	limit := excerptLimit
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
