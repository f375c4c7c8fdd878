// Package apperror defines the error type returned across the service
// boundary. Handlers render it as a JSON problem body; anything else reaching
// the boundary is reported as an internal error without its text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable codes carried in the "code" field of error responses.
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"

	// CodeSequenceExhausted means numbering gave up after its retry bound.
	CodeSequenceExhausted = "SEQUENCE_EXHAUSTED"

	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
)

// AppError is a coded error with an HTTP status and optional details.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int   `json:"-"`
	Err        error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one details entry and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidation reports malformed input (400).
func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// NewNotFound reports a missing document (404).
func NewNotFound(entity string, id any) *AppError {
	e := newError(CodeNotFound, http.StatusNotFound, entity+" not found")
	e.Details = map[string]any{"entity": entity, "id": id}
	return e
}

// NewBusinessRule reports a rule the document breaks (422).
func NewBusinessRule(code, message string) *AppError {
	return newError(code, http.StatusUnprocessableEntity, message)
}

// NewConcurrentModification reports a stale version on update (409).
func NewConcurrentModification(entity string, id any) *AppError {
	e := newError(CodeConcurrentModification, http.StatusConflict,
		"document was changed by another request, reload and try again")
	e.Details = map[string]any{"entity": entity, "id": id}
	return e
}

// NewSequenceExhausted is returned when every candidate number within the
// retry bound was already taken. Safe to retry the whole request.
func NewSequenceExhausted(docType, prefix string, attempts int) *AppError {
	e := newError(CodeSequenceExhausted, http.StatusServiceUnavailable,
		"could not assign a document number, please retry")
	e.Details = map[string]any{
		"document_type": docType,
		"prefix":        prefix,
		"attempts":      attempts,
	}
	return e
}

// NewInternal wraps err as a 500. Its text never reaches the client.
func NewInternal(err error) *AppError {
	e := newError(CodeInternal, http.StatusInternalServerError, "internal server error")
	e.Err = err
	return e
}

// NewConflict reports a state conflict (409).
func NewConflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// NewDuplicate reports a unique value already in use, typically a document
// number supplied by the caller (409).
func NewDuplicate(entity, field, value string) *AppError {
	e := newError(CodeDuplicate, http.StatusConflict,
		fmt.Sprintf("%s with this %s already exists", entity, field))
	e.Details = map[string]any{"entity": entity, "field": field, "value": value}
	return e
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// GetHTTPStatus returns the status for err, 500 for non-AppErrors.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool               { return hasCode(err, CodeNotFound) }
func IsSequenceExhausted(err error) bool      { return hasCode(err, CodeSequenceExhausted) }
func IsConcurrentModification(err error) bool { return hasCode(err, CodeConcurrentModification) }
