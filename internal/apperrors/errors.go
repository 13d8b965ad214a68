package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeAlreadyPaid          ErrorCode = "ALREADY_PAID"
	CodeGatewayDecline       ErrorCode = "GATEWAY_DECLINE"
	CodeGatewayTransport     ErrorCode = "GATEWAY_TRANSPORT_FAILURE"
	CodeCaptureUnconfirmed   ErrorCode = "CAPTURE_UNCONFIRMED"
	CodeLocalCommitFailure   ErrorCode = "LOCAL_COMMIT_FAILURE"
	CodeDoubleCapture        ErrorCode = "DOUBLE_CAPTURE"
	CodeReconciliationUsage  ErrorCode = "RECONCILIATION_USAGE"
	CodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"
	CodeUnsupportedPlatform  ErrorCode = "UNSUPPORTED_PLATFORM"

	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error shape returned across package boundaries.
// Message is safe to show to the end user; Err keeps the cause for logs and errors.Is.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Domain   string      `json:"domain"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (%v)", e.Domain, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Domain  string      `json:"domain"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Domain:  e.Domain,
		Message: e.Message,
		Details: e.Details,
	})
}

// CodeOf returns the code of the outermost AppError in the chain, or CodeInternalError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// HTTPStatus maps err to a response status. Errors that are not AppErrors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.HTTPCode != 0 {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "system", "Internal server error", http.StatusInternalServerError)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationFailed, "validation", message, http.StatusUnprocessableEntity)
}
