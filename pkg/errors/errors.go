package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies where a failure originated.
type Kind string

const (
	// KindTransport covers network failures and unreadable responses.
	KindTransport Kind = "transport"
	// KindServer covers business failures reported by the platform API (ok:false).
	KindServer Kind = "server"
	// KindPrecondition covers checks the console performs before dispatching a request.
	KindPrecondition Kind = "precondition"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// AppError provides a structured error that can be rendered to console users.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"kind"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a different display message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		Kind:       KindPrecondition,
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid username or password",
		Kind:       KindServer,
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Permission denied",
		Kind:       KindPrecondition,
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		Kind:       KindPrecondition,
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		Kind:       KindPrecondition,
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
	}

	ErrConfirmationRequired = &AppError{
		Code:       "CONFIRMATION_REQUIRED",
		Message:    "Confirmation required",
		Kind:       KindPrecondition,
		StatusCode: http.StatusPreconditionRequired,
	}

	ErrCompanyRequired = &AppError{
		Code:       "COMPANY_REQUIRED",
		Message:    "Please select a company first",
		Kind:       KindPrecondition,
		StatusCode: http.StatusBadRequest,
	}

	ErrActionInFlight = &AppError{
		Code:       "ACTION_IN_FLIGHT",
		Message:    "Another action is already running for this record",
		Kind:       KindPrecondition,
		StatusCode: http.StatusConflict,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       KindInternal,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// Transport reports a failure to reach the platform API or to read its answer.
func Transport(err error, message string) *AppError {
	return &AppError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    message,
		Kind:       KindTransport,
		StatusCode: http.StatusBadGateway,
		Internal:   err,
	}
}

// Server reports a business failure returned by the platform API. The server supplied
// message wins over the fallback.
func Server(message, fallback string, statusCode int) *AppError {
	message = strings.TrimSpace(message)
	if message == "" {
		message = fallback
	}
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusUnprocessableEntity
	}
	return &AppError{
		Code:       "UPSTREAM_REJECTED",
		Message:    message,
		Kind:       KindServer,
		StatusCode: statusCode,
	}
}

// Precondition reports a check that failed before any request was sent.
func Precondition(message string) *AppError {
	return &AppError{
		Code:       "PRECONDITION_FAILED",
		Message:    message,
		Kind:       KindPrecondition,
		StatusCode: http.StatusBadRequest,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest.Code,
		Message:    message,
		Kind:       KindPrecondition,
		StatusCode: ErrBadRequest.StatusCode,
	}
}

// Message normalises any error into the single string shown in a banner.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return appErr.Message
	}

	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// IsKind reports whether err is an AppError of the supplied kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}
