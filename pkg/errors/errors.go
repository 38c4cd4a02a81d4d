package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentLoad   = errors.New("document load failed")
	ErrEmptyDocument  = errors.New("document is empty")
	ErrEngineNotReady = errors.New("snippet engine not built")
	ErrEmptyQuery     = errors.New("empty query")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownCharset = errors.New("unknown charset")
	ErrInternal       = errors.New("internal error")
	ErrTimeout        = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error chain to the status the HTTP layer reports.
// An empty query is a client error only when it reaches the transport as an
// error; the executor normally turns it into a message.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrEngineNotReady), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDocumentLoad), errors.Is(err, ErrEmptyDocument), errors.Is(err, ErrUnknownCharset):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
