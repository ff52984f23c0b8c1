package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with the HTTP status it should surface as.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Validation rejects bad input before any external call or write.
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func NotFound(message string, err error) *AppError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *AppError {
	return New(http.StatusConflict, message, err)
}

// Gateway wraps a payment processor failure with its upstream message.
func Gateway(message string, err error) *AppError {
	return New(http.StatusBadGateway, message, err)
}

func Internal(message string, err error) *AppError {
	return New(http.StatusInternalServerError, message, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code int) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsValidation(err error) bool { return hasCode(err, http.StatusBadRequest) }
func IsNotFound(err error) bool   { return hasCode(err, http.StatusNotFound) }
func IsGateway(err error) bool    { return hasCode(err, http.StatusBadGateway) }
