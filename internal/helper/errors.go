package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError carries the HTTP status a handler should answer with. Message is
// sent to the client as {"error": Message}.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func BadRequest(message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return NewAppError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return NewAppError(fiber.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, message)
}

// Internal wraps a store or mail failure; its message is surfaced as is.
func Internal(err error) *AppError {
	return &AppError{Status: fiber.StatusInternalServerError, Message: err.Error(), Err: err}
}

// StatusOf returns the status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return fiber.StatusInternalServerError
}
