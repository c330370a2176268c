package console

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"charge-console/internal/form"
	"charge-console/internal/gateway"
	"charge-console/internal/session"
)

type AppError struct {
	Code    string            `json:"code"`
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Details []form.FieldError `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func SessionExpiredError() *AppError {
	return &AppError{Code: "SESSION_EXPIRED", Status: 401, Message: "Session expired, please sign in again"}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

func UnknownScreenError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_SCREEN",
		Status:  404,
		Message: fmt.Sprintf("Unknown screen: %s", name),
	}
}

func ValidationError(details []form.FieldError) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

// InFlightError blocks double submits: a mutation for the same screen
// and record is already running.
func InFlightError() *AppError {
	return &AppError{Code: "OPERATION_IN_FLIGHT", Status: 409, Message: "Operation already in progress"}
}

// remoteAppError wraps an upstream failure, preserving the backend's
// status when it carried one.
func remoteAppError(re *gateway.RemoteError) *AppError {
	status := re.Status
	if status == 0 {
		status = 502
	}
	return &AppError{Code: "REMOTE_ERROR", Status: status, Message: re.Message}
}

func asRemote(err error, target **gateway.RemoteError) bool {
	return errors.As(err, target)
}

// ErrorHandler is the central fiber error handler. Every error the
// handlers return funnels through here and leaves as the {"error":...}
// envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	var remoteErr *gateway.RemoteError
	if errors.As(err, &remoteErr) {
		appErr = remoteAppError(remoteErr)
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	if errors.Is(err, session.ErrExpired) {
		appErr = SessionExpiredError()
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
