package apperror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform success wrapper: {"success":true,"data":...}.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// OK wraps data in the success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// failureBody renders the failure envelope for a status/code/message.
func failureBody(code, message string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	}
}

// HTTPErrorHandler returns the canonical Echo error handler. Every
// failure renders as {"success":false,"error":...,"code":...}; it
// never invents new error semantics beyond status mapping.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		code := "internal_error"
		message := "An internal error occurred"

		var appErr *Error
		var he *echo.HTTPError
		if errors.As(err, &appErr) {
			status = appErr.HTTPStatus
			code = appErr.Code
			message = appErr.Message
		} else if errors.As(err, &he) {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
			switch status {
			case http.StatusNotFound:
				code = "not_found"
			case http.StatusBadRequest:
				code = "bad_request"
			case http.StatusConflict:
				code = "conflict"
			case http.StatusMethodNotAllowed:
				code = "method_not_allowed"
			case http.StatusUnprocessableEntity:
				code = "validation_error"
			}
		}

		if status >= 500 {
			log.Error("request error",
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(status)
		} else {
			c.JSON(status, failureBody(code, message))
		}
	}
}
