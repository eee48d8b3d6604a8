package response

import (
	"errors"
	"net/http"
	"time"

	apperrors "sellnext/pkg/errors"
	"sellnext/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "An unexpected error occurred"

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func SuccessWithMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

// Error is the single place where errors become HTTP responses.
func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("%s %s: %v", c.Request().Method, c.Path(), appErr)
			return internalError(c, appErr.Message, appErr.Err)
		}
		return c.JSON(appErr.Status, Response{
			Success:   false,
			Message:   appErr.Message,
			Timestamp: now(),
			Error: &ErrorInfo{
				Code:    appErr.Code,
				Message: appErr.Message,
			},
		})
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		return c.JSON(httpErr.Code, Response{
			Success:   false,
			Message:   message,
			Timestamp: now(),
			Error: &ErrorInfo{
				Code:    codeForStatus(httpErr.Code),
				Message: message,
			},
		})
	}

	logger.Error("%s %s: %v", c.Request().Method, c.Path(), err)
	return internalError(c, internalErrorMessage, err)
}

// internalError hides the cause unless Echo runs in debug mode.
func internalError(c echo.Context, message string, cause error) error {
	info := &ErrorInfo{Code: apperrors.CodeInternal, Message: internalErrorMessage}
	if c.Echo().Debug {
		info.Message = message
		if cause != nil {
			info.Details = cause.Error()
		}
	}
	return c.JSON(http.StatusInternalServerError, Response{
		Success:   false,
		Message:   internalErrorMessage,
		Timestamp: now(),
		Error:     info,
	})
}

// HTTPErrorHandler renders errors escaping handlers and the router (unknown
// routes, wrong methods) with the standard envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if writeErr := Error(c, err); writeErr != nil {
		logger.Error("write error response: %v", writeErr)
	}
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	details := make([]FieldError, 0, len(validationErr))
	for _, err := range validationErr {
		details = append(details, FieldError{
			Field:   err.Field(),
			Message: fieldMessage(err),
		})
	}

	return c.JSON(http.StatusBadRequest, Response{
		Success:   false,
		Message:   "Validation failed",
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    "VALIDATION_ERROR",
			Message: "Validation failed",
			Details: details,
		},
	})
}

func fieldMessage(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "gte":
		return field + " must be greater than or equal to " + param
	case "oneof", "category", "condition", "delivery":
		if param == "" {
			return field + " has an unsupported value"
		}
		return field + " must be one of: " + param
	case "email":
		return field + " must be a valid email address"
	case "password":
		return field + " must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number"
	case "url":
		return field + " must be a valid URL"
	case "uuid":
		return field + " must be a valid id"
	default:
		return field + " is invalid"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperrors.CodeBadRequest
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusConflict:
		return apperrors.CodeConflict
	case http.StatusTooManyRequests:
		return apperrors.CodeTooManyRequests
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		if status >= http.StatusInternalServerError {
			return apperrors.CodeInternal
		}
		return "ERROR"
	}
}
