package response

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// CursorPage is a keyset page. NextCursor is empty on the last page.
type CursorPage struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func write(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data, Timestamp: now()})
}

func Success(c echo.Context, data interface{}) error {
	return write(c, http.StatusOK, data)
}

func Created(c echo.Context, data interface{}) error {
	return write(c, http.StatusCreated, data)
}

// Accepted answers fire-and-forget endpoints.
func Accepted(c echo.Context, data interface{}) error {
	return write(c, http.StatusAccepted, data)
}

func Paginated(c echo.Context, items interface{}, nextCursor string) error {
	return write(c, http.StatusOK, CursorPage{Items: items, NextCursor: nextCursor})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		info := &ErrorInfo{Code: appErr.Code, Message: appErr.Message}
		if appErr.Status == http.StatusTooManyRequests || appErr.Status == http.StatusServiceUnavailable {
			info.RetryAfter = retryAfter(appErr)
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(info.RetryAfter))
		}
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "code", appErr.Code, "error", appErr.Err)
		}
		return c.JSON(appErr.Status, Response{Success: false, Timestamp: now(), Error: info})
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, Response{
			Success:   false,
			Timestamp: now(),
			Error:     &ErrorInfo{Code: strings.ToUpper(strings.ReplaceAll(http.StatusText(httpErr.Code), " ", "_")), Message: httpErr.Error()},
		})
	}

	logger.Error("unhandled error", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		},
	})
}

// retryAfter reads the wait carried by TooManyRequests, rounded up to whole
// seconds, defaulting to one.
func retryAfter(appErr *apperrors.AppError) int {
	if appErr.Err != nil {
		msg := strings.TrimPrefix(appErr.Err.Error(), "retry after ")
		if d, err := time.ParseDuration(msg); err == nil && d > 0 {
			secs := int(d / time.Second)
			if d%time.Second != 0 {
				secs++
			}
			return secs
		}
	}
	return 1
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"
	if len(validationErr) > 0 {
		err := validationErr[0]
		field := strings.ToLower(err.Field())
		param := err.Param()

		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + param
		case "max":
			message = field + " must be at most " + param
		case "oneof":
			message = field + " must be one of: " + param
		case "dive", "gt":
			message = field + " must not be empty"
		default:
			message = field + " is invalid"
		}
	}

	return c.JSON(http.StatusBadRequest, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    "VALIDATION_ERROR",
			Message: message,
		},
	})
}
