package postboard

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiError is the error shape shared by the store, the HTTP layer and the client.
// Two ApiErrors match under errors.Is when their ErrorCode is equal.
type ApiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Status    int    `json:"-"`
	cause     error
}

var (
	ValidationError = ApiError{
		ErrorCode: "VALIDATION_ERROR",
		Message:   "%s must not be empty",
		Status:    http.StatusBadRequest,
	}
	StoreUnavailableError = ApiError{
		ErrorCode: "STORE_UNAVAILABLE",
		Message:   "post store unavailable: %s",
		Status:    http.StatusServiceUnavailable,
	}
)

func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		ErrorCode: e.ErrorCode,
		Message:   message,
		Status:    e.Status,
	}
}

// Wrap formats the message with the cause's text and keeps the cause for errors.Unwrap.
func (e ApiError) Wrap(cause error) ApiError {
	wrapped := e.New(cause.Error())
	wrapped.cause = cause
	return wrapped
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e ApiError) Unwrap() error {
	return e.cause
}

func (e ApiError) Is(target error) bool {
	var t ApiError
	if !errors.As(target, &t) {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

// HTTPStatus falls back to 400 for errors declared without a status.
func (e ApiError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// AsApiError turns an ErrorResponse read off the wire back into an ApiError
// carrying the status it was delivered with.
func (r ErrorResponse) AsApiError(status int) ApiError {
	return ApiError{
		ErrorCode: r.ErrorCode,
		Message:   r.Message,
		Status:    status,
	}
}

func SendError(c *gin.Context, err error) {
	var customErr ApiError
	if errors.As(err, &customErr) {
		c.JSON(customErr.HTTPStatus(), ErrorResponse{
			ErrorCode: customErr.ErrorCode,
			Message:   customErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "INTERNAL_SERVER_ERROR",
		Message:   "An unknown error occurred",
	})
}
