package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/stop-survey/pkg/errors"
)

const (
	codeNotFound = "not_found"
	codeInternal = "internal_error"
)

// appCodeStatus maps domain error codes onto response statuses.
var appCodeStatus = map[string]int{
	apperrors.CodeConfig:   http.StatusInternalServerError,
	apperrors.CodeOutput:   http.StatusInternalServerError,
	apperrors.CodeBusy:     http.StatusConflict,
	apperrors.CodeCanceled: http.StatusServiceUnavailable,
}

// HTTPError is the transport view of a failure: {"error":{"code","message"}} plus a status.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds an error owned by the HTTP layer itself.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromAppError keeps the domain code and picks the status from appCodeStatus.
// Unknown codes and plain errors become 500 internal_error.
func fromAppError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, codeInternal, "something went wrong", err)
	}
	status, ok := appCodeStatus[appErr.Code]
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, codeInternal, appErr.Message, err)
	}
	return NewHTTPError(status, appErr.Code, appErr.Message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromAppError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
