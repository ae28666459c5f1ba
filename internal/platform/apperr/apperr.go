package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HTTPError 是可以直接返回给客户端的错误
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`

	Err error `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func newError(status int, message string, err error) *HTTPError {
	return &HTTPError{
		Code:    codeFor(status),
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func BadRequest(message string) *HTTPError {
	return newError(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *HTTPError {
	return newError(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *HTTPError {
	return newError(http.StatusForbidden, message, nil)
}

func NotFound(message string) *HTTPError {
	return newError(http.StatusNotFound, message, nil)
}

func Conflict(message string) *HTTPError {
	return newError(http.StatusConflict, message, nil)
}

func TooManyRequests(message string) *HTTPError {
	return newError(http.StatusTooManyRequests, message, nil)
}

func Unavailable(message string) *HTTPError {
	return newError(http.StatusServiceUnavailable, message, nil)
}

// Internal 包装一个不应暴露细节的内部错误
func Internal(err error) *HTTPError {
	return newError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), err)
}

// Respond 将错误写入响应。非 HTTPError 的错误一律视为 500 并记录日志。
func Respond(c *gin.Context, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = Internal(err)
	}
	if httpErr.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("请求处理失败")
	}
	c.AbortWithStatusJSON(httpErr.Status, httpErr)
}
