// Package response writes the unified JSON envelope for gin handlers.
package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	errno "github.com/kart-io/evorag/pkg/errors"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Detail carries the underlying cause of an error
	Detail string `json:"detail,omitempty"`

	// Data contains the response payload
	Data any `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// OK writes a success envelope with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, &Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Fail writes an error envelope. Non-Errno errors are reported as ErrInternal.
// The message language follows Accept-Language (zh or en).
func Fail(c *gin.Context, err error) {
	FailWithData(c, err, nil)
}

// FailWithData writes an error envelope that also carries data.
func FailWithData(c *gin.Context, err error, data any) {
	e := errno.FromError(err)

	resp := &Response{
		Code:      e.Code,
		Message:   e.Message(Lang(c)),
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	}
	if cause := errors.Unwrap(e); cause != nil {
		resp.Detail = cause.Error()
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), resp)
}

// Lang returns the response language chosen from Accept-Language.
func Lang(c *gin.Context) string {
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), "zh") {
		return "zh"
	}
	return "en"
}
