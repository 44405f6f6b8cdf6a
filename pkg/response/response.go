package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// Response mirrors the platform envelope so console clients handle one shape.
type Response struct {
	OK      bool       `json:"ok"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code string         `json:"code"`
	Kind appErrors.Kind `json:"kind,omitempty"`
}

// Meta describes pagination metadata.
type Meta struct {
	Page     int  `json:"page,omitempty"`
	PageSize int  `json:"page_size,omitempty"`
	Total    int  `json:"total,omitempty"`
	HasNext  bool `json:"has_next,omitempty"`
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{
		OK:   true,
		Data: data,
	})
}

// SuccessWithMessage writes a success response carrying a banner message.
func SuccessWithMessage(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{
		OK:      true,
		Message: message,
		Data:    data,
	})
}

// SuccessWithMeta writes a JSON success response including metadata.
func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Response{
		OK:   true,
		Data: data,
		Meta: meta,
	})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData writes an error response that still carries a payload, such as the
// unchanged view snapshot after a failed action.
func ErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		OK:      false,
		Message: appErr.Message,
		Data:    data,
		Error: &ErrorInfo{
			Code: appErr.Code,
			Kind: appErr.Kind,
		},
	})
}
