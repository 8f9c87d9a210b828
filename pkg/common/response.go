package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope returned by all handlers.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// ErrorResponse writes a plain error message with the given status.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// RespondError maps an error to the appropriate HTTP status. Unrecognized
// errors are reported as 500 without leaking internals.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		c.JSON(appErr.Status, Response{Success: false, Error: appErr.Message, Code: string(appErr.Code)})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error", Code: string(CodeInternal)})
}

// SuccessResponse writes a JSON payload with the given status.
func SuccessResponse(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, Response{Success: true, Data: payload})
}
