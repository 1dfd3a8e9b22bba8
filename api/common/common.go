package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeOK                = 0
	CodeInternal          = 10000
	CodeObjectNotFound    = 10001
	CodeParameterRequired = 10002
	CodeInvalidImageFile  = 10003
	CodeInvalidShape      = 10004
	CodeFetchFailed       = 10005
	CodeUnauthorized      = 10401
	CodeTooManyRequests   = 10429
	CodeServerBusy        = 10503
)

type Response struct {
	Status string      `json:"status"`
	Code   int         `json:"code"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, code int, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Code:   code,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", CodeOK, "", data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, code int, message string) {
	Respond(c, httpStatus, "error", code, message, nil)
}

// RespondErrorAbort sends an error response and stops the handler chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, code int, message string) {
	RespondError(c, httpStatus, code, message)
	c.Abort()
}
