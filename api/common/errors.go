package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/utils"
	"github.com/gin-gonic/gin"
)

type appError struct {
	target     error
	httpStatus int
	code       int
}

// 按顺序匹配，先匹配到的生效
var appErrors = []appError{
	{images.ErrObjectNotFound, http.StatusNotFound, CodeObjectNotFound},
	{images.ErrParameterRequired, http.StatusBadRequest, CodeParameterRequired},
	{process.ErrInvalidSourceURL, http.StatusBadRequest, CodeParameterRequired},
	{process.ErrInvalidImageFile, http.StatusBadRequest, CodeInvalidImageFile},
	{images.ErrReservedShape, http.StatusBadRequest, CodeInvalidShape},
	{images.ErrInvalidShape, http.StatusBadRequest, CodeInvalidShape},
	{process.ErrInvalidRectangle, http.StatusBadRequest, CodeInvalidShape},
	{process.ErrFetch, http.StatusBadGateway, CodeFetchFailed},
}

// Classify 返回错误对应的 HTTP 状态码和业务码
func Classify(err error) (int, int) {
	for _, e := range appErrors {
		if errors.Is(err, e.target) {
			return e.httpStatus, e.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// RespondAppError 将业务错误翻译为统一的错误响应
// 未识别的错误只记录日志，不向客户端暴露细节
func RespondAppError(c *gin.Context, err error) {
	httpStatus, code := Classify(err)
	if code == CodeInternal {
		if c.Request.Context().Err() != nil && utils.IsContextCanceled(err) {
			// 客户端已断开，响应不会被读取
			c.Abort()
			return
		}
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		RespondError(c, httpStatus, code, "internal server error")
		return
	}
	RespondError(c, httpStatus, code, err.Error())
}
