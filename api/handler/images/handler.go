package images

import (
	"strconv"

	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/storage"
	"github.com/gin-gonic/gin"
)

// Handler 图片处理器
type Handler struct {
	service        *imageSvc.Service
	storage        storage.Provider
	maxUploadBytes int64
}

// NewHandler 图片处理器
func NewHandler(service *imageSvc.Service, provider storage.Provider, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &Handler{
		service:        service,
		storage:        provider,
		maxUploadBytes: maxUploadBytes,
	}
}

// imageID 解析路径中的图片 ID
func imageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
