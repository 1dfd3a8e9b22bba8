package images

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/anoixa/imagebank/api/common"
	"github.com/anoixa/imagebank/api/middleware"
	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/storage"
	"github.com/anoixa/imagebank/utils"
	"github.com/gin-gonic/gin"
)

// GetImage 获取图片及全部形状
func (h *Handler) GetImage(c *gin.Context) {
	id, ok := imageID(c)
	if !ok {
		common.RespondAppError(c, fmt.Errorf("%w: image %s", imageSvc.ErrObjectNotFound, c.Param("id")))
		return
	}

	view, err := h.service.Get(c.Request.Context(), c.GetUint(middleware.ContextUserIDKey), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// ServeFile 从存储读取文件并输出
// 路径由内容指纹决定，内容不会变化，可长期缓存
func (h *Handler) ServeFile(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if !storage.IsValidStoragePath(storagePath) {
		common.RespondError(c, http.StatusNotFound, common.CodeObjectNotFound, "file not found")
		return
	}

	r, err := h.storage.GetWithContext(c.Request.Context(), storagePath)
	if err != nil {
		if storage.IsNotFound(err) {
			common.RespondError(c, http.StatusNotFound, common.CodeObjectNotFound, "file not found")
			return
		}
		utils.LogIfDevf("[Files] Failed to open %s: %v", utils.SanitizeLogMessage(storagePath), err)
		common.RespondError(c, http.StatusInternalServerError, common.CodeInternal, "failed to read file")
		return
	}
	defer storage.CloseIfCloser(r)

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(c.Writer, c.Request, path.Base(storagePath), time.Time{}, r)
}
