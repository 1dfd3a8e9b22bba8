package images

import (
	"fmt"
	"net/http"

	"github.com/anoixa/imagebank/api/common"
	"github.com/anoixa/imagebank/api/middleware"
	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/gin-gonic/gin"
)

// CropImage 裁剪原图并保存为命名形状
func (h *Handler) CropImage(c *gin.Context) {
	id, ok := imageID(c)
	if !ok {
		common.RespondAppError(c, fmt.Errorf("%w: image %s", imageSvc.ErrObjectNotFound, c.Param("id")))
		return
	}

	values, err := parseForm(c, 1<<20)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, "Invalid form data")
		return
	}

	var form cropForm
	if err := decodeForm(values, &form); err != nil {
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, err.Error())
		return
	}

	userID := c.GetUint(middleware.ContextUserIDKey)
	view, err := h.service.Crop(c.Request.Context(), userID, id, form.Shape, form.Position)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}
