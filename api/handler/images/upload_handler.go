package images

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anoixa/imagebank/api/common"
	"github.com/anoixa/imagebank/api/middleware"
	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/utils"
	"github.com/gin-gonic/gin"
)

// UploadImage 上传图片文件或远程地址
// multipart 字段 file 优先，否则读取表单 source
func (h *Handler) UploadImage(c *gin.Context) {
	// 额外留出表单字段的余量
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	values, err := parseForm(c, 32<<20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, common.CodeParameterRequired,
				"request body exceeds "+utils.FormatBytes(h.maxUploadBytes))
			return
		}
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, "Invalid form data")
		return
	}

	var form uploadForm
	if err := decodeForm(values, &form); err != nil {
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, err.Error())
		return
	}

	req := imageSvc.UploadRequest{
		UserID:     c.GetUint(middleware.ContextUserIDKey),
		AlbumID:    form.AlbumID,
		AlbumTitle: form.AlbumTitle,
		Title:      form.Title,
	}

	file, header, err := c.Request.FormFile("file")
	if errors.Is(err, http.ErrNotMultipart) {
		// urlencoded 表单只能携带 source
		err = http.ErrMissingFile
	}
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		if header.Size > h.maxUploadBytes {
			common.RespondError(c, http.StatusRequestEntityTooLarge, common.CodeParameterRequired,
				"file exceeds "+utils.FormatBytes(h.maxUploadBytes))
			return
		}

		view, err := h.service.Upload(c.Request.Context(), req, process.NewReaderSource(file, header.Filename, ""))
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		common.RespondSuccess(c, view)

	case errors.Is(err, http.ErrMissingFile) && form.Source != "":
		view, err := h.service.UploadFromURL(c.Request.Context(), req, form.Source)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		common.RespondSuccess(c, view)

	case errors.Is(err, http.ErrMissingFile):
		common.RespondAppError(c, fmt.Errorf("%w: file or source", imageSvc.ErrParameterRequired))

	default:
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, "Invalid form data")
	}
}
