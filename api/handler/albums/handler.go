package albums

import (
	"net/http"
	"strings"

	"github.com/anoixa/imagebank/api/common"
	"github.com/anoixa/imagebank/api/middleware"
	"github.com/anoixa/imagebank/database/models"
	albumrepo "github.com/anoixa/imagebank/database/repo/albums"
	"github.com/gin-gonic/gin"
)

// Handler 相册处理器
type Handler struct {
	repo *albumrepo.Repository
}

// NewHandler 创建新的相册处理器
func NewHandler(repo *albumrepo.Repository) *Handler {
	return &Handler{repo: repo}
}

// AlbumDTO 相册响应数据
type AlbumDTO struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	ImageCount int64  `json:"image_count"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

type createAlbumRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=100"`
}

func toDTO(album *models.Album, count int64) *AlbumDTO {
	return &AlbumDTO{
		ID:         album.ID,
		Title:      album.Title,
		ImageCount: count,
		CreatedAt:  album.CreatedAt.Unix(),
		UpdatedAt:  album.UpdatedAt.Unix(),
	}
}

// ListAlbums 列出当前用户的相册及图片数量
func (h *Handler) ListAlbums(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserIDKey)
	ctx := c.Request.Context()

	list, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	ids := make([]uint, len(list))
	for i, album := range list {
		ids[i] = album.ID
	}
	counts, err := h.repo.ImageCounts(ctx, ids)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	dtos := make([]*AlbumDTO, len(list))
	for i, album := range list {
		dtos[i] = toDTO(album, counts[album.ID])
	}
	common.RespondSuccess(c, gin.H{"albums": dtos, "total": len(dtos)})
}

// CreateAlbum 按名称创建相册，同名相册已存在时直接返回
func (h *Handler) CreateAlbum(c *gin.Context) {
	var req createAlbumRequest
	if err := c.ShouldBind(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		common.RespondError(c, http.StatusBadRequest, common.CodeParameterRequired, "title is required")
		return
	}

	album, err := h.repo.GetOrCreate(c.Request.Context(), c.GetUint(middleware.ContextUserIDKey), title)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, toDTO(album, 0))
}
