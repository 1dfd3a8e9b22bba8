// Package images 相册图片的业务逻辑：上传、派生形状、裁剪和查询
package images

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/database/repo/albums"
	imagerepo "github.com/anoixa/imagebank/database/repo/images"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/storage"
	"github.com/anoixa/imagebank/utils"
	"gorm.io/gorm"
)

var (
	// ErrObjectNotFound 图片或相册不存在，或不属于当前用户
	ErrObjectNotFound = errors.New("object not found")

	// ErrParameterRequired 缺少必填参数
	ErrParameterRequired = errors.New("parameter required")

	// ErrReservedShape 形状名为系统保留
	ErrReservedShape = errors.New("shape name is reserved")

	// ErrInvalidShape 形状名为空、过长或含非法字符
	ErrInvalidShape = errors.New("invalid shape name")
)

// UploadRequest 上传参数
type UploadRequest struct {
	UserID uint
	// AlbumID 与 AlbumTitle 都为空时使用默认相册
	AlbumID    uint
	AlbumTitle string
	Title      string
}

// FileView 某一形状对应的文件
type FileView struct {
	Shape       string  `json:"shape"`
	FileID      uint    `json:"file_id"`
	Fingerprint string  `json:"fingerprint"`
	URL         string  `json:"url"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FileSize    int64   `json:"file_size"`
	Format      string  `json:"format,omitempty"`
	SourceURL   *string `json:"source_url,omitempty"`
}

// ImageView 图片及其全部形状
type ImageView struct {
	ID        uint        `json:"id"`
	AlbumID   uint        `json:"album_id"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"created_at"`
	Files     []*FileView `json:"files"`
}

// File 按形状名查找文件
func (v *ImageView) File(shape string) *FileView {
	for _, f := range v.Files {
		if f.Shape == shape {
			return f
		}
	}
	return nil
}

// Service 图片服务
type Service struct {
	albums    *albums.Repository
	images    *imagerepo.Repository
	generator *process.Generator
	fetcher   *process.Fetcher
	storage   storage.Provider
}

// NewService 创建图片服务
func NewService(
	albumRepo *albums.Repository,
	imageRepo *imagerepo.Repository,
	generator *process.Generator,
	fetcher *process.Fetcher,
) *Service {
	return &Service{
		albums:    albumRepo,
		images:    imageRepo,
		generator: generator,
		fetcher:   fetcher,
		storage:   generator.Store().Storage(),
	}
}

// Upload 入库原图，生成 md/sm，并挂到相册中的图片上
// 同一相册中已有以该文件为原图的图片时复用它
func (s *Service) Upload(ctx context.Context, req UploadRequest, src process.Source) (*ImageView, error) {
	album, err := s.resolveAlbum(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, album, req, src)
}

func (s *Service) upload(ctx context.Context, album *models.Album, req UploadRequest, src process.Source) (*ImageView, error) {
	variants, err := s.generator.DeriveStandard(ctx, src)
	if err != nil {
		return nil, err
	}

	image, err := s.images.FindByAlbumAndOrigin(ctx, album.ID, variants.Origin.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up image: %w", err)
		}

		image = &models.Image{
			AlbumID: album.ID,
			Title:   imageTitle(req.Title, src.Name(), variants.Origin.Fingerprint),
		}
		if err := s.images.Create(ctx, image); err != nil {
			return nil, fmt.Errorf("failed to create image: %w", err)
		}
		utils.LogIfDevf("[Images] Created image %d in album %d", image.ID, album.ID)
	}

	err = s.images.AttachStandard(ctx, image, variants.Origin.ID, variants.Medium.ID, variants.Small.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach variants: %w", err)
	}

	return s.view(ctx, image)
}

// UploadFromURL 下载远程图片后按 Upload 处理
func (s *Service) UploadFromURL(ctx context.Context, req UploadRequest, rawURL string) (*ImageView, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: source", ErrParameterRequired)
	}

	// 相册不存在时不发起下载
	album, err := s.resolveAlbum(ctx, req)
	if err != nil {
		return nil, err
	}

	src, err := s.fetcher.Fetch(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, album, req, src)
}

// Crop 从原图裁剪出指定区域并保存为命名形状
// 参数在任何图片处理之前校验
func (s *Service) Crop(ctx context.Context, userID, imageID uint, shape string, position []string) (*ImageView, error) {
	if shape == "" {
		return nil, fmt.Errorf("%w: shape", ErrParameterRequired)
	}
	if len(position) == 0 {
		return nil, fmt.Errorf("%w: position", ErrParameterRequired)
	}
	if models.IsReservedShape(shape) {
		return nil, fmt.Errorf("%w: %s", ErrReservedShape, shape)
	}
	if !ValidShape(shape) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShape, utils.SanitizeLogMessage(shape))
	}

	rect, err := process.ParseRect(position)
	if err != nil {
		return nil, err
	}

	image, err := s.ownedImage(ctx, userID, imageID)
	if err != nil {
		return nil, err
	}

	origin, err := s.originFile(ctx, image)
	if err != nil {
		return nil, err
	}

	cropped, err := s.generator.Crop(ctx, origin, rect)
	if err != nil {
		return nil, err
	}

	if err := s.images.UpsertShape(ctx, image.ID, shape, cropped.ID); err != nil {
		return nil, err
	}
	utils.LogIfDevf("[Images] Image %d shape %s -> file %d", image.ID, shape, cropped.ID)

	return s.view(ctx, image)
}

// Get 获取用户的图片及全部形状
func (s *Service) Get(ctx context.Context, userID, imageID uint) (*ImageView, error) {
	image, err := s.ownedImage(ctx, userID, imageID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, image)
}

// ValidShape 形状名只允许字母、数字、下划线和短横线
func ValidShape(shape string) bool {
	if shape == "" || len(shape) > models.MaxShapeLength {
		return false
	}
	for _, r := range shape {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func (s *Service) resolveAlbum(ctx context.Context, req UploadRequest) (*models.Album, error) {
	var (
		album *models.Album
		err   error
	)
	switch {
	case req.AlbumID != 0:
		album, err = s.albums.GetByIDAndUser(ctx, req.AlbumID, req.UserID)
	case req.AlbumTitle != "":
		album, err = s.albums.GetByTitle(ctx, req.UserID, req.AlbumTitle)
	default:
		album, err = s.albums.GetOrCreateDefault(ctx, req.UserID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: album", ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to resolve album: %w", err)
	}
	return album, nil
}

func (s *Service) ownedImage(ctx context.Context, userID, imageID uint) (*models.Image, error) {
	image, err := s.images.GetByIDAndUser(ctx, imageID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: image %d", ErrObjectNotFound, imageID)
		}
		return nil, fmt.Errorf("failed to get image %d: %w", imageID, err)
	}
	return image, nil
}

func (s *Service) originFile(ctx context.Context, image *models.Image) (*models.StoredFile, error) {
	links, err := s.images.ListFiles(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of image %d: %w", image.ID, err)
	}
	for _, link := range links {
		if link.Shape == models.ShapeOrigin && link.File != nil {
			return link.File, nil
		}
	}
	return nil, fmt.Errorf("%w: origin of image %d", ErrObjectNotFound, image.ID)
}

func (s *Service) view(ctx context.Context, image *models.Image) (*ImageView, error) {
	links, err := s.images.ListFiles(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of image %d: %w", image.ID, err)
	}

	v := &ImageView{
		ID:        image.ID,
		AlbumID:   image.AlbumID,
		Title:     image.Title,
		CreatedAt: image.CreatedAt,
		Files:     make([]*FileView, 0, len(links)),
	}
	for _, link := range links {
		if link.File == nil {
			continue
		}
		f := link.File
		v.Files = append(v.Files, &FileView{
			Shape:       link.Shape,
			FileID:      f.ID,
			Fingerprint: f.Fingerprint,
			URL:         s.storage.URL(f.StoragePath),
			Width:       f.Width,
			Height:      f.Height,
			FileSize:    f.FileSize,
			Format:      f.FormatName(),
			SourceURL:   f.SourceURL,
		})
	}
	return v, nil
}

// imageTitle 优先使用显式标题，其次是去掉扩展名的文件名
func imageTitle(title, filename, fingerprint string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if filename != "" {
		if stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename)); stem != "" && stem != "." {
			return stem
		}
	}
	return fingerprint[:12]
}
