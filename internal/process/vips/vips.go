// Package vips 基于 libvips 的图片处理后端
package vips

import (
	"fmt"
	"sync"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/davidbyttow/govips/v2/vips"
)

var (
	startOnce sync.Once
	stopOnce  sync.Once
)

var imageTypeFormats = map[vips.ImageType]string{
	vips.ImageTypeJPEG: models.FormatJPEG,
	vips.ImageTypePNG:  models.FormatPNG,
	vips.ImageTypeGIF:  models.FormatGIF,
	vips.ImageTypeBMP:  models.FormatBMP,
	vips.ImageTypeTIFF: models.FormatTIFF,
	vips.ImageTypeWEBP: models.FormatWEBP,
}

// Startup 初始化 libvips，可重复调用
func Startup(concurrency int) {
	startOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: concurrency,
			MaxCacheFiles:    0,
			MaxCacheMem:      50 * 1024 * 1024,
			MaxCacheSize:     100,
		})
	})
}

// Shutdown 释放 libvips
func Shutdown() {
	stopOnce.Do(vips.Shutdown)
}

// Processor libvips 实现，WEBP 源图保持 WEBP 输出
type Processor struct {
	jpegQuality int
}

// New 创建处理器，调用前需 Startup
func New(jpegQuality int) *Processor {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 90
	}
	return &Processor{jpegQuality: jpegQuality}
}

// Name 返回处理器名称
func (p *Processor) Name() string {
	return "vips"
}

// Decode 加载图片并返回尺寸和格式
func (p *Processor) Decode(data []byte) (process.ImageInfo, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return process.ImageInfo{}, err
	}
	defer img.Close()

	return process.ImageInfo{
		Width:  img.Width(),
		Height: img.Height(),
		Format: imageTypeFormats[img.Format()],
	}, nil
}

// Resize 强制缩放到 width x height
func (p *Processor) Resize(data []byte, width, height int) ([]byte, error) {
	format := imageTypeFormats[vips.DetermineImageType(data)]

	img, err := vips.NewThumbnailWithSizeFromBuffer(data, width, height, vips.InterestingNone, vips.SizeForce)
	if err != nil {
		return nil, fmt.Errorf("thumbnail from buffer: %w", err)
	}
	defer img.Close()

	return p.export(img, format)
}

// Crop 截取区域
func (p *Processor) Crop(data []byte, rect process.Rect) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("load image from buffer: %w", err)
	}
	defer img.Close()

	if err := rect.Validate(img.Width(), img.Height()); err != nil {
		return nil, err
	}

	format := imageTypeFormats[img.Format()]
	if err := img.ExtractArea(rect.Left, rect.Top, rect.Width(), rect.Height()); err != nil {
		return nil, fmt.Errorf("extract area: %w", err)
	}

	return p.export(img, format)
}

func (p *Processor) export(img *vips.ImageRef, format string) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch format {
	case models.FormatJPEG:
		params := vips.NewJpegExportParams()
		params.Quality = p.jpegQuality
		params.StripMetadata = true
		out, _, err = img.ExportJpeg(params)
	case models.FormatGIF:
		out, _, err = img.ExportGIF(vips.NewGifExportParams())
	case models.FormatTIFF:
		out, _, err = img.ExportTiff(vips.NewTiffExportParams())
	case models.FormatWEBP:
		params := vips.NewWebpExportParams()
		params.StripMetadata = true
		out, _, err = img.ExportWebp(params)
	default:
		// PNG，以及 libvips 无法写出的 BMP
		out, _, err = img.ExportPng(vips.NewPngExportParams())
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	return out, nil
}
