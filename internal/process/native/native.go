// Package native 纯 Go 图片处理后端，基于 golang.org/x/image
package native

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/utils/pool"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality 默认 JPEG 质量
const DefaultJPEGQuality = 90

// image.Decode 返回的格式名到存储格式
var decoderFormats = map[string]string{
	"jpeg": models.FormatJPEG,
	"png":  models.FormatPNG,
	"gif":  models.FormatGIF,
	"bmp":  models.FormatBMP,
	"tiff": models.FormatTIFF,
	"webp": models.FormatWEBP,
}

// Processor 纯 Go 实现，WEBP 源图输出为 PNG
type Processor struct {
	jpegQuality int
}

// New 创建处理器
func New(jpegQuality int) *Processor {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Processor{jpegQuality: jpegQuality}
}

// Name 返回处理器名称
func (p *Processor) Name() string {
	return "native"
}

func (p *Processor) decode(data []byte) (image.Image, string, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return img, decoderFormats[name], nil
}

// Decode 完整解码并返回尺寸和格式
func (p *Processor) Decode(data []byte) (process.ImageInfo, error) {
	img, format, err := p.decode(data)
	if err != nil {
		return process.ImageInfo{}, err
	}
	b := img.Bounds()
	return process.ImageInfo{Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}

// Resize 缩放到精确的 width x height
func (p *Processor) Resize(data []byte, width, height int) ([]byte, error) {
	src, format, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return p.encode(dst, format)
}

// Crop 截取区域，调色板图片保留原调色板
func (p *Processor) Crop(data []byte, rect process.Rect) ([]byte, error) {
	src, format, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	b := src.Bounds()
	if err := rect.Validate(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, rect.Width(), rect.Height())
	origin := image.Pt(b.Min.X+rect.Left, b.Min.Y+rect.Top)

	var dst draw.Image
	if paletted, ok := src.(*image.Paletted); ok {
		dst = image.NewPaletted(bounds, paletted.Palette)
	} else {
		dst = image.NewNRGBA(bounds)
	}
	draw.Draw(dst, bounds, src, origin, draw.Src)

	return p.encode(dst, format)
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	var err error
	switch format {
	case models.FormatJPEG:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: p.jpegQuality})
	case models.FormatGIF:
		err = gif.Encode(buf, img, nil)
	case models.FormatBMP:
		err = bmp.Encode(buf, img)
	case models.FormatTIFF:
		err = tiff.Encode(buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		// PNG 以及没有纯 Go 编码器的 WEBP
		err = png.Encode(buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
