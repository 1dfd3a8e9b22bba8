package process

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ImageInfo 解码得到的图片信息
type ImageInfo struct {
	Width  int
	Height int
	// Format 为 models.Format* 之一，无法识别时为空
	Format string
}

// Box 缩略图的最大宽高
type Box struct {
	Width  int
	Height int
}

// Rect 裁剪区域，右下为开区间
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width 区域宽度
func (r Rect) Width() int { return r.Right - r.Left }

// Height 区域高度
func (r Rect) Height() int { return r.Bottom - r.Top }

// Validate 校验区域是否落在 width x height 的图片内
func (r Rect) Validate(width, height int) error {
	if r.Left < 0 || r.Top < 0 || r.Left >= r.Right || r.Top >= r.Bottom ||
		r.Right > width || r.Bottom > height {
		return fmt.Errorf("%w: (%d,%d,%d,%d) in %dx%d", ErrInvalidRectangle,
			r.Left, r.Top, r.Right, r.Bottom, width, height)
	}
	return nil
}

// ParseRect 解析 left,top,right,bottom 四个整数
// 只传一个元素时按逗号拆分，兼容 position=l,t,r,b 的写法
func ParseRect(parts []string) (Rect, error) {
	if len(parts) == 1 && strings.Contains(parts[0], ",") {
		parts = strings.Split(parts[0], ",")
	}
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("%w: expected 4 components, got %d", ErrInvalidRectangle, len(parts))
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("%w: component %q is not an integer", ErrInvalidRectangle, p)
		}
		v[i] = n
	}
	return Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}

// ThumbnailSize 等比缩放进 box，结果不小于 1 且不超过 box
func ThumbnailSize(width, height int, box Box) (int, int) {
	scale := math.Min(float64(box.Width)/float64(width), float64(box.Height)/float64(height))
	w := clamp(int(math.Round(float64(width)*scale)), 1, box.Width)
	h := clamp(int(math.Round(float64(height)*scale)), 1, box.Height)
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Processor 图片解码与变换后端
// Resize 和 Crop 以源图格式重新编码，无法编码的格式由实现自行降级
type Processor interface {
	Decode(data []byte) (ImageInfo, error)
	Resize(data []byte, width, height int) ([]byte, error)
	Crop(data []byte, rect Rect) ([]byte, error)
	Name() string
}
