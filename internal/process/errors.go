package process

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImageFile 字节无法解码为图片
	ErrInvalidImageFile = errors.New("invalid image file")

	// ErrInvalidRectangle 裁剪区域格式错误或越界
	ErrInvalidRectangle = errors.New("invalid rectangle")

	// ErrInvalidBox 缩略图尺寸框非法
	ErrInvalidBox = errors.New("invalid thumbnail box")

	// ErrInvalidSourceURL 远程地址不是 http(s) URL
	ErrInvalidSourceURL = errors.New("invalid source url")

	// ErrFetch 远程下载失败
	ErrFetch = errors.New("fetch remote image failed")

	// ErrFetchStatus 远程返回非 2xx 状态码
	ErrFetchStatus = fmt.Errorf("%w: unexpected status", ErrFetch)

	// ErrFetchTooLarge 远程响应超过大小上限
	ErrFetchTooLarge = fmt.Errorf("%w: response too large", ErrFetch)
)

// FetchStatusError 携带远程状态码
type FetchStatusError struct {
	URL        string
	StatusCode int
}

func (e *FetchStatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchStatusError) Unwrap() error {
	return ErrFetchStatus
}
