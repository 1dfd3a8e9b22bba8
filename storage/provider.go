package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 存储中不存在该对象
var ErrNotFound = errors.New("storage object not found")

// Provider 存储提供者接口
// storagePath 均为相对路径，如 ab/cd/ef0123...jpg
type Provider interface {
	// SaveWithContext 保存文件到存储，已存在时覆盖
	SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error

	// GetWithContext 从存储获取文件，不存在时返回 ErrNotFound
	GetWithContext(ctx context.Context, storagePath string) (io.ReadSeeker, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, storagePath string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, storagePath string) (bool, error)

	// URL 返回文件的公开访问地址
	URL(storagePath string) string

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// IsNotFound 判断错误是否为对象不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// CloseIfCloser 关闭实现了 io.Closer 的读取器
func CloseIfCloser(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}
