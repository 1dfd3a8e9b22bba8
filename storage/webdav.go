package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client    *gowebdav.Client
	baseURL   string
	rootPath  string
	urlPrefix string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
// 文件经由服务端 /files 代理访问，不向外暴露 WebDAV 凭据
func NewWebDAVStorage(cfg WebDAVConfig, urlPrefix string) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := newWebDAVStorage(client, cfg.URL, cfg.RootPath, urlPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

func newWebDAVStorage(client *gowebdav.Client, baseURL, rootPath, urlPrefix string) *WebDAVStorage {
	rootPath = strings.Trim(rootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}
	return &WebDAVStorage{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		rootPath:  rootPath,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// run 在协程中执行阻塞的 WebDAV 调用，响应 ctx 取消
func run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ensureParentDir 逐级创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)
	if parentDir == "/" || parentDir == "." {
		return nil
	}

	currentPath := ""
	for _, part := range strings.Split(strings.Trim(parentDir, "/"), "/") {
		if part == "" {
			continue
		}
		currentPath = currentPath + "/" + part

		p := currentPath
		err := run(ctx, func() error {
			return s.client.Mkdir(p, os.FileMode(0755))
		})
		if err != nil && !isCollectionExistsError(err) {
			return fmt.Errorf("failed to create directory %s: %w", currentPath, err)
		}
	}

	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, s := range []string{"already exists", "Conflict", "conflict", "409", "Method Not Allowed", "405"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error {
	if !IsValidStoragePath(storagePath) {
		return fmt.Errorf("invalid storage path: %s", storagePath)
	}

	fullPath := s.fullPath(storagePath)
	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", storagePath, err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	if err := run(ctx, func() error { return s.client.Write(fullPath, data, 0644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, storagePath string) (io.ReadSeeker, error) {
	fullPath := s.fullPath(storagePath)

	var data []byte
	err := run(ctx, func() error {
		var readErr error
		data, readErr = s.client.Read(fullPath)
		return readErr
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, err)
	}
	return bytes.NewReader(data), nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, storagePath string) error {
	fullPath := s.fullPath(storagePath)
	return run(ctx, func() error { return s.client.Remove(fullPath) })
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	fullPath := s.fullPath(storagePath)

	exists := false
	err := run(ctx, func() error {
		info, statErr := s.client.Stat(fullPath)
		if statErr == nil {
			exists = !info.IsDir()
			return nil
		}
		if gowebdav.IsErrNotFound(statErr) {
			return nil
		}
		return statErr
	})
	return exists, err
}

// URL 返回文件访问地址
func (s *WebDAVStorage) URL(storagePath string) string {
	return s.urlPrefix + "/" + strings.TrimLeft(storagePath, "/")
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return run(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
