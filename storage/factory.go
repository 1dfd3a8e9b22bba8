package storage

import (
	"fmt"
	"log"

	"github.com/anoixa/imagebank/config"
)

// FilesRoutePrefix 服务端代理文件访问的路由前缀
const FilesRoutePrefix = "/files"

// NewProvider 根据配置创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	urlPrefix := cfg.BaseURL() + FilesRoutePrefix

	var (
		provider Provider
		err      error
	)

	switch cfg.StorageType {
	case "local", "":
		provider, err = NewLocalStorage(cfg.StorageLocalPath, urlPrefix)
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			UseSSL:          cfg.MinioUseSSL,
			BucketName:      cfg.MinioBucketName,
			PublicURL:       cfg.MinioPublicURL,
		}, urlPrefix)
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
			Timeout:  cfg.WebDAVTimeout,
		}, urlPrefix)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	log.Printf("[Storage] Using '%s' storage provider", provider.Name())
	return provider, nil
}
