package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/anoixa/imagebank/storage"
	"github.com/anoixa/imagebank/utils"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// FetcherConfig 远程下载配置
type FetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	// RPS 全局下载速率，<=0 表示不限速
	RPS   float64
	Burst int
}

// Fetcher 下载远程图片并包装为 Source
type Fetcher struct {
	client   *http.Client
	files    FileRepository
	storage  storage.Provider
	limiter  *rate.Limiter
	maxBytes int64
	metrics  *metrics.Metrics
}

// NewFetcher 创建下载器；client 为空时按配置新建
func NewFetcher(files FileRepository, provider storage.Provider, cfg FetcherConfig, client *http.Client, m *metrics.Metrics) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Fetcher{
		client:   client,
		files:    files,
		storage:  provider,
		limiter:  limiter,
		maxBytes: cfg.MaxBytes,
		metrics:  m,
	}
}

// Fetch 获取远程图片
// 已有记录的来源地址与 rawURL 相同时直接读取已存储的文件，不再发起请求
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSourceURL, utils.SanitizeLogURL(rawURL))
	}

	if src, ok := f.fromExisting(ctx, rawURL); ok {
		return src, nil
	}

	start := time.Now()
	data, err := f.download(ctx, rawURL)
	f.metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return NewBytesSource(data, sourceName(u), rawURL), nil
}

func (f *Fetcher) fromExisting(ctx context.Context, rawURL string) (Source, bool) {
	existing, err := f.files.GetBySourceURL(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.LogIfDevf("[Fetcher] Source url lookup failed: %v", err)
		}
		return nil, false
	}

	r, err := f.storage.GetWithContext(ctx, existing.StoragePath)
	if err != nil {
		// 文件丢失时重新下载，由 Store 补写
		utils.LogIfDevf("[Fetcher] Stored blob for %s unavailable: %v", utils.SanitizeLogURL(rawURL), err)
		return nil, false
	}
	defer storage.CloseIfCloser(r)

	data, err := io.ReadAll(r)
	if err != nil {
		utils.LogIfDevf("[Fetcher] Failed to read stored blob %s: %v", existing.StoragePath, err)
		return nil, false
	}

	utils.LogIfDevf("[Fetcher] Reusing stored file %s for %s", existing.Fingerprint, utils.SanitizeLogURL(rawURL))
	return NewBytesSource(data, existing.OriginFilename, rawURL), true
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchStatusError{URL: utils.SanitizeLogURL(rawURL), StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFetchTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFetchTooLarge, f.maxBytes)
	}

	return data, nil
}

// sourceName 取 URL 路径的最后一段作为文件名
func sourceName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}
