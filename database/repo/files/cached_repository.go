package files

import (
	"context"
	"log"
	"time"

	"github.com/anoixa/imagebank/cache"
	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/utils"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 10 * time.Minute

// CachedRepository 为指纹和来源地址查询加缓存的装饰器
// 记录创建后除回填来源地址外不再变化，命中缓存即可跳过数据库
type CachedRepository struct {
	*Repository
	cache cache.Provider
	ttl   time.Duration
}

// NewCachedRepository 创建带缓存的仓库
func NewCachedRepository(repo *Repository, provider cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		Repository: repo,
		cache:      provider,
		ttl:        ttl,
	}
}

// GetByFingerprint 按指纹获取（带缓存）
func (c *CachedRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.StoredFile, error) {
	key := cache.FileByFingerprint.Build(fingerprint)

	var cached models.StoredFile
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		utils.LogIfDevf("[CachedRepository] Cache hit for fingerprint: %s", fingerprint)
		return &cached, nil
	}

	file, err := c.Repository.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	c.store(ctx, file)
	return file, nil
}

// GetBySourceURL 按来源地址获取（带缓存）
func (c *CachedRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*models.StoredFile, error) {
	key := cache.FileBySourceURL.Build(utils.HashKey(sourceURL))

	var cached models.StoredFile
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	file, err := c.Repository.GetBySourceURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, file, c.ttl); err != nil {
		log.Printf("[CachedRepository] Failed to cache source url lookup: %v", err)
	}
	return file, nil
}

// CreateOrGet 插入记录并写入缓存
func (c *CachedRepository) CreateOrGet(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {
	saved, err := c.Repository.CreateOrGet(ctx, file)
	if err != nil {
		return nil, err
	}
	c.store(ctx, saved)
	return saved, nil
}

// BackfillSourceURL 回填来源地址并清除指纹缓存
func (c *CachedRepository) BackfillSourceURL(ctx context.Context, file *models.StoredFile, sourceURL string) error {
	if err := c.Repository.BackfillSourceURL(ctx, file, sourceURL); err != nil {
		return err
	}
	c.invalidate(ctx, file)
	return nil
}

// Delete 删除记录并清除缓存
func (c *CachedRepository) Delete(ctx context.Context, file *models.StoredFile) error {
	if err := c.Repository.Delete(ctx, file); err != nil {
		return err
	}
	c.invalidate(ctx, file)
	return nil
}

func (c *CachedRepository) store(ctx context.Context, file *models.StoredFile) {
	if err := c.cache.Set(ctx, cache.FileByFingerprint.Build(file.Fingerprint), file, c.ttl); err != nil {
		log.Printf("[CachedRepository] Failed to cache stored file %s: %v", file.Fingerprint, err)
	}
}

func (c *CachedRepository) invalidate(ctx context.Context, file *models.StoredFile) {
	_ = c.cache.Delete(ctx, cache.FileByFingerprint.Build(file.Fingerprint))
	if file.SourceURL != nil {
		_ = c.cache.Delete(ctx, cache.FileBySourceURL.Build(utils.HashKey(*file.SourceURL)))
	}
}
