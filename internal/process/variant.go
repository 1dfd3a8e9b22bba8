package process

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/anoixa/imagebank/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// 默认标准变体尺寸
var (
	DefaultMediumBox = Box{Width: 350, Height: 350}
	DefaultSmallBox  = Box{Width: 150, Height: 150}
)

// Variants 标准变体，三者可能指向同一文件
type Variants struct {
	Origin *models.StoredFile
	Medium *models.StoredFile
	Small  *models.StoredFile
}

// GeneratorConfig 变体生成配置
type GeneratorConfig struct {
	Medium Box
	Small  Box
	// MaxConcurrency 同时进行的解码/编码数量上限，<=0 表示不限制
	MaxConcurrency int64
}

// Generator 基于 Store 生成缩略图和裁剪
type Generator struct {
	store     *Store
	processor Processor
	medium    Box
	small     Box
	sem       *semaphore.Weighted
	metrics   *metrics.Metrics
}

// NewGenerator 创建变体生成器
func NewGenerator(store *Store, processor Processor, cfg GeneratorConfig, m *metrics.Metrics) *Generator {
	if cfg.Medium.Width <= 0 || cfg.Medium.Height <= 0 {
		cfg.Medium = DefaultMediumBox
	}
	if cfg.Small.Width <= 0 || cfg.Small.Height <= 0 {
		cfg.Small = DefaultSmallBox
	}

	g := &Generator{
		store:     store,
		processor: processor,
		medium:    cfg.Medium,
		small:     cfg.Small,
		metrics:   m,
	}
	if cfg.MaxConcurrency > 0 {
		g.sem = semaphore.NewWeighted(cfg.MaxConcurrency)
	}
	return g
}

// Store 返回底层内容寻址存储
func (g *Generator) Store() *Store {
	return g.store
}

func (g *Generator) acquire(ctx context.Context) (func(), error) {
	if g.sem == nil {
		return func() {}, nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire image worker: %w", err)
	}
	return func() { g.sem.Release(1) }, nil
}

// Thumbnail 等比缩小到 box 内；已经放得下时原样返回同一个指针
func (g *Generator) Thumbnail(ctx context.Context, file *models.StoredFile, box Box) (*models.StoredFile, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBox, box.Width, box.Height)
	}
	if file.Fits(box.Width, box.Height) {
		return file, nil
	}

	start := time.Now()
	result, err := g.thumbnail(ctx, file, box)
	g.metrics.RecordVariant("thumbnail", time.Since(start), err)
	return result, err
}

func (g *Generator) thumbnail(ctx context.Context, file *models.StoredFile, box Box) (*models.StoredFile, error) {
	width, height := ThumbnailSize(file.Width, file.Height, box)

	data, err := g.store.ReadBlob(ctx, file)
	if err != nil {
		return nil, err
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}
	out, err := g.processor.Resize(data, width, height)
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to resize %s to %dx%d: %w", file.Fingerprint, width, height, err)
	}

	utils.LogIfDevf("[Generator] Thumbnail %s %dx%d -> %dx%d",
		file.Fingerprint, file.Width, file.Height, width, height)
	return g.store.Ingest(ctx, NewBytesSource(out, "", ""))
}

// Crop 按区域裁剪，输出尺寸恰为区域宽高
func (g *Generator) Crop(ctx context.Context, file *models.StoredFile, rect Rect) (*models.StoredFile, error) {
	if err := rect.Validate(file.Width, file.Height); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := g.crop(ctx, file, rect)
	g.metrics.RecordVariant("crop", time.Since(start), err)
	return result, err
}

func (g *Generator) crop(ctx context.Context, file *models.StoredFile, rect Rect) (*models.StoredFile, error) {
	data, err := g.store.ReadBlob(ctx, file)
	if err != nil {
		return nil, err
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}
	out, err := g.processor.Crop(data, rect)
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to crop %s: %w", file.Fingerprint, err)
	}

	return g.store.Ingest(ctx, NewBytesSource(out, "", ""))
}

// DeriveStandard 入库原图并生成 md、sm 两个缩略图
func (g *Generator) DeriveStandard(ctx context.Context, src Source) (*Variants, error) {
	origin, err := g.store.Ingest(ctx, src)
	if err != nil {
		return nil, err
	}

	variants := &Variants{Origin: origin}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		md, err := g.Thumbnail(egCtx, origin, g.medium)
		if err != nil {
			return fmt.Errorf("medium variant: %w", err)
		}
		variants.Medium = md
		return nil
	})
	eg.Go(func() error {
		sm, err := g.Thumbnail(egCtx, origin, g.small)
		if err != nil {
			return fmt.Errorf("small variant: %w", err)
		}
		variants.Small = sm
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return variants, nil
}
