package app

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/anoixa/imagebank/cache"
	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/database/repo/albums"
	"github.com/anoixa/imagebank/database/repo/files"
	"github.com/anoixa/imagebank/database/repo/images"
	"github.com/anoixa/imagebank/internal/auth"
	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/internal/process/native"
	"github.com/anoixa/imagebank/internal/process/vips"
	"github.com/anoixa/imagebank/storage"
	"github.com/anoixa/imagebank/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// Container 依赖注入容器，管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storage         storage.Provider
	cache           cache.Provider
	metrics         *metrics.Metrics
	vipsStarted     bool

	FilesRepo  *files.Repository
	CachedRepo *files.CachedRepository
	AlbumsRepo *albums.Repository
	ImagesRepo *images.Repository

	Processor process.Processor
	Store     *process.Store
	Generator *process.Generator
	Fetcher   *process.Fetcher
	Images    *imageSvc.Service
	JWT       *auth.JWTService
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 依次初始化数据库、存储、缓存和业务服务
// 失败时已初始化的资源由调用方通过 Close 释放
func (c *Container) Init() error {
	utils.LogIfDev("Initializing DI container...")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := c.initCache(); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if err := c.initMetrics(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.initRepositories()
	c.initProcessing()
	c.Images = imageSvc.NewService(c.AlbumsRepo, c.ImagesRepo, c.Generator, c.Fetcher)

	utils.LogIfDev("DI container initialized successfully")
	return nil
}

// InitAuth 初始化 JWT 服务，仅 serve 与 token 命令需要
func (c *Container) InitAuth() error {
	jwtService, err := auth.NewJWTService(c.config.JWTSecret, c.config.JWTExpiresIn)
	if err != nil {
		return err
	}
	c.JWT = jwtService
	return nil
}

func (c *Container) initDatabase() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.databaseFactory = factory
	return factory.AutoMigrate()
}

func (c *Container) initStorage() error {
	provider, err := storage.NewProvider(c.config)
	if err != nil {
		return err
	}
	c.storage = provider
	utils.LogIfDevf("Storage provider '%s' initialized", provider.Name())
	return nil
}

func (c *Container) initCache() error {
	provider, err := cache.NewProvider(cache.ConfigFromApp(c.config))
	if err != nil {
		return err
	}
	c.cache = provider
	utils.LogIfDevf("Cache provider '%s' initialized", provider.Name())
	return nil
}

func (c *Container) initMetrics() error {
	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	c.metrics = m
	return nil
}

// initRepositories 初始化所有仓库
func (c *Container) initRepositories() {
	db := c.databaseFactory.GetProvider()
	c.FilesRepo = files.NewRepository(db)
	c.CachedRepo = files.NewCachedRepository(c.FilesRepo, c.cache, c.config.CacheTTL)
	c.AlbumsRepo = albums.NewRepository(db)
	c.ImagesRepo = images.NewRepository(db)
	utils.LogIfDev("Repositories initialized")
}

// initProcessing 按配置选择图片处理器并构建存储、变体生成与远程抓取
func (c *Container) initProcessing() {
	cfg := c.config
	if strings.EqualFold(cfg.ImageProcessor, "vips") {
		vips.Startup(runtime.NumCPU())
		c.vipsStarted = true
		c.Processor = vips.New(cfg.JPEGQuality)
	} else {
		c.Processor = native.New(cfg.JPEGQuality)
	}
	utils.LogIfDevf("Image processor '%s' selected", c.Processor.Name())

	c.Store = process.NewStore(c.CachedRepo, c.storage, c.Processor, c.metrics)
	c.Generator = process.NewGenerator(c.Store, c.Processor, process.GeneratorConfig{
		Medium:         process.Box{Width: cfg.VariantMdWidth, Height: cfg.VariantMdHeight},
		Small:          process.Box{Width: cfg.VariantSmWidth, Height: cfg.VariantSmHeight},
		MaxConcurrency: int64(runtime.NumCPU()),
	}, c.metrics)
	c.Fetcher = process.NewFetcher(c.CachedRepo, c.storage, process.FetcherConfig{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes(),
		RPS:      cfg.FetchRPS,
		Burst:    cfg.FetchBurst,
	}, nil, c.metrics)
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.config
}

// DatabaseProvider 获取数据库提供者
func (c *Container) DatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// Storage 获取存储提供者
func (c *Container) Storage() storage.Provider {
	return c.storage
}

// Cache 获取缓存提供者
func (c *Container) Cache() cache.Provider {
	return c.cache
}

// Metrics 获取指标集合
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Close 关闭所有服务
func (c *Container) Close() error {
	utils.LogIfDev("Closing DI container...")

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			utils.LogIfDevf("Error closing cache: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			utils.LogIfDevf("Error closing database factory: %v", err)
		}
	}

	if c.vipsStarted {
		vips.Shutdown()
	}

	utils.LogIfDev("DI container closed")
	return nil
}
