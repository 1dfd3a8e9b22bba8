package core

import (
	"net/http"
	"time"

	"github.com/anoixa/imagebank/api/middleware"
	"github.com/anoixa/imagebank/cache"
	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/database"
	albumrepo "github.com/anoixa/imagebank/database/repo/albums"
	"github.com/anoixa/imagebank/internal/auth"
	imageSvc "github.com/anoixa/imagebank/internal/images"
	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/anoixa/imagebank/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// maxConcurrentRequests 同时处理的请求上限，避免解码大图时内存过载
const maxConcurrentRequests = 100

// Dependencies 服务器依赖项
type Dependencies struct {
	Config   *config.Config
	DB       database.Provider
	Storage  storage.Provider
	Cache    cache.Provider
	JWT      *auth.JWTService
	Albums   *albumrepo.Repository
	Images   *imageSvc.Service
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// setupRouter 创建 gin 引擎并注册中间件和路由
func setupRouter(deps *Dependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)
	router.MaxMultipartMemory = 32 << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.NewConcurrencyLimiter(maxConcurrentRequests).Middleware())

	limiters := &rateLimiters{
		api:  middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime),
		file: middleware.NewIPRateLimiter(cfg.RateLimitFileRPS, cfg.RateLimitFileBurst, cfg.RateLimitExpireTime),
	}

	registerRoutes(router, deps, limiters)

	return router, limiters.stop
}

// StartServer 创建 http.Server，返回的清理函数停止限流器的后台任务
func StartServer(deps *Dependencies) (*http.Server, func()) {
	router, cleanup := setupRouter(deps)

	srv := &http.Server{
		Addr:         deps.Config.Addr(),
		Handler:      router,
		ReadTimeout:  deps.Config.ServerReadTimeout,
		WriteTimeout: deps.Config.ServerWriteTimeout,
		IdleTimeout:  deps.Config.ServerIdleTimeout,
	}

	return srv, cleanup
}
