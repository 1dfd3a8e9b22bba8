package core

import (
	"github.com/anoixa/imagebank/api/common"
	handlerAlbums "github.com/anoixa/imagebank/api/handler/albums"
	handlerImages "github.com/anoixa/imagebank/api/handler/images"
	"github.com/anoixa/imagebank/api/middleware"
	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// rateLimiters 路由使用的限流器
type rateLimiters struct {
	api  *middleware.IPRateLimiter
	file *middleware.IPRateLimiter
}

func (r *rateLimiters) stop() {
	r.api.StopCleanup()
	r.file.StopCleanup()
}

// registerRoutes 注册所有路由
func registerRoutes(router *gin.Engine, deps *Dependencies, limiters *rateLimiters) {
	registerBasicRoutes(router, deps)

	imageHandler := handlerImages.NewHandler(deps.Images, deps.Storage, deps.Config.UploadMaxBytes())
	albumHandler := handlerAlbums.NewHandler(deps.Albums)

	// 文件访问
	filesGroup := router.Group(storage.FilesRoutePrefix)
	filesGroup.Use(limiters.file.Middleware())
	{
		filesGroup.GET("/*path", imageHandler.ServeFile)  // GET /files/{fp[0:2]}/{fp[2:4]}/{rest}
		filesGroup.HEAD("/*path", imageHandler.ServeFile) // HEAD /files/...
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		v1.Use(limiters.api.Middleware())
		v1.Use(middleware.JWTAuth(deps.JWT))
		{
			imagesGroup := v1.Group("/images")
			{
				imagesGroup.POST("/upload", imageHandler.UploadImage) // POST /api/v1/images/upload
				imagesGroup.POST("/:id/crop", imageHandler.CropImage) // POST /api/v1/images/{id}/crop
				imagesGroup.GET("/:id", imageHandler.GetImage)        // GET /api/v1/images/{id}
			}

			albumsGroup := v1.Group("/albums")
			{
				albumsGroup.GET("", albumHandler.ListAlbums)   // GET /api/v1/albums
				albumsGroup.POST("", albumHandler.CreateAlbum) // POST /api/v1/albums
			}
		}
	}
}

// registerBasicRoutes 注册健康检查、版本与指标路由
func registerBasicRoutes(router *gin.Engine, deps *Dependencies) {
	router.GET("/health", healthHandler(deps))

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
