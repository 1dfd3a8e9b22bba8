package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/imagebank/cache"
	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const healthCheckTimeout = 3 * time.Second

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if _, err := provider.Exists(ctx, "health:probe"); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// healthHandler 检查数据库、缓存和存储，任一异常返回 503
func healthHandler(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		checks := gin.H{
			"database": checkDatabaseHealth(deps.DB),
			"cache":    checkCacheHealth(ctx, deps.Cache),
			"storage":  checkStorageHealth(ctx, deps.Storage),
		}

		status, httpStatus := "ok", http.StatusOK
		for _, result := range checks {
			if result != "ok" {
				status, httpStatus = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":  status,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks":  checks,
		})
	}
}
