package middleware

import (
	"time"

	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics 记录请求耗时与在途请求数
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestFinished(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
