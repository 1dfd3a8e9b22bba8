package middleware

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anoixa/imagebank/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

type IPRateLimiter struct {
	rps        float64       // 每秒请求数
	burst      int           // 令牌桶的容量
	expireTime time.Duration // 过期时间
	limiterMap *sync.Map
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewIPRateLimiter Create new IP-based rate limits
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if expireTime <= 0 {
		expireTime = 10 * time.Minute
	}
	limiter := &IPRateLimiter{
		rps:        rps,
		burst:      burst,
		expireTime: expireTime,
		limiterMap: &sync.Map{},
		stopChan:   make(chan struct{}),
	}

	// 启动后台清理 goroutine
	go limiter.cleanupStaleClients()

	return limiter
}

// Middleware Return a Gin middleware handler
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}

		ip := getClientIP(c)
		val, ok := rl.limiterMap.Load(ip)
		if !ok {
			val, _ = rl.limiterMap.LoadOrStore(ip, &clientLimiter{
				limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
			})
		}

		client := val.(*clientLimiter)
		client.lastSeen.Store(time.Now().UnixNano())

		if !client.limiter.Allow() {
			common.RespondErrorAbort(c, http.StatusTooManyRequests, common.CodeTooManyRequests, "Too many requests")
			return
		}

		c.Next()
	}
}

func (rl *IPRateLimiter) StopCleanup() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *IPRateLimiter) cleanupStaleClients() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictBefore(time.Now().Add(-rl.expireTime))
		case <-rl.stopChan:
			return
		}
	}
}

// evictBefore 删除最后访问早于 cutoff 的条目
func (rl *IPRateLimiter) evictBefore(cutoff time.Time) {
	rl.limiterMap.Range(func(key, value interface{}) bool {
		client := value.(*clientLimiter)
		if client.lastSeen.Load() < cutoff.UnixNano() {
			rl.limiterMap.Delete(key)
		}
		return true
	})
}

// getClientIP Get the client's real IP address
func getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
