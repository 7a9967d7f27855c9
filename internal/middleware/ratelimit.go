package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/utils"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter 按客户端 IP 限流
type RateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter rps <= 0 时不限流
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limiters, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: limiters,
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	// 并发时以先写入的为准
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

// Handler 限流中间件，超限返回 429
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if !rl.limiter(key).Allow() {
			logrus.WithFields(logrus.Fields{
				"ip":   key,
				"path": c.Request.URL.Path,
			}).Warn("rate limit exceeded")
			c.Header("Retry-After", retryAfter(rl.rate))
			utils.Detail(c, http.StatusTooManyRequests, utils.MsgThrottled)
			return
		}
		c.Next()
	}
}

// retryAfter 补满一个令牌所需的秒数
func retryAfter(r rate.Limit) string {
	return strconv.Itoa(int(math.Max(1, math.Ceil(1/float64(r)))))
}
