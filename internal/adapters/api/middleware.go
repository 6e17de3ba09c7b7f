package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/coldroute-go/internal/application/auth"
)

// contextUserKey is the gin context key holding the authenticated user
const contextUserKey = "current_user"

// clientLimiter tracks one token bucket per client IP
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (c *clientLimiter) limiter(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(c.rps, c.burst)
		c.limiters[ip] = limiter
	}
	return limiter
}

// RateLimitMiddleware rejects clients exceeding their per-IP budget with 429
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	clients := newClientLimiter(rps, burst)
	return func(ctx *gin.Context) {
		if !clients.limiter(ctx.ClientIP()).Allow() {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "rate limit exceeded"})
			return
		}
		ctx.Next()
	}
}

// AuthMiddleware requires a valid bearer token and stores the resolved user
// on the request context
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
			return
		}

		user, err := authService.CurrentUser(ctx.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired token"})
			return
		}

		ctx.Set(contextUserKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware
func CurrentUser(ctx *gin.Context) *auth.User {
	value, ok := ctx.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*auth.User)
	return user
}
