package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zcredlabs/zscore/internal/database"
)

// scoringPaths are the endpoints subject to the weekly client quota
var scoringPaths = map[string]bool{
	"/api/v1/predict":     true,
	"/api/v1/trust-score": true,
	"/api/v1/explain":     true,
}

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		// Check rate limit
		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Log error but don't block request on rate limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		// Inject standard rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		// Check if request is allowed
		if !result.Allowed {
			// Increment metrics
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			// Add Retry-After header
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))

			// Return 429 Too Many Requests
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded for IP",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		// Request allowed, continue
		c.Next()
	}
}

// ClientRateLimitMiddleware creates middleware for the weekly scoring quota.
// It expects the quota middleware to have resolved the client already.
func (rl *RateLimiter) ClientRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only scoring endpoints burn quota
		if !scoringPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Get client ID from context (set by the quota middleware)
		clientID, exists := c.Get("client_id")
		if !exists {
			// No client resolved, skip client rate limiting
			c.Next()
			return
		}

		clientIDStr, ok := clientID.(string)
		if !ok {
			slog.Warn("Invalid client ID type in context")
			c.Next()
			return
		}

		ctx := c.Request.Context()

		// Check client rate limit
		result, err := rl.AllowClient(ctx, clientIDStr)
		if err != nil {
			// Log error but don't block request on rate limiter failure
			slog.Error("Client rate limit check failed", "client_id", clientIDStr[:8]+"...", "error", err)
			c.Next()
			return
		}

		// Inject client-specific rate limit headers
		c.Header("X-RateLimit-Client-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Client-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Client-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		// Check if request is allowed
		if !result.Allowed {
			// Increment metrics
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitClientBlock()
			}

			// Add Retry-After header
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))

			response := gin.H{
				"error":              "weekly scoring quota exceeded",
				"message":            fmt.Sprintf("You have used all %d scoring requests this week", result.Limit),
				"remaining_requests": result.Remaining,
				"reset_at":           result.ResetAt.Unix(),
				"retry_after":        int(result.RetryAfter.Seconds()),
			}

			// Add the week window when the quota middleware stored it
			if clientStats, exists := c.Get("client_stats"); exists {
				if stats, ok := clientStats.(*database.UsageStats); ok {
					response["week_start"] = stats.WeekStart.Format("2006-01-02")
					response["week_end"] = stats.WeekEnd.Format("2006-01-02")
				}
			}

			c.JSON(http.StatusTooManyRequests, response)
			c.Abort()
			return
		}

		// Request allowed, continue
		c.Next()
	}
}

// EndpointRateLimitMiddleware creates middleware for endpoint-specific rate limiting
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		// Create endpoint-specific key
		key := fmt.Sprintf("ratelimit:endpoint:%s:%s", endpoint, ip)

		// Use custom limit for this endpoint
		result, err := rl.allow(ctx, key, limit, 60*time.Second) // Per minute
		if err != nil {
			slog.Error("Endpoint rate limit check failed", "endpoint", endpoint, "ip", ip, "error", err)
			c.Next()
			return
		}

		// Inject headers
		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			// Increment metrics
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitEndpoint(endpoint)
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("rate limit exceeded for endpoint: %s", endpoint),
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute for this endpoint", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
