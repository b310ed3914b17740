package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zcredlabs/zscore/internal/database"
)

// HandleRateLimitStatus returns the current rate limit status for the requesting client
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		status := gin.H{
			"ip": ip,
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimitPerMin,
					"period": "1 minute",
				},
				"client_per_week": gin.H{
					"limit":  rl.config.ClientLimitPerWeek,
					"period": "1 week",
				},
			},
			"timestamp": time.Now().Format(time.RFC3339),
		}

		// Add client-specific info if available
		if clientID, exists := c.Get("client_id"); exists {
			if clientIDStr, ok := clientID.(string); ok {
				status["client_id"] = clientIDStr

				if clientStats, exists := c.Get("client_stats"); exists {
					if stats, ok := clientStats.(*database.UsageStats); ok {
						status["requests_this_week"] = stats.RequestsThisWeek
						status["week_start"] = stats.WeekStart.Format("2006-01-02")
						status["week_end"] = stats.WeekEnd.Format("2006-01-02")
					}
				}
			}
		}

		c.JSON(http.StatusOK, status)
	}
}

// HandleAdminRateLimits returns comprehensive rate limit information (admin only)
func (rl *RateLimiter) HandleAdminRateLimits() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Get key count
		keyCount, err := rl.GetKeyCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to get key count",
			})
			return
		}

		// Get stats
		stats := rl.GetStats()

		// Get metrics if available
		var rateLimitMetrics map[string]interface{}
		if rl.metrics != nil {
			rateLimitMetrics = rl.metrics.GetRateLimitStats()
		}

		response := gin.H{
			"total_keys":    keyCount,
			"limiter_stats": stats,
			"metrics":       rateLimitMetrics,
			"timestamp":     time.Now().Format(time.RFC3339),
		}

		c.JSON(http.StatusOK, response)
	}
}

// HandleAdminResetClient resets rate limits for a specific client (admin only)
func (rl *RateLimiter) HandleAdminResetClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientID := c.Param("clientID")

		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "client ID is required",
			})
			return
		}

		// Reset client rate limit
		err := rl.InvalidateClient(ctx, clientID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to reset rate limit",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "rate limit reset successfully",
			"client_id": clientID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminInvalidateIP invalidates all rate limits for an IP (admin only)
func (rl *RateLimiter) HandleAdminInvalidateIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.Param("ip")

		if ip == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "IP address is required",
			})
			return
		}

		err := rl.InvalidateIP(ctx, ip)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to invalidate IP rate limits",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "IP rate limits invalidated successfully",
			"ip":        ip,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
