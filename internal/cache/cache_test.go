package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/monitoring"
)

func TestCacheSetGetDelete(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)

	c.Set("k", []byte(`{"ok":true}`))
	data, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte(`{"ok":true}`), data)
	assert.Equal(t, 1, c.Size())

	c.Delete("k")
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(5 * time.Millisecond)
	c.Set("k", []byte("v"))

	time.Sleep(20 * time.Millisecond)
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestCacheClearAndStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	stats := c.Stats()
	assert.Equal(t, 2, stats["total_items"])
	assert.Equal(t, 2, stats["active_items"])
	assert.Equal(t, time.Minute.Seconds(), stats["ttl_seconds"])

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareCachesConfiguredGetEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	calls := 0
	router := gin.New()
	router.Use(c.Middleware(metrics, "/api/v1/model"))
	router.GET("/api/v1/model", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"model_version": "20240101_120000"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/model", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "20240101_120000")
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), metrics.CacheHits)
	assert.Equal(t, int64(1), metrics.CacheMisses)
}

func TestMiddlewareSkipsOtherRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	router := gin.New()
	router.Use(c.Middleware(metrics, "/api/v1/model"))
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.POST("/api/v1/model", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/model", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Zero(t, metrics.CacheHits)
	assert.Zero(t, metrics.CacheMisses)
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareDoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	router := gin.New()
	router.Use(c.Middleware(metrics, "/api/v1/model"))
	router.GET("/api/v1/model", func(ctx *gin.Context) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "not trained"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	}

	assert.Equal(t, 0, c.Size())
	assert.Equal(t, int64(2), metrics.CacheMisses)
}
