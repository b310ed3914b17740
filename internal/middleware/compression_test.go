package middleware

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressionEngine(cfg CompressionConfig) (*gin.Engine, *CompressionMiddleware) {
	gin.SetMode(gin.TestMode)

	cm := NewCompressionMiddleware(cfg)
	r := gin.New()
	r.Use(cm.Handler())

	large := map[string]interface{}{
		"payload": strings.Repeat("alternative data scoring ", 200),
	}

	r.GET("/large", func(c *gin.Context) {
		c.JSON(http.StatusOK, large)
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/binary", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", []byte(strings.Repeat("x", 4096)))
	})
	r.GET("/chunked", func(c *gin.Context) {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "application/json")
		_, _ = c.Writer.Write([]byte(`{"part":"` + strings.Repeat("a", 2048) + `",`))
		_, _ = c.Writer.Write([]byte(`"tail":"` + strings.Repeat("b", 2048) + `"}`))
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"doc": strings.Repeat("swagger ", 500)})
	})

	return r, cm
}

func get(r *gin.Engine, path string, acceptGzip bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if acceptGzip {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func gunzip(t *testing.T, w *httptest.ResponseRecorder) []byte {
	t.Helper()
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gz.Close()

	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return data
}

func TestCompressionLargeJSON(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	w := get(r, "/large", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Get("Vary"), "Accept-Encoding")
	assert.Empty(t, w.Header().Get("Content-Length"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(gunzip(t, w), &resp))
	assert.Contains(t, resp["payload"], "alternative data scoring")
}

func TestCompressionSmallResponsePassthrough(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	w := get(r, "/small", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCompressionSkipsWithoutNegotiation(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	w := get(r, "/large", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func TestCompressionSkipsNonCompressibleContent(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	w := get(r, "/binary", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, 4096, w.Body.Len())
}

func TestCompressionExcludedPrefix(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	w := get(r, "/swagger/doc.json", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func TestCompressionMultipleWrites(t *testing.T) {
	r, _ := newCompressionEngine(DefaultCompressionConfig())

	// Both chunks must land in one gzip stream that decodes to the
	// full concatenated body
	w := get(r, "/chunked", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(gunzip(t, w), &resp))
	assert.Len(t, resp["part"], 2048)
	assert.Len(t, resp["tail"], 2048)
}

func TestCompressionStats(t *testing.T) {
	r, cm := newCompressionEngine(DefaultCompressionConfig())

	get(r, "/large", true)
	get(r, "/small", true)
	get(r, "/large", false)

	stats := cm.GetStats()
	assert.Equal(t, int64(3), stats["total_requests"])
	assert.Equal(t, int64(1), stats["compressed_requests"])

	bytesIn := stats["bytes_in"].(int64)
	bytesOut := stats["bytes_out"].(int64)
	assert.Greater(t, bytesIn, int64(0))
	assert.Greater(t, bytesOut, int64(0))

	// Repetitive JSON compresses well below its raw size
	ratio := stats["compression_ratio"].(float64)
	assert.Less(t, ratio, 0.5)
	assert.Greater(t, ratio, 0.0)
}

func TestCompressionInvalidLevelFallsBack(t *testing.T) {
	cfg := DefaultCompressionConfig()
	cfg.Level = 42

	r, _ := newCompressionEngine(cfg)

	w := get(r, "/large", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(gunzip(t, w), &resp))
}
