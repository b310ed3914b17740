package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig controls response compression
type CompressionConfig struct {
	Level            int      // gzip level, 1 fastest to 9 smallest
	MinSize          int      // responses smaller than this stay uncompressed
	ExcludedPrefixes []string // path prefixes that are never compressed
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level:   gzip.DefaultCompression,
		MinSize: 1024,
		ExcludedPrefixes: []string{
			"/swagger",
			"/debug/pprof",
		},
	}
}

// CompressionMiddleware gzips JSON responses for clients that accept it.
// Writers are pooled, and compression starts lazily on the first body
// write so small responses go out unchanged.
type CompressionMiddleware struct {
	config CompressionConfig
	pool   sync.Pool

	requests   atomic.Int64
	compressed atomic.Int64
	bytesIn    atomic.Int64
	bytesOut   atomic.Int64
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.Level
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	config.Level = level

	cm := &CompressionMiddleware{config: config}
	cm.pool = sync.Pool{
		New: func() interface{} {
			gz, _ := gzip.NewWriterLevel(io.Discard, level)
			return gz
		},
	}
	return cm
}

// Handler returns the Gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cm.requests.Add(1)

		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || cm.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}

		gw := &gzipResponseWriter{ResponseWriter: c.Writer, cm: cm}
		c.Writer = gw
		c.Next()
		gw.close()
	}
}

func (cm *CompressionMiddleware) excluded(path string) bool {
	for _, prefix := range cm.config.ExcludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// GetStats returns compression counters and the achieved ratio
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	in := cm.bytesIn.Load()
	out := cm.bytesOut.Load()

	ratio := 0.0
	if in > 0 {
		ratio = float64(out) / float64(in)
	}

	return map[string]interface{}{
		"total_requests":      cm.requests.Load(),
		"compressed_requests": cm.compressed.Load(),
		"bytes_in":            in,
		"bytes_out":           out,
		"compression_ratio":   ratio,
	}
}

// gzipResponseWriter defers the compress-or-not decision to the first
// write, when the content type and body size are known.
type gzipResponseWriter struct {
	gin.ResponseWriter
	cm          *CompressionMiddleware
	gz          *gzip.Writer
	counter     *countingWriter
	decided     bool
	passthrough bool
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	if !w.decided {
		w.decide(len(data))
	}
	if w.passthrough {
		return w.ResponseWriter.Write(data)
	}
	w.cm.bytesIn.Add(int64(len(data)))
	return w.gz.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipResponseWriter) decide(firstChunk int) {
	w.decided = true
	if firstChunk < w.cm.config.MinSize || !compressible(w.Header().Get("Content-Type")) {
		w.passthrough = true
		return
	}

	// Headers must be final before the first compressed byte reaches
	// the underlying writer and flushes them.
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")

	w.cm.compressed.Add(1)
	w.counter = &countingWriter{w: w.ResponseWriter}
	w.gz = w.cm.pool.Get().(*gzip.Writer)
	w.gz.Reset(w.counter)
}

func (w *gzipResponseWriter) close() {
	if w.gz == nil {
		return
	}
	w.gz.Close()
	w.cm.bytesOut.Add(w.counter.n)
	w.cm.pool.Put(w.gz)
	w.gz = nil
}

func compressible(contentType string) bool {
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/xml") ||
		strings.HasPrefix(contentType, "text/")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
