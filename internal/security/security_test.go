package security

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/database"
)

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 200, config.MaxFieldLength)
	assert.True(t, config.EnableCORS)
	assert.Contains(t, config.AllowedOrigins, "http://localhost:3000")
	assert.Contains(t, config.AllowedOrigins, "http://localhost:5173")
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
}

func TestValidateInput(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	tests := []struct {
		name        string
		input       string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid name",
			input:       "Priya Sharma",
			expectError: false,
		},
		{
			name:        "valid occupation",
			input:       "street vendor",
			expectError: false,
		},
		{
			name:        "input too long",
			input:       strings.Repeat("a", 201),
			expectError: true,
			errorMsg:    "input exceeds maximum length",
		},
		{
			name:        "null bytes",
			input:       "test\x00input",
			expectError: true,
			errorMsg:    "input contains invalid characters",
		},
		{
			name:        "invalid UTF-8",
			input:       "test\xff\xfeinput",
			expectError: true,
			errorMsg:    "input contains invalid UTF-8 encoding",
		},
		{
			name:        "XSS attempt",
			input:       "<script>alert('xss')</script>",
			expectError: true,
			errorMsg:    "input contains suspicious patterns",
		},
		{
			name:        "SQL injection attempt",
			input:       "'; DROP TABLE applicants; --",
			expectError: true,
			errorMsg:    "input contains suspicious patterns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateInput(tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trim whitespace",
			input:    "  Priya Sharma  ",
			expected: "Priya Sharma",
		},
		{
			name:     "remove script tags",
			input:    "<script>alert('test')</script>Asha Devi",
			expected: "Asha Devi",
		},
		{
			name:     "strip HTML keep content",
			input:    "<b>Priya</b> Sharma",
			expected: "Priya Sharma",
		},
		{
			name:     "remove excessive whitespace",
			input:    "auto   rickshaw    driver",
			expected: "auto rickshaw driver",
		},
		{
			name:     "normal input unchanged",
			input:    "Asha Devi",
			expected: "Asha Devi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sm.SanitizeInput(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SecurityHeadersMiddleware())

	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	// Check security headers
	headers := w.Header()
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", headers.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.Contains(t, headers.Get("Content-Security-Policy"), "default-src 'none'")
}

func TestValidateContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.ValidateContentType)

	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tests := []struct {
		name           string
		contentType    string
		expectedStatus int
	}{
		{
			name:           "valid JSON",
			contentType:    "application/json",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "valid form data",
			contentType:    "application/x-www-form-urlencoded",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid content type",
			contentType:    "text/plain",
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "no content type",
			contentType:    "",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(`{"test": "data"}`))

			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequestTimeoutHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.RequestTimeout)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-Timeout"))
}

func TestValidateApplicantPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.POST("/applicants", sm.ValidateApplicantPayload, func(c *gin.Context) {
		rec := c.MustGet("applicant_record").(*applicant.Record)
		c.JSON(http.StatusOK, gin.H{"name": rec.Name})
	})

	tests := []struct {
		name           string
		requestBody    interface{}
		rawBody        string
		expectedStatus int
		expectedName   string
	}{
		{
			name: "valid record",
			requestBody: map[string]interface{}{
				"name":  "Priya Sharma",
				"phone": "9876543210",
				"age":   32,
			},
			expectedStatus: http.StatusOK,
			expectedName:   "Priya Sharma",
		},
		{
			name: "HTML stripped from name",
			requestBody: map[string]interface{}{
				"name": "<b>Priya</b> Sharma",
			},
			expectedStatus: http.StatusOK,
			expectedName:   "Priya Sharma",
		},
		{
			name: "suspicious occupation rejected",
			requestBody: map[string]interface{}{
				"name":       "Priya Sharma",
				"occupation": "javascript:alert(1)",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "age out of bounds",
			requestBody: map[string]interface{}{
				"name": "Priya Sharma",
				"age":  150,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid phone",
			requestBody: map[string]interface{}{
				"name":  "Priya Sharma",
				"phone": "12345",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			rawBody:        `{"name": `,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body bytes.Buffer

			if tt.requestBody != nil {
				jsonBody, _ := json.Marshal(tt.requestBody)
				body = *bytes.NewBuffer(jsonBody)
			} else {
				body = *bytes.NewBufferString(tt.rawBody)
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/applicants", &body)
			req.Header.Set("Content-Type", "application/json")

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.expectedName, response["name"])
			}
		})
	}
}

func newQuotaService(t *testing.T, weeklyQuota int) *database.ClientService {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	return database.NewClientService(repo, "test-secret", weeklyQuota)
}

func TestClientQuotaEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewSecurityMiddleware(DefaultSecurityConfig())
	sm.SetClientService(newQuotaService(t, 2))

	r := gin.New()
	r.Use(sm.ClientQuota)
	r.POST("/api/v1/predict", func(c *gin.Context) {
		logged := c.GetBool("request_logged")
		c.JSON(http.StatusOK, gin.H{"request_logged": logged})
	})

	// First two scoring requests pass and are logged
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/predict", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "quota-test")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Scoring request %d should pass", i+1)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["request_logged"])
	}

	// Third request exceeds the weekly quota
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/predict", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "quota-test")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "weekly scoring quota exceeded", response["error"])
	assert.Contains(t, response, "week_start")
	assert.Contains(t, response, "week_end")
	assert.Equal(t, float64(0), response["remaining_requests"])
}

func TestClientQuotaIgnoresNonScoringPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewSecurityMiddleware(DefaultSecurityConfig())
	sm.SetClientService(newQuotaService(t, 1))

	r := gin.New()
	r.Use(sm.ClientQuota)
	r.GET("/api/v1/model", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": "1.0.0"})
	})

	// Metadata reads never consume quota
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/model", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestClientQuotaSkipsWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.ClientQuota)
	r.POST("/api/v1/predict", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "scored"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/predict", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
