package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/database"
	apperrors "github.com/zcredlabs/zscore/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxFieldLength int           `json:"max_field_length"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxFieldLength: 200,
		EnableCORS:     true,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies: []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware provides input validation and quota middleware
type SecurityMiddleware struct {
	config        SecurityConfig
	clientService *database.ClientService
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{
		config: config,
	}
}

// SetClientService sets the client service for quota enforcement
func (sm *SecurityMiddleware) SetClientService(clientService *database.ClientService) {
	sm.clientService = clientService
}

// scoringPaths are the endpoints that consume the weekly scoring quota
var scoringPaths = map[string]bool{
	"/api/v1/predict":     true,
	"/api/v1/trust-score": true,
	"/api/v1/explain":     true,
}

// ValidateInput performs input validation on free-text fields
func (sm *SecurityMiddleware) ValidateInput(input string) error {
	// Check length limits
	if len(input) > sm.config.MaxFieldLength {
		return fmt.Errorf("input exceeds maximum length of %d characters", sm.config.MaxFieldLength)
	}

	// Check for null bytes (potential injection attempt)
	if strings.Contains(input, "\x00") {
		return fmt.Errorf("input contains invalid characters")
	}

	// Validate UTF-8 encoding
	if !utf8.ValidString(input) {
		return fmt.Errorf("input contains invalid UTF-8 encoding")
	}

	// Check for suspicious patterns (basic XSS/SQL injection detection)
	suspiciousPatterns := []string{
		`<script`, `</script>`, `javascript:`,
		`union select`, `drop table`, `alter table`,
		`--`, `/*`, `*/`, `xp_`, `sp_`,
	}

	inputLower := strings.ToLower(input)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(inputLower, pattern) {
			return fmt.Errorf("input contains suspicious patterns")
		}
	}

	return nil
}

// SanitizeInput sanitizes user input by removing potentially dangerous content
func (sm *SecurityMiddleware) SanitizeInput(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove script tags and their content (more comprehensive)
	scriptPattern := regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	input = scriptPattern.ReplaceAllString(input, "")

	// Remove other HTML tags (but keep content between them)
	htmlTagPattern := regexp.MustCompile(`<[^>]+>`)
	input = htmlTagPattern.ReplaceAllString(input, "")

	// Remove excessive whitespace
	input = regexp.MustCompile(`\s+`).ReplaceAllString(input, " ")

	// Decode HTML entities (basic)
	htmlEntities := map[string]string{
		"&lt;":   "<",
		"&gt;":   ">",
		"&amp;":  "&",
		"&quot;": "\"",
		"&#x27;": "'",
		"&#39;":  "'",
	}

	for entity, char := range htmlEntities {
		input = strings.ReplaceAll(input, entity, char)
	}

	return input
}

// ClientQuota enforces the weekly scoring quota per client (IP + user agent)
func (sm *SecurityMiddleware) ClientQuota(c *gin.Context) {
	// Only scoring endpoints count against the quota
	if !scoringPaths[c.Request.URL.Path] {
		c.Next()
		return
	}

	// Skip if client service is not configured
	if sm.clientService == nil {
		c.Next()
		return
	}

	clientIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	// Process the request through client service
	result, err := sm.clientService.ProcessRequest(clientIP, userAgent, c.Request.URL.Path, c.Request.Method)
	if err != nil {
		// Log error but don't block - the IP rate limiter still applies
		slog.Error("Client quota check failed", "error", err, "ip", clientIP)
		c.Next()
		return
	}

	// Store client and usage info in context for handlers
	c.Set("client_id", result.Client.ID)
	c.Set("client_stats", result.Usage)
	c.Set("request_logged", result.RequestLogged)

	// Check if client can make request
	if !result.CanMakeRequest {
		remainingRequests, _ := sm.clientService.GetRemainingRequests(result.Client.ID)

		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":              "weekly scoring quota exceeded",
			"message":            fmt.Sprintf("You have used all %d scoring requests this week", sm.clientService.WeeklyQuota()),
			"remaining_requests": remainingRequests,
			"week_start":         result.Usage.WeekStart.Format("2006-01-02"),
			"week_end":           result.Usage.WeekEnd.Format("2006-01-02"),
		})
		c.Abort()
		return
	}

	c.Next()
}

// ValidateContentType validates request content type
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")

	// Allow JSON and form-encoded content
	allowedTypes := []string{
		"application/json",
		"application/x-www-form-urlencoded",
		"multipart/form-data",
	}

	if contentType != "" {
		found := false
		for _, allowed := range allowedTypes {
			if strings.Contains(strings.ToLower(contentType), allowed) {
				found = true
				break
			}
		}

		if !found {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type",
			})
			c.Abort()
			return
		}
	}

	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	// Create a timeout context
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	// Replace request context
	c.Request = c.Request.WithContext(ctx)

	// Set timeout header for client
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// ValidateApplicantPayload binds and validates an applicant record body.
// The sanitized record is stored in context under "applicant_record".
func (sm *SecurityMiddleware) ValidateApplicantPayload(c *gin.Context) {
	var rec applicant.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid JSON format",
		})
		c.Abort()
		return
	}

	// Sanitize free-text identity fields
	rec.Name = sm.SanitizeInput(rec.Name)
	rec.Gender = sm.SanitizeInput(rec.Gender)
	rec.Location = sm.SanitizeInput(rec.Location)
	rec.Occupation = sm.SanitizeInput(rec.Occupation)

	textFields := map[string]string{
		"name":       rec.Name,
		"gender":     rec.Gender,
		"location":   rec.Location,
		"occupation": rec.Occupation,
	}

	for field, value := range textFields {
		if value == "" {
			continue
		}
		if err := sm.ValidateInput(value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("%s validation failed: %v", field, err),
			})
			c.Abort()
			return
		}
	}

	// Domain validation (age, income, phone, email bounds)
	if err := rec.Validate(); err != nil {
		appErr := apperrors.ToAppError(err)
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		c.Abort()
		return
	}

	// Store validated record in context for handler
	c.Set("applicant_record", &rec)
	c.Next()
}
