package monitoring

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new enhanced logger
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Add timestamp in RFC3339 format
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs trust score calculations
func (l *Logger) ScoringLogger(applicantID string, behavioral, social, digital, overall float64, degraded bool) {
	l.Info("Trust Score Calculated",
		"applicant_id", applicantID,
		"behavioral_score", behavioral,
		"social_score", social,
		"digital_score", digital,
		"overall_trust_score", overall,
		"degraded", degraded,
	)
}

// PredictionLogger logs risk prediction details
func (l *Logger) PredictionLogger(applicantID, riskCategory, modelVersion string, score, confidence float64, duration time.Duration) {
	l.Info("Risk Prediction Completed",
		"applicant_id", applicantID,
		"risk_category", riskCategory,
		"model_version", modelVersion,
		"ensemble_score", score,
		"prediction_confidence", confidence,
		"duration_ms", duration.Milliseconds(),
	)
}

// TrainingLogger logs model training runs
func (l *Logger) TrainingLogger(modelVersion string, samples int, synthetic bool, accuracy, auc float64, duration time.Duration) {
	l.Info("Model Training Completed",
		"model_version", modelVersion,
		"samples", samples,
		"synthetic", synthetic,
		"ensemble_accuracy", accuracy,
		"ensemble_auc", auc,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExplanationLogger logs attribution runs, including degraded fallback paths
func (l *Logger) ExplanationLogger(applicantID string, baseValue, finalScore float64, fallback bool, duration time.Duration) {
	level := slog.LevelInfo
	msg := "Explanation Generated"
	if fallback {
		level = slog.LevelWarn
		msg = "Fallback Explanation Generated"
	}

	l.Log(nil, level, msg,
		"applicant_id", applicantID,
		"base_value", baseValue,
		"final_score", finalScore,
		"fallback", fallback,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	keyHash := key
	if len(keyHash) > 8 {
		keyHash = keyHash[:8] + "..."
	}

	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", keyHash,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// DatabaseLogger logs storage operations that needed retries or failed
func (l *Logger) DatabaseLogger(operation string, attempts int, err error) {
	if err != nil {
		l.Error("Database Operation Failed",
			"operation", operation,
			"attempts", attempts,
			"error", err.Error(),
		)
		return
	}

	l.Warn("Database Operation Retried",
		"operation", operation,
		"attempts", attempts,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
		"timestamp", time.Now().Format(time.RFC3339),
	}

	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
		"timestamp", time.Now().Format(time.RFC3339),
	)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	l.Logger = slog.New(handler)
}

var startTime = time.Now()
