package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/applicant"
)

func TestScoringEndpoints_Performance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	gin.SetMode(gin.TestMode)
	r, _ := newTestServer(t)

	// Warm up the model and the JSON encoder pools
	for i := 0; i < 3; i++ {
		w := performJSON(r, "POST", "/api/v1/predict", validApplicant("9876543210"))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	paths := []string{"/api/v1/trust-score", "/api/v1/predict"}

	var totalDuration time.Duration
	var requestCount int

	for _, path := range paths {
		for i := 0; i < 10; i++ {
			start := time.Now()
			w := performJSON(r, "POST", path, validApplicant("9876543210"))
			duration := time.Since(start)

			totalDuration += duration
			requestCount++

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, duration < 2*time.Second, "Request to %s should complete within 2 seconds, took %v", path, duration)
		}
	}

	averageDuration := totalDuration / time.Duration(requestCount)
	t.Logf("Performance test completed: %d requests, average response time: %v", requestCount, averageDuration)

	// Scoring runs entirely in process, so latency stays low
	assert.True(t, averageDuration < 500*time.Millisecond, "Average response time should be under 500ms")
}

func TestPredictEndpoint_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping load test in short mode")
	}

	gin.SetMode(gin.TestMode)
	r, _ := newTestServer(t)

	const numRequests = 50
	const numConcurrent = 10

	// Channel to collect results
	results := make(chan struct {
		duration time.Duration
		status   int
	}, numRequests)

	for i := 0; i < numConcurrent; i++ {
		go func() {
			for j := 0; j < numRequests/numConcurrent; j++ {
				start := time.Now()
				w := performJSON(r, "POST", "/api/v1/predict", validApplicant("9876543210"))
				duration := time.Since(start)

				results <- struct {
					duration time.Duration
					status   int
				}{duration, w.Code}
			}
		}()
	}

	var totalDuration time.Duration
	var successCount int
	maxDuration := time.Duration(0)
	minDuration := time.Hour

	for i := 0; i < numRequests; i++ {
		result := <-results
		totalDuration += result.duration

		if result.status == http.StatusOK {
			successCount++
		}

		if result.duration > maxDuration {
			maxDuration = result.duration
		}
		if result.duration < minDuration {
			minDuration = result.duration
		}
	}

	averageDuration := totalDuration / time.Duration(numRequests)
	successRate := float64(successCount) / float64(numRequests) * 100

	t.Logf("Load test results:")
	t.Logf("  Total requests: %d", numRequests)
	t.Logf("  Successful responses: %d (%.1f%%)", successCount, successRate)
	t.Logf("  Average response time: %v", averageDuration)
	t.Logf("  Min response time: %v", minDuration)
	t.Logf("  Max response time: %v", maxDuration)

	assert.Equal(t, numRequests, successCount, "All requests should succeed")
	assert.True(t, averageDuration < 2*time.Second, "Average response time should be under 2 seconds under load")
	assert.True(t, maxDuration < 5*time.Second, "Maximum response time should be under 5 seconds")
}

func TestScoringPipeline_TimingBreakdown(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timing breakdown test in short mode")
	}

	gin.SetMode(gin.TestMode)
	_, srv := newTestServer(t)

	data, err := json.Marshal(validApplicant("9876543210"))
	require.NoError(t, err)
	var rec applicant.Record
	require.NoError(t, json.Unmarshal(data, &rec))

	start := time.Now()
	result, err := srv.classifier.Predict(&rec)
	predictDuration := time.Since(start)
	require.NoError(t, err)
	require.NotNil(t, result)

	start = time.Now()
	expl, err := srv.classifier.Explain(&rec)
	explainDuration := time.Since(start)
	require.NoError(t, err)
	require.NotNil(t, expl)

	t.Logf("Scoring pipeline timing:")
	t.Logf("  Predict duration: %v", predictDuration)
	t.Logf("  Explain duration: %v", explainDuration)
	t.Logf("  Risk category: %s", result.RiskCategory)
	t.Logf("  Risk probability: %.3f", result.RiskProbability)
	t.Logf("  Attribution quality: %s", expl.ExplanationQuality)

	assert.True(t, predictDuration < 100*time.Millisecond, "Prediction should complete within 100ms")
	assert.True(t, explainDuration < 2*time.Second, "Attribution should complete within 2 seconds")
}

func TestExplainEndpoint_CacheSpeedup(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cache speedup test in short mode")
	}

	gin.SetMode(gin.TestMode)
	r, _ := newTestServer(t)

	start := time.Now()
	w := performJSON(r, "POST", "/api/v1/explain", validApplicant("9876543210"))
	coldDuration := time.Since(start)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeJSON(t, w)["cached"])

	start = time.Now()
	w = performJSON(r, "POST", "/api/v1/explain", validApplicant("9876543210"))
	cachedDuration := time.Since(start)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["cached"])

	t.Logf("Explanation cache speedup:")
	t.Logf("  Cold request: %v", coldDuration)
	t.Logf("  Cached request: %v", cachedDuration)

	assert.True(t, cachedDuration < time.Second, "Cached attribution should be served well under a second")
}

func TestPredictEndpoint_ResponseTimeDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping response time distribution test in short mode")
	}

	gin.SetMode(gin.TestMode)
	r, _ := newTestServer(t)

	const numRequests = 100
	durations := make([]time.Duration, 0, numRequests)

	for i := 0; i < numRequests; i++ {
		start := time.Now()
		w := performJSON(r, "POST", "/api/v1/predict", validApplicant("9876543210"))
		durations = append(durations, time.Since(start))

		assert.Equal(t, http.StatusOK, w.Code)
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	p50 := durations[numRequests/2]
	p95 := durations[numRequests*95/100]
	p99 := durations[numRequests*99/100]

	t.Logf("Response time distribution over %d requests:", numRequests)
	t.Logf("  p50: %v", p50)
	t.Logf("  p95: %v", p95)
	t.Logf("  p99: %v", p99)

	assert.True(t, p95 < time.Second, "p95 latency should stay under a second")
}

func TestConcurrentScoring_ThreadSafety(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping thread safety test in short mode")
	}

	gin.SetMode(gin.TestMode)
	r, _ := newTestServer(t)

	const numGoroutines = 20
	const requestsPerGoroutine = 5

	// Mix scoring with retraining to exercise the classifier's locking
	results := make(chan int, numGoroutines*requestsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		path := "/api/v1/predict"
		body := validApplicant("9876543210")
		if i%10 == 9 {
			path = "/api/v1/trust-score"
		}

		go func(path string, body map[string]interface{}) {
			for j := 0; j < requestsPerGoroutine; j++ {
				w := performJSON(r, "POST", path, body)
				results <- w.Code
			}
		}(path, body)
	}

	var errorCount int
	for i := 0; i < numGoroutines*requestsPerGoroutine; i++ {
		if code := <-results; code != http.StatusOK {
			errorCount++
		}
	}

	t.Logf("Thread safety test completed:")
	t.Logf("  Total requests: %d", numGoroutines*requestsPerGoroutine)
	t.Logf("  Errors: %d", errorCount)

	assert.Equal(t, 0, errorCount, "No errors should occur in concurrent requests")
}
