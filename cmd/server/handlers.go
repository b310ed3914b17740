package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/cache"
	"github.com/zcredlabs/zscore/internal/database"
	"github.com/zcredlabs/zscore/internal/encoding"
	apperrors "github.com/zcredlabs/zscore/internal/errors"
	"github.com/zcredlabs/zscore/internal/explain"
	"github.com/zcredlabs/zscore/internal/features"
	"github.com/zcredlabs/zscore/internal/leaderboard"
	"github.com/zcredlabs/zscore/internal/middleware"
	"github.com/zcredlabs/zscore/internal/model"
	"github.com/zcredlabs/zscore/internal/monitoring"
	"github.com/zcredlabs/zscore/internal/privacy"
	"github.com/zcredlabs/zscore/internal/trust"
)

// server bundles the shared dependencies behind the HTTP handlers.
// Handlers are constructed once at startup and capture what they need.
type server struct {
	db          *database.DB
	repo        *database.Repository
	clients     *database.ClientService
	privacy     *privacy.PrivacyService
	classifier  *model.Classifier
	leaderboard *leaderboard.Service
	explCache   *explain.Cache
	respCache   *cache.Cache
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	encoder     *encoding.OptimizedJSONEncoder
	compression *middleware.CompressionMiddleware
	modelDir    string
	version     string
}

// respondError converts any error into the canonical API error envelope
func respondError(c *gin.Context, err error) {
	appErr := apperrors.ToAppError(err)
	apperrors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

// applicantRecord fetches the validated record placed by the payload middleware
func applicantRecord(c *gin.Context) *applicant.Record {
	if v, ok := c.Get("applicant_record"); ok {
		if rec, ok := v.(*applicant.Record); ok {
			return rec
		}
	}
	return nil
}

// handleTrustScore godoc
// @Summary Compute trust score components
// @Description Computes the behavioral, social and digital trust components and the weighted overall score for an applicant record. When the payload carries a stored applicant id the scores are persisted together with a history entry.
// @Tags scoring
// @Accept json
// @Produce json
// @Param applicant body applicant.Record true "Applicant record"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Failure 429 {object} map[string]interface{}
// @Router /api/v1/trust-score [post]
func (s *server) handleTrustScore() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := applicantRecord(c)
		if rec == nil {
			respondError(c, apperrors.NewInternalError("applicant payload missing from request context", nil))
			return
		}

		result := trust.Calculate(rec)
		s.logger.ScoringLogger(rec.ID, result.BehavioralScore, result.SocialScore,
			result.DigitalScore, result.OverallTrustScore, len(result.Warnings) > 0)

		resp := gin.H{
			"scores": result,
			"level":  trust.DescribeLevel(result.TrustPercentage),
		}

		if rec.ID != "" {
			if err := s.repo.UpdateTrustScores(rec.ID, result.BehavioralScore, result.SocialScore,
				result.DigitalScore, result.OverallTrustScore, result.TrustPercentage); err != nil {
				respondError(c, err)
				return
			}
			resp["applicant_id"] = rec.ID
			resp["persisted"] = true
		}

		c.JSON(http.StatusOK, resp)
	}
}

// handlePredict godoc
// @Summary Predict credit risk
// @Description Runs the dual-model risk classifier over an applicant record and returns the risk category, probabilities and confidence intervals. Stored applicants with active processing consent get an audit row.
// @Tags scoring
// @Accept json
// @Produce json
// @Param applicant body applicant.Record true "Applicant record"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} errors.AppError
// @Router /api/v1/predict [post]
func (s *server) handlePredict() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := applicantRecord(c)
		if rec == nil {
			respondError(c, apperrors.NewInternalError("applicant payload missing from request context", nil))
			return
		}

		result, err := s.classifier.Predict(rec)
		if err != nil {
			respondError(c, err)
			return
		}
		s.metrics.IncrementPrediction()
		s.metrics.RecordPredictionCategory(result.RiskCategory)

		if rec.ID != "" {
			go s.auditPrediction(rec, result, nil)
		}

		resp := gin.H{"prediction": result}
		if clientID, ok := c.Get("client_id"); ok {
			if stats, err := s.clients.GetClientStats(clientID.(string)); err == nil {
				resp["client_stats"] = stats
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// handleExplain godoc
// @Summary Explain a risk prediction
// @Description Returns the additive feature attribution for an applicant record, with a plain-language narrative and waterfall chart data. Attributions are cached per model version and feature vector.
// @Tags scoring
// @Accept json
// @Produce json
// @Param applicant body applicant.Record true "Applicant record"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} errors.AppError
// @Router /api/v1/explain [post]
func (s *server) handleExplain() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := applicantRecord(c)
		if rec == nil {
			respondError(c, apperrors.NewInternalError("applicant payload missing from request context", nil))
			return
		}

		// Attributions are deterministic per model version and vector,
		// so cache lookups happen before the explainer runs.
		key := ""
		if snap := s.classifier.Snapshot(); snap != nil {
			if vec, err := features.Vectorize(rec); err == nil {
				key = s.explCache.Key(snap.Version, vec)
				if cached := s.explCache.Get(key); cached != nil {
					s.metrics.IncrementCacheHit()
					c.JSON(http.StatusOK, explanationResponse(cached, true))
					return
				}
				s.metrics.IncrementCacheMiss()
			}
		}

		expl, err := s.classifier.Explain(rec)
		if err != nil {
			respondError(c, err)
			return
		}
		s.metrics.IncrementExplanation()
		if expl.Error != "" {
			s.metrics.IncrementFallback()
		} else if key != "" {
			s.explCache.Put(key, expl)
		}

		if rec.ID != "" && expl.Error == "" {
			go s.auditExplanation(rec, expl)
		}

		c.JSON(http.StatusOK, explanationResponse(expl, false))
	}
}

// explanationResponse decorates an attribution with its derived views.
// Degraded explanations skip the narrative, the fallback carries the story.
func explanationResponse(expl *explain.Explanation, cached bool) gin.H {
	resp := gin.H{
		"explanation": expl,
		"cached":      cached,
	}
	if expl.Error == "" {
		resp["narrative"] = explain.Summarize(expl)
		resp["waterfall"] = explain.Waterfall(expl)
	}
	return resp
}

type trainRequest struct {
	Samples int   `json:"samples"`
	Seed    int64 `json:"seed"`
}

// handleTrain godoc
// @Summary Retrain the risk models
// @Description Retrains the linear and ensemble models, optionally on a synthetic cohort of the requested size and seed. The cached model info response is invalidated.
// @Tags model
// @Accept json
// @Produce json
// @Param options body trainRequest false "Training options"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} errors.AppError
// @Router /api/v1/train [post]
func (s *server) handleTrain() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trainRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, apperrors.NewValidationError("invalid JSON format", err.Error()))
				return
			}
		}
		if req.Samples < 0 || req.Samples > 100000 {
			respondError(c, apperrors.NewValidationError("samples must be between 0 and 100000 (0 uses the configured default)"))
			return
		}

		// Explicit options synthesize a fresh cohort; an empty body
		// retrains with the configured defaults. Omitted fields fall
		// back to the classifier's configuration.
		var X []features.Vector
		var y []int
		if req.Samples > 0 || req.Seed != 0 {
			cfg := s.classifier.Config()
			samples := req.Samples
			if samples == 0 {
				samples = cfg.SyntheticSamples
			}
			seed := req.Seed
			if seed == 0 {
				seed = cfg.Seed
			}
			X, y = model.Synthesize(samples, seed)
		}

		snap, err := s.classifier.Train(X, y)
		if err != nil {
			respondError(c, err)
			return
		}
		s.metrics.IncrementTraining()

		if s.modelDir != "" {
			if err := s.classifier.Save(s.modelDir); err != nil {
				slog.Error("Failed to persist model snapshot", "error", err, "dir", s.modelDir)
			}
		}

		// Cached /api/v1/model responses describe the old version
		s.respCache.Clear()

		c.JSON(http.StatusOK, gin.H{
			"message": "model trained",
			"model":   snap.Info(),
		})
	}
}

// handleModelInfo godoc
// @Summary Current model information
// @Description Reports the active model version, training provenance, evaluation metrics and confidence intervals.
// @Tags model
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/model [get]
func (s *server) handleModelInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.classifier.Snapshot()
		if snap == nil {
			c.JSON(http.StatusOK, gin.H{"trained": false})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"trained": true,
			"model":   snap.Info(),
		})
	}
}

// handleCreateApplicant godoc
// @Summary Register an applicant
// @Description Stores a validated applicant record. Phone numbers are unique across applicants.
// @Tags applicants
// @Accept json
// @Produce json
// @Param applicant body applicant.Record true "Applicant record"
// @Success 201 {object} database.Applicant
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /api/v1/applicants [post]
func (s *server) handleCreateApplicant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := applicantRecord(c)
		if rec == nil {
			respondError(c, apperrors.NewInternalError("applicant payload missing from request context", nil))
			return
		}

		if rec.Phone != "" {
			if _, err := s.repo.GetApplicantByPhone(rec.Phone); err == nil {
				respondError(c, apperrors.NewConflictError("applicant", "phone"))
				return
			}
		}

		appl, err := s.repo.CreateApplicant(rec)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				respondError(c, apperrors.NewConflictError("applicant", "phone"))
				return
			}
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, appl)
	}
}

// handleGetApplicant godoc
// @Summary Fetch an applicant
// @Tags applicants
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} database.Applicant
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id} [get]
func (s *server) handleGetApplicant() gin.HandlerFunc {
	return func(c *gin.Context) {
		appl, err := s.repo.GetApplicant(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, appl)
	}
}

// handleUpdateApplicant godoc
// @Summary Update an applicant
// @Description Replaces the identity fields and alternative-data payloads of a stored applicant. Scoring-owned columns are untouched.
// @Tags applicants
// @Accept json
// @Produce json
// @Param id path string true "Applicant ID"
// @Param applicant body applicant.Record true "Applicant record"
// @Success 200 {object} database.Applicant
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id} [put]
func (s *server) handleUpdateApplicant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := applicantRecord(c)
		if rec == nil {
			respondError(c, apperrors.NewInternalError("applicant payload missing from request context", nil))
			return
		}

		appl, err := s.repo.UpdateApplicant(c.Param("id"), rec)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, appl)
	}
}

// handleListApplicants godoc
// @Summary List applicants
// @Tags applicants
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/applicants [get]
func (s *server) handleListApplicants() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 20, 100)
		offset := queryInt(c, "offset", 0, 1<<30)

		applicants, err := s.repo.ListApplicants(limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicants": applicants,
			"count":      len(applicants),
			"limit":      limit,
			"offset":     offset,
		})
	}
}

// handleTrustLevel godoc
// @Summary Trust level for a stored applicant
// @Description Maps the applicant's persisted overall trust score onto the five-level progression ladder, including credit eligibility and the next milestone.
// @Tags applicants
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id}/trust-level [get]
func (s *server) handleTrustLevel() gin.HandlerFunc {
	return func(c *gin.Context) {
		appl, err := s.repo.GetApplicant(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicant_id": appl.ID,
			"trust_level":  trust.DescribeLevel(appl.OverallTrustScore * 100),
		})
	}
}

// handleTrustHistory godoc
// @Summary Trust score history
// @Tags applicants
// @Produce json
// @Param id path string true "Applicant ID"
// @Param limit query int false "Max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id}/history [get]
func (s *server) handleTrustHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := s.repo.GetApplicant(id); err != nil {
			respondError(c, err)
			return
		}

		entries, err := s.repo.GetTrustHistory(id, queryInt(c, "limit", 20, 100))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicant_id": id,
			"history":      entries,
			"count":        len(entries),
		})
	}
}

// handlePredictionHistory godoc
// @Summary Prediction audit history
// @Tags applicants
// @Produce json
// @Param id path string true "Applicant ID"
// @Param limit query int false "Max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id}/predictions [get]
func (s *server) handlePredictionHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := s.repo.GetApplicant(id); err != nil {
			respondError(c, err)
			return
		}

		predictions, err := s.repo.GetPredictions(id, queryInt(c, "limit", 20, 100))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicant_id": id,
			"predictions":  predictions,
			"count":        len(predictions),
		})
	}
}

// handleLeaderboard godoc
// @Summary Anonymized trust leaderboard
// @Description Returns the period ranking of applicants by best trust percentage. Entries carry hashed references and derived display handles only, never identity fields, and cover only applicants with an active data processing consent.
// @Tags leaderboard
// @Produce json
// @Param period query string false "daily, weekly, monthly or all_time (default weekly)"
// @Param limit query int false "Max entries (default 50, cap 100)"
// @Success 200 {object} leaderboard.Standings
// @Failure 400 {object} errors.AppError
// @Router /api/v1/leaderboard [get]
func (s *server) handleLeaderboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := c.DefaultQuery("period", "weekly")

		standings, err := s.leaderboard.Standings(period, queryInt(c, "limit", 50, 100))
		if err != nil {
			if errors.Is(err, leaderboard.ErrUnknownPeriod) {
				respondError(c, apperrors.NewValidationError("unknown leaderboard period", period))
				return
			}
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, standings)
	}
}

// handleApplicantRank godoc
// @Summary Applicant's leaderboard standing
// @Description Looks up the stored applicant's rank entry for a period. Responds 404 when the applicant is unknown or not ranked in the period.
// @Tags leaderboard
// @Produce json
// @Param id path string true "Applicant ID"
// @Param period query string false "daily, weekly, monthly or all_time (default weekly)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /api/v1/applicants/{id}/rank [get]
func (s *server) handleApplicantRank() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := s.repo.GetApplicant(id); err != nil {
			respondError(c, err)
			return
		}

		period := c.DefaultQuery("period", "weekly")
		entry, err := s.leaderboard.ApplicantRank(id, period)
		if err != nil {
			if errors.Is(err, leaderboard.ErrUnknownPeriod) {
				respondError(c, apperrors.NewValidationError("unknown leaderboard period", period))
				return
			}
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicant_id": id,
			"entry":        entry,
		})
	}
}

// handleLeaderboardRebuild godoc
// @Summary Rebuild the trust leaderboards
// @Description Recomputes every period ranking from the trust score history and drops the standings cache.
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/leaderboard/rebuild [post]
func (s *server) handleLeaderboardRebuild() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		written, err := s.leaderboard.Rebuild()
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     "leaderboards rebuilt",
			"entries":     written,
			"duration_ms": time.Since(started).Milliseconds(),
		})
	}
}

type consentRequest struct {
	ApplicantID string                 `json:"applicant_id" binding:"required"`
	ConsentType string                 `json:"consent_type" binding:"required"`
	Purpose     string                 `json:"purpose"`
	Granted     *bool                  `json:"granted" binding:"required"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// handleRecordConsent godoc
// @Summary Record a consent event
// @Description Records a DPDPA consent grant or refusal for an applicant.
// @Tags privacy
// @Accept json
// @Produce json
// @Param consent body consentRequest true "Consent event"
// @Success 201 {object} database.ConsentLog
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /api/v1/consent [post]
func (s *server) handleRecordConsent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req consentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid consent payload", err.Error()))
			return
		}
		if !s.privacy.IsKnownConsentType(req.ConsentType) {
			respondError(c, apperrors.NewValidationError("unknown consent type", req.ConsentType))
			return
		}

		log, err := s.privacy.RecordConsent(req.ApplicantID, req.ConsentType, req.Purpose, *req.Granted, req.Metadata)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, log)
	}
}

type withdrawRequest struct {
	ApplicantID string `json:"applicant_id" binding:"required"`
	ConsentType string `json:"consent_type" binding:"required"`
}

// handleWithdrawConsent godoc
// @Summary Withdraw a consent
// @Description Marks every active consent of the given type as withdrawn.
// @Tags privacy
// @Accept json
// @Produce json
// @Param withdrawal body withdrawRequest true "Consent withdrawal"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Router /api/v1/consent/withdraw [post]
func (s *server) handleWithdrawConsent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req withdrawRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid withdrawal payload", err.Error()))
			return
		}
		if !s.privacy.IsKnownConsentType(req.ConsentType) {
			respondError(c, apperrors.NewValidationError("unknown consent type", req.ConsentType))
			return
		}

		withdrawn, err := s.privacy.WithdrawConsent(req.ApplicantID, req.ConsentType)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"applicant_id": req.ApplicantID,
			"consent_type": req.ConsentType,
			"withdrawn":    withdrawn,
		})
	}
}

// handleConsentSummary godoc
// @Summary Consent summary for an applicant
// @Tags privacy
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/consent/{id} [get]
func (s *server) handleConsentSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := s.privacy.ConsentSummary(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// handlePrivacyPolicy godoc
// @Summary Data handling policy
// @Description Returns the machine-readable privacy posture: retention windows, consent types and applicant rights.
// @Tags privacy
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/privacy/policy [get]
func (s *server) handlePrivacyPolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.privacy.PolicyDocument())
	}
}

// handleEraseApplicant godoc
// @Summary Erase all applicant data
// @Description DPDPA right-to-erasure: deletes the applicant row, predictions, trust history and consent logs, and reports per-table counts.
// @Tags privacy
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.AppError
// @Router /api/v1/privacy/delete/{id} [post]
func (s *server) handleEraseApplicant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		counts, err := s.privacy.EraseApplicantData(id)
		if err != nil {
			respondError(c, err)
			return
		}

		// Cached GET responses may still reference the erased applicant
		s.respCache.Clear()

		// Re-rank so the erased applicant's anonymized entries drop out too
		if _, err := s.leaderboard.Rebuild(); err != nil {
			slog.Error("Leaderboard rebuild after erasure failed", "applicant_id", id, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "applicant data erased",
			"applicant_id": id,
			"deleted":      counts,
		})
	}
}

// handleCreateSession godoc
// @Summary Create a client session token
// @Description Resolves the calling client by IP and user agent and issues a 24 hour JWT for quota tracking across networks.
// @Tags clients
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} errors.AppError
// @Router /auth/session [post]
func (s *server) handleCreateSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := s.repo.GetOrCreateClient(c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := s.clients.GenerateSessionToken(client.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"token_type": "Bearer",
			"client_id":  client.ID,
			"expires_in": 86400,
		})
	}
}

// handleClientStats godoc
// @Summary Weekly quota usage for the calling client
// @Description Reports scoring requests used and remaining this week. Clients are identified by a Bearer session token when present, otherwise by IP and user agent.
// @Tags clients
// @Produce json
// @Success 200 {object} database.ClientStats
// @Failure 401 {object} errors.AppError
// @Router /client/stats [get]
func (s *server) handleClientStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		var clientID string

		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			id, err := s.clients.ValidateSessionToken(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				respondError(c, apperrors.NewUnauthorizedError("invalid session token"))
				return
			}
			clientID = id
		} else {
			client, err := s.repo.GetOrCreateClient(c.ClientIP(), c.Request.UserAgent())
			if err != nil {
				respondError(c, err)
				return
			}
			clientID = client.ID
		}

		stats, err := s.clients.GetClientStats(clientID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// handleHealth godoc
// @Summary Service health
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"timestamp":     time.Now().Format(time.RFC3339),
			"version":       s.version,
			"model_trained": s.classifier.IsTrained(),
			"database":      s.db.GetPoolStats(),
		})
	}
}

// handleMetrics godoc
// @Summary Runtime metrics
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (s *server) handleMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetStats())
	}
}

// handleCacheStats godoc
// @Summary Cache statistics
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/stats [get]
func (s *server) handleCacheStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"response_cache":    s.respCache.Stats(),
			"explanation_cache": s.explCache.Stats(),
			"leaderboard_cache": s.leaderboard.CacheStats(),
		})
	}
}

func (s *server) handleDatabasePoolStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.GetPoolStats())
	}
}

func (s *server) handleCompressionStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.compression.GetStats())
	}
}

func (s *server) handleJSONPoolStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.encoder.GetStats())
	}
}

// auditPrediction persists the audit row for a stored applicant. Rows
// are only written with an active processing consent.
func (s *server) auditPrediction(rec *applicant.Record, result *model.RiskResult, expl *explain.Explanation) {
	granted, err := s.privacy.HasProcessingConsent(rec.ID)
	if err != nil {
		slog.Error("Consent lookup failed, skipping prediction audit", "applicant_id", rec.ID, "error", err)
		return
	}
	if !granted {
		slog.Info("Skipping prediction audit, no processing consent", "applicant_id", rec.ID)
		return
	}

	p := database.NewPrediction(rec.ID, result.ModelVersion)
	p.Score = result.ConfidenceScore
	p.RiskProbability = result.RiskProbability
	p.RiskCategory = result.RiskCategory

	if vec, err := features.Vectorize(rec); err == nil {
		values := vec.Slice()
		m := make(map[string]float64, len(values))
		for i, v := range values {
			m[features.Name(i)] = v
		}
		if data, err := s.encoder.Marshal(m); err == nil {
			p.InputFeatures = string(data)
		}
	}

	if expl != nil && expl.Error == "" {
		if data, err := s.encoder.Marshal(expl); err == nil {
			p.Explanation = string(data)
		}
	}

	if err := s.repo.SavePrediction(p); err != nil {
		slog.Error("Failed to persist prediction audit", "applicant_id", rec.ID, "error", err)
	}
}

// auditExplanation scores the record once more so the audit row carries
// both the decision and the attribution that justified it.
func (s *server) auditExplanation(rec *applicant.Record, expl *explain.Explanation) {
	result, err := s.classifier.Predict(rec)
	if err != nil {
		slog.Error("Prediction for explanation audit failed", "applicant_id", rec.ID, "error", err)
		return
	}
	s.auditPrediction(rec, result, expl)
}

// queryInt parses a bounded positive integer query parameter
func queryInt(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > max {
		return def
	}
	return v
}
