package model

import (
	"math"
	"sync"
	"time"

	"github.com/zcredlabs/zscore/internal/applicant"
	apperrors "github.com/zcredlabs/zscore/internal/errors"
	"github.com/zcredlabs/zscore/internal/explain"
	"github.com/zcredlabs/zscore/internal/features"
	"github.com/zcredlabs/zscore/internal/monitoring"
	"github.com/zcredlabs/zscore/internal/stats"
)

// Config collects the training knobs for the dual-model classifier.
type Config struct {
	SyntheticSamples int
	Seed             int64
	TestFraction     float64
	ConfidenceLevel  float64
	Logistic         LogisticConfig
	Ensemble         EnsembleConfig
}

// DefaultConfig returns the production training configuration.
func DefaultConfig() Config {
	return Config{
		SyntheticSamples: DefaultSyntheticSamples,
		Seed:             DefaultSeed,
		TestFraction:     0.2,
		ConfidenceLevel:  stats.DefaultConfidenceLevel,
		Logistic:         DefaultLogisticConfig(),
		Ensemble:         DefaultEnsembleConfig(),
	}
}

// Evaluation holds held-out metrics for both models.
type Evaluation struct {
	Linear   BinaryMetrics `json:"linear"`
	Ensemble BinaryMetrics `json:"ensemble"`
}

// Snapshot is one immutable trained state: both models, the feature
// scaler, the attribution engine and the evaluation results. Requests
// read a snapshot without locking; retraining swaps in a new one.
type Snapshot struct {
	Scaler       *Scaler
	Linear       *LogisticModel
	Ensemble     *EnsembleModel
	Explainer    *explain.Explainer
	FeatureNames []string
	Confidence   stats.Interval
	Evaluation   Evaluation
	Version      string
	TrainedAt    time.Time
	TrainingSize int
	TestSize     int
	Synthetic    bool
}

// ModelScores reports the raw probability from each model.
type ModelScores struct {
	Ensemble float64 `json:"ensemble"`
	Linear   float64 `json:"linear"`
}

// RiskResult is the full prediction payload for one applicant.
type RiskResult struct {
	Prediction           int            `json:"prediction"`
	RiskProbability      float64        `json:"risk_probability"`
	ConfidenceScore      float64        `json:"confidence_score"`
	PredictionConfidence float64        `json:"prediction_confidence"`
	RiskCategory         string         `json:"risk_category"`
	ModelScores          ModelScores    `json:"model_scores"`
	ConfidenceIntervals  stats.Interval `json:"confidence_intervals"`
	FeaturesUsed         int            `json:"features_used"`
	ModelVersion         string         `json:"model_version"`
}

// Info is the externally visible summary of a trained snapshot.
type Info struct {
	Version      string         `json:"model_version"`
	TrainedAt    time.Time      `json:"trained_at"`
	TrainingSize int            `json:"training_samples"`
	TestSize     int            `json:"test_samples"`
	Synthetic    bool           `json:"synthetic_data"`
	FeatureNames []string       `json:"feature_names"`
	Confidence   stats.Interval `json:"confidence_intervals"`
	Evaluation   Evaluation     `json:"evaluation"`
	Explainable  bool           `json:"explainer_available"`
}

// Classifier owns the trained snapshot and serializes retraining.
// Prediction and explanation read the current snapshot and never block
// behind a training run.
type Classifier struct {
	cfg    Config
	logger *monitoring.Logger

	mu       sync.RWMutex
	snapshot *Snapshot

	trainMu sync.Mutex
}

// NewClassifier builds an untrained classifier. The first prediction
// bootstraps it from synthetic data unless Train or a model load runs
// first.
func NewClassifier(cfg Config, logger *monitoring.Logger) *Classifier {
	if logger == nil {
		logger = monitoring.NewLogger()
	}
	return &Classifier{cfg: cfg, logger: logger}
}

// Config returns the training configuration the classifier was built
// with.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Snapshot returns the current trained state, or nil before training.
func (c *Classifier) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// IsTrained reports whether a snapshot is available.
func (c *Classifier) IsTrained() bool {
	return c.Snapshot() != nil
}

// Train fits both models. A nil X trains on synthetic data; explicit
// empty, mismatched or single-class inputs are rejected. The new
// snapshot replaces the old one only after training fully succeeds.
func (c *Classifier) Train(X []features.Vector, y []int) (*Snapshot, error) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	return c.train(X, y)
}

func (c *Classifier) train(X []features.Vector, y []int) (*Snapshot, error) {
	start := time.Now()

	snap, err := buildSnapshot(X, y, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	c.logger.TrainingLogger(snap.Version, snap.TrainingSize+snap.TestSize, snap.Synthetic,
		snap.Evaluation.Ensemble.Accuracy, snap.Evaluation.Ensemble.AUCROC, time.Since(start))

	return snap, nil
}

// Restore installs a previously persisted snapshot.
func (c *Classifier) Restore(snap *Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

// ensureTrained returns the current snapshot, bootstrapping from
// synthetic data when none exists yet.
func (c *Classifier) ensureTrained() (*Snapshot, error) {
	if snap := c.Snapshot(); snap != nil {
		return snap, nil
	}

	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if snap := c.Snapshot(); snap != nil {
		return snap, nil
	}

	c.logger.SystemLogger("model_bootstrap", "model not trained, training with synthetic data")
	return c.train(nil, nil)
}

// Predict scores one applicant, training first if needed.
func (c *Classifier) Predict(rec *applicant.Record) (*RiskResult, error) {
	start := time.Now()

	snap, err := c.ensureTrained()
	if err != nil {
		return nil, err
	}

	vec, err := features.Vectorize(rec)
	if err != nil {
		return nil, err
	}

	result := snap.Predict(vec)

	id := ""
	if rec != nil {
		id = rec.ID
	}
	c.logger.PredictionLogger(id, result.RiskCategory, result.ModelVersion,
		result.ConfidenceScore, result.PredictionConfidence, time.Since(start))

	return result, nil
}

// Explain attributes one applicant's prediction to its features. An
// untrained model is an error; an unavailable attribution engine or an
// unusable feature vector degrades to a fallback payload instead.
func (c *Classifier) Explain(rec *applicant.Record) (*explain.Explanation, error) {
	start := time.Now()

	snap := c.Snapshot()
	if snap == nil {
		return nil, apperrors.NewModelError("model not trained", nil)
	}

	id := ""
	if rec != nil {
		id = rec.ID
	}

	vec, err := features.Vectorize(rec)
	if err != nil {
		c.logger.ExplanationLogger(id, 0, 0, true, time.Since(start))
		return &explain.Explanation{
			Error:              "explanation failed: " + err.Error(),
			ExplanationQuality: "low",
			Fallback:           explain.MinimalFallback(),
		}, nil
	}

	if snap.Explainer == nil {
		c.logger.ExplanationLogger(id, 0, 0, true, time.Since(start))
		return &explain.Explanation{
			Error:    "attribution engine not available, model may need retraining",
			Fallback: explain.Fallback(vec),
		}, nil
	}

	expl := snap.Explainer.Explain(vec)
	c.logger.ExplanationLogger(id, expl.BaseValue, snap.Ensemble.Score(vec), false, time.Since(start))

	return expl, nil
}

// Predict scores a prepared feature vector against this snapshot. The
// ensemble drives the decision; the linear model is reported alongside
// for drift comparison.
func (s *Snapshot) Predict(v features.Vector) *RiskResult {
	ensembleScore := s.Ensemble.Score(v)
	linearScore := s.Linear.Score(s.Scaler.Transform(v))

	// Category cuts tighten when the interval over held-out scores
	// shifts: a high upper bound raises the bar for Low Risk, a high
	// lower bound raises it for Medium Risk.
	lowCut := math.Max(0.7, s.Confidence.Upper*0.7)
	mediumCut := math.Max(0.4, s.Confidence.Lower*1.5)

	category := "High Risk"
	switch {
	case ensembleScore >= lowCut:
		category = "Low Risk"
	case ensembleScore >= mediumCut:
		category = "Medium Risk"
	}

	return &RiskResult{
		Prediction:           s.Ensemble.Predict(v),
		RiskProbability:      1 - ensembleScore,
		ConfidenceScore:      ensembleScore,
		PredictionConfidence: math.Min(math.Abs(ensembleScore-0.5)*2, 1),
		RiskCategory:         category,
		ModelScores:          ModelScores{Ensemble: ensembleScore, Linear: linearScore},
		ConfidenceIntervals:  s.Confidence,
		FeaturesUsed:         len(s.FeatureNames),
		ModelVersion:         s.Version,
	}
}

// Info summarizes the snapshot for the model endpoint.
func (s *Snapshot) Info() Info {
	return Info{
		Version:      s.Version,
		TrainedAt:    s.TrainedAt,
		TrainingSize: s.TrainingSize,
		TestSize:     s.TestSize,
		Synthetic:    s.Synthetic,
		FeatureNames: s.FeatureNames,
		Confidence:   s.Confidence,
		Evaluation:   s.Evaluation,
		Explainable:  s.Explainer != nil,
	}
}

// buildSnapshot runs the full training pipeline: split, scale, fit
// both models, attach the explainer and evaluate on held-out data.
func buildSnapshot(X []features.Vector, y []int, cfg Config, logger *monitoring.Logger) (*Snapshot, error) {
	synthetic := false
	if X == nil {
		X, y = Synthesize(cfg.SyntheticSamples, cfg.Seed)
		synthetic = true
	}

	if len(X) == 0 {
		return nil, apperrors.NewModelError("empty training data", nil)
	}
	if len(X) != len(y) {
		return nil, apperrors.NewModelError("training data and labels length mismatch", nil)
	}

	classes := map[int]bool{}
	for _, label := range y {
		classes[label] = true
	}
	if len(classes) < 2 {
		return nil, apperrors.NewModelError("training labels contain a single class", nil)
	}

	trainX, testX, trainY, testY := StratifiedSplit(X, y, cfg.TestFraction, cfg.Seed)

	scaler := FitScaler(trainX)
	scaledTrain := scaler.TransformAll(trainX)

	linear := TrainLogistic(scaledTrain, trainY, cfg.Logistic)
	ensemble := TrainEnsemble(trainX, trainY, cfg.Ensemble)

	// Attribution is best-effort: a scoring pipeline without
	// explanations is still servable.
	explainer, err := explain.New(ensemble, trainX)
	if err != nil {
		logger.Warn("Explainer initialization failed", "error", err.Error())
		explainer = nil
	}

	scaledTest := scaler.TransformAll(testX)
	linearScores := make([]float64, len(testX))
	ensembleScores := make([]float64, len(testX))
	for i := range testX {
		linearScores[i] = linear.Score(scaledTest[i])
		ensembleScores[i] = ensemble.Score(testX[i])
	}

	return &Snapshot{
		Scaler:       scaler,
		Linear:       linear,
		Ensemble:     ensemble,
		Explainer:    explainer,
		FeatureNames: features.Names(),
		Confidence:   stats.ConfidenceInterval(ensembleScores, cfg.ConfidenceLevel),
		Evaluation: Evaluation{
			Linear:   EvaluateBinary(linearScores, testY),
			Ensemble: EvaluateBinary(ensembleScores, testY),
		},
		Version:      time.Now().Format("20060102_150405"),
		TrainedAt:    time.Now(),
		TrainingSize: len(trainX),
		TestSize:     len(testX),
		Synthetic:    synthetic,
	}, nil
}
