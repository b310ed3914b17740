package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/zcredlabs/zscore/internal/errors"
	"github.com/zcredlabs/zscore/internal/explain"
	"github.com/zcredlabs/zscore/internal/features"
	"github.com/zcredlabs/zscore/internal/stats"
)

const (
	scalerFile       = "scaler.json"
	linearFile       = "linear_model.json"
	ensembleFile     = "ensemble_model.json"
	featureNamesFile = "feature_names.json"
	metadataFile     = "metadata.json"
)

// bundleMetadata is everything a snapshot needs beyond the two models
// and the scaler, including the explainer's baseline statistics.
type bundleMetadata struct {
	Version      string         `json:"version"`
	TrainedAt    time.Time      `json:"trained_at"`
	TrainingSize int            `json:"training_size"`
	TestSize     int            `json:"test_size"`
	Synthetic    bool           `json:"synthetic"`
	Confidence   stats.Interval `json:"confidence"`
	Evaluation   Evaluation     `json:"evaluation"`
	Baseline     []float64      `json:"explainer_baseline,omitempty"`
	BaseValue    float64        `json:"explainer_base_value,omitempty"`
}

// SaveSnapshot writes the trained state as a JSON bundle under dir.
// Each file lands via write-then-rename so a crash mid-save never
// corrupts an existing bundle.
func SaveSnapshot(dir string, snap *Snapshot) error {
	if snap == nil {
		return apperrors.NewModelError("no trained model to save", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	meta := bundleMetadata{
		Version:      snap.Version,
		TrainedAt:    snap.TrainedAt,
		TrainingSize: snap.TrainingSize,
		TestSize:     snap.TestSize,
		Synthetic:    snap.Synthetic,
		Confidence:   snap.Confidence,
		Evaluation:   snap.Evaluation,
	}
	if snap.Explainer != nil {
		baseline := snap.Explainer.Baseline()
		meta.Baseline = baseline.Slice()
		meta.BaseValue = snap.Explainer.BaseValue()
	}

	files := map[string]any{
		scalerFile:       snap.Scaler,
		linearFile:       snap.Linear,
		ensembleFile:     snap.Ensemble,
		featureNamesFile: snap.FeatureNames,
		metadataFile:     meta,
	}
	for name, v := range files {
		if err := writeJSONFile(filepath.Join(dir, name), v); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	return nil
}

// LoadSnapshot reads a bundle written by SaveSnapshot. A bundle
// trained on a different feature set is rejected.
func LoadSnapshot(dir string) (*Snapshot, error) {
	var (
		scaler   Scaler
		linear   LogisticModel
		ensemble EnsembleModel
		names    []string
		meta     bundleMetadata
	)

	steps := []struct {
		file string
		into any
	}{
		{scalerFile, &scaler},
		{linearFile, &linear},
		{ensembleFile, &ensemble},
		{featureNamesFile, &names},
		{metadataFile, &meta},
	}
	for _, step := range steps {
		if err := readJSONFile(filepath.Join(dir, step.file), step.into); err != nil {
			return nil, fmt.Errorf("read %s: %w", step.file, err)
		}
	}

	current := features.Names()
	if len(names) != len(current) {
		return nil, fmt.Errorf("model bundle has %d features, expected %d", len(names), len(current))
	}
	for i, name := range names {
		if name != current[i] {
			return nil, fmt.Errorf("model bundle feature %d is %q, expected %q", i, name, current[i])
		}
	}

	snap := &Snapshot{
		Scaler:       &scaler,
		Linear:       &linear,
		Ensemble:     &ensemble,
		FeatureNames: names,
		Confidence:   meta.Confidence,
		Evaluation:   meta.Evaluation,
		Version:      meta.Version,
		TrainedAt:    meta.TrainedAt,
		TrainingSize: meta.TrainingSize,
		TestSize:     meta.TestSize,
		Synthetic:    meta.Synthetic,
	}

	if len(meta.Baseline) == features.Count {
		var baseline features.Vector
		copy(baseline[:], meta.Baseline)
		explainer, err := explain.Restore(&ensemble, baseline, meta.BaseValue)
		if err == nil {
			snap.Explainer = explainer
		}
	}

	return snap, nil
}

// Save persists the current snapshot under dir.
func (c *Classifier) Save(dir string) error {
	return SaveSnapshot(dir, c.Snapshot())
}

// LoadOrTrain restores a persisted bundle, falling back to a fresh
// synthetic training run when none is usable. A fresh run is persisted
// so the next boot restores instead of retraining.
func (c *Classifier) LoadOrTrain(dir string) (*Snapshot, error) {
	snap, err := LoadSnapshot(dir)
	if err != nil {
		c.logger.SystemLogger("model_load_failed", err.Error())
		trained, trainErr := c.Train(nil, nil)
		if trainErr != nil {
			return nil, trainErr
		}
		if saveErr := SaveSnapshot(dir, trained); saveErr != nil {
			c.logger.SystemLogger("model_save_failed", saveErr.Error())
		}
		return trained, nil
	}

	c.Restore(snap)
	c.logger.SystemLogger("model_loaded", "restored model version "+snap.Version)
	return snap, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
