package automl

import (
	"time"

	"goanalyst/domain/core"
)

// CandidateScore records how one candidate did on the validation split
type CandidateScore struct {
	Algorithm       Algorithm          `json:"algorithm" yaml:"algorithm"`
	Hyperparameters map[string]float64 `json:"hyperparameters" yaml:"hyperparameters"`
	Score           float64            `json:"score" yaml:"score"`
	Duration        time.Duration      `json:"duration" yaml:"duration"`
	Selected        bool               `json:"selected" yaml:"selected"`
}

// TrainedModel is the selected candidate of a training run. It is immutable
// once returned and carries everything Predict needs.
type TrainedModel struct {
	ID          core.ModelID `json:"id" yaml:"id"`
	Algorithm   Algorithm    `json:"algorithm" yaml:"algorithm"`
	ProblemType ProblemType  `json:"problem_type" yaml:"problem_type"`
	Target      string       `json:"target" yaml:"target"`
	Features    []string     `json:"features" yaml:"features"`
	// SkippedFeatures were selected but are not numeric
	SkippedFeatures []string `json:"skipped_features,omitempty" yaml:"skipped_features,omitempty"`
	Classes         []string `json:"classes,omitempty" yaml:"classes,omitempty"`

	Params     Params             `json:"params" yaml:"params"`
	Scaler     Scaler             `json:"scaler" yaml:"scaler"`
	Imputation Imputation         `json:"imputation" yaml:"imputation"`
	FillValues map[string]float64 `json:"fill_values" yaml:"fill_values"`
	TargetStd  float64            `json:"target_std,omitempty" yaml:"target_std,omitempty"`

	Metrics           map[string]float64 `json:"metrics" yaml:"metrics"`
	SelectionMetric   string             `json:"selection_metric" yaml:"selection_metric"`
	FeatureImportance map[string]float64 `json:"feature_importance" yaml:"feature_importance"`
	// TargetCorrelations holds the Pearson r of each feature with a
	// regression target
	TargetCorrelations map[string]float64 `json:"target_correlations,omitempty" yaml:"target_correlations,omitempty"`
	Hyperparameters    map[string]float64 `json:"hyperparameters" yaml:"hyperparameters"`
	CVScore            float64            `json:"cv_score" yaml:"cv_score"`
	CVFolds            int                `json:"cv_folds" yaml:"cv_folds"`
	Candidates         []CandidateScore   `json:"candidates" yaml:"candidates"`

	TrainRows        int           `json:"train_rows" yaml:"train_rows"`
	ValidationRows   int           `json:"validation_rows" yaml:"validation_rows"`
	Seed             int64         `json:"seed" yaml:"seed"`
	TrainingDuration time.Duration `json:"training_duration" yaml:"training_duration"`
	Stage            Stage         `json:"stage" yaml:"stage"`
	Warnings         []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Summary          string        `json:"summary" yaml:"summary"`
	CreatedAt        time.Time     `json:"created_at" yaml:"created_at"`
}

// TopFeature returns the feature with the highest importance; ties go to
// the earlier feature
func (m *TrainedModel) TopFeature() string {
	best, bestVal := "", -1.0
	for _, f := range m.Features {
		if v := m.FeatureImportance[f]; v > bestVal {
			best, bestVal = f, v
		}
	}
	return best
}

// Interval is a symmetric prediction band around a regression estimate
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PredictionResult is the outcome of one Predict call
type PredictionResult struct {
	// Value is the regression estimate or the predicted class index
	Value float64 `json:"value"`
	// Label is the predicted class for classification models
	Label         string             `json:"label,omitempty"`
	Confidence    float64            `json:"confidence"`
	Interval      *Interval          `json:"interval,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Contributions map[string]float64 `json:"contributions"`
	// Imputed lists features that were missing from the input and filled
	Imputed     []string `json:"imputed,omitempty"`
	Explanation string   `json:"explanation"`
}
