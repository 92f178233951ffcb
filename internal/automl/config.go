// Package automl infers the problem type of a target column, trains several
// candidate models on a seeded split, keeps the best one and explains its
// predictions.
package automl

import (
	"goanalyst/internal"
)

// Stage is a step of a training run
type Stage string

const (
	StageConfigured    Stage = "configured"
	StagePreprocessing Stage = "preprocessing"
	StageTraining      Stage = "training"
	StageEvaluated     Stage = "evaluated"
	StageReady         Stage = "ready"
)

// Imputation selects how missing feature cells are filled
type Imputation string

const (
	ImputeMean   Imputation = "mean"
	ImputeMedian Imputation = "median"
)

const (
	DefaultSeed               int64 = 42
	DefaultCVFolds                  = 5
	DefaultMinRows                  = 5
	DefaultValidationFraction       = 0.2
	// DefaultTrials is how many hyperparameter draws each tunable algorithm gets
	DefaultTrials = 3
)

// Config controls a training run. Unset numeric fields take the defaults
// above; Seed is used as given, including 0.
type Config struct {
	Seed               int64
	CVFolds            int
	MinRows            int
	ValidationFraction float64
	Trials             int
	Imputation         Imputation
	// Algorithms restricts the candidate set; empty means every algorithm
	// that fits the problem type
	Algorithms []Algorithm
	// OnStage observes stage transitions in order
	OnStage func(Stage)
	Logger  *internal.Logger
}

// DefaultConfig returns the seeded defaults
func DefaultConfig() Config {
	return Config{
		Seed:               DefaultSeed,
		CVFolds:            DefaultCVFolds,
		MinRows:            DefaultMinRows,
		ValidationFraction: DefaultValidationFraction,
		Trials:             DefaultTrials,
		Imputation:         ImputeMean,
	}
}

func (c Config) withDefaults() Config {
	if c.CVFolds <= 0 {
		c.CVFolds = DefaultCVFolds
	}
	if c.MinRows <= 0 {
		c.MinRows = DefaultMinRows
	}
	if c.ValidationFraction <= 0 || c.ValidationFraction >= 1 {
		c.ValidationFraction = DefaultValidationFraction
	}
	if c.Trials <= 0 {
		c.Trials = DefaultTrials
	}
	if c.Imputation != ImputeMedian {
		c.Imputation = ImputeMean
	}
	if c.Logger == nil {
		c.Logger = internal.DefaultLogger.With("AutoML")
	}
	return c
}

func (c Config) enter(stage Stage) {
	c.Logger.Debug("stage -> %s", stage)
	if c.OnStage != nil {
		c.OnStage(stage)
	}
}
