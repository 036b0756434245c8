// Package model provides the shared contracts between nuisance learners and
// the estimation engine. This file complements the core interfaces in
// estimator.go and transformer.go.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Learner is the uniform adapter contract every nuisance learner satisfies.
// A learner is fitted on a feature matrix X and a single-column target y,
// and produces a single-column prediction matrix for new rows of X.
// Implementations must be usable from multiple goroutines after Fit returns.
type Learner interface {
	Fitter
	Predictor
}

// LearnerFactory produces a fresh, unfitted learner. Cross-fitting fits an
// independent learner per fold, so factories stand in for instance cloning.
type LearnerFactory func() Learner

// ProbabilityPredictor is the interface for learners that can predict class
// membership probabilities. Binary treatment nuisances prefer the positive
// class probability over the raw decision value when available.
type ProbabilityPredictor interface {
	// PredictProba returns probability estimates, one column per class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that report a goodness-of-fit score on
// held-out data.
type Scorer interface {
	// Score returns the R² of the model's predictions against y.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor is the full contract of a continuous-outcome nuisance learner.
type Regressor interface {
	Estimator
	Learner
	Scorer
}

// Classifier is the full contract of a binary-treatment nuisance learner.
type Classifier interface {
	Estimator
	Learner
	ProbabilityPredictor

	// Classes returns the two label values seen at fit time, sorted ascending.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their
// hyperparameters, e.g. for structured logging of an estimation setup.
type ParameterGetter interface {
	// GetParams returns the hyperparameters the model was constructed with.
	GetParams() map[string]interface{}
}
