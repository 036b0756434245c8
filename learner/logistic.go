package learner

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/core/parallel"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Logistic implements binary logistic regression fitted by gradient descent
// with an adaptive step size. It is the propensity learner for binary
// treatments: PredictProba exposes P(D=1|X), which the cross-fitting engine
// prefers over hard class labels.
//
// Only two distinct label values are supported. Multiclass problems are out
// of scope for treatment propensity estimation.
type Logistic struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse L2 regularization strength (1/lambda)
	fitIntercept bool    // Whether to fit an intercept
	maxIter      int     // Maximum gradient descent iterations
	tol          float64 // Convergence tolerance on the gradient norm

	// Fitted parameters
	coef      []float64
	intercept float64
	classes   []int
	nFeatures int
	nIter     int
}

var _ model.Classifier = (*Logistic)(nil)

// LogisticOption is a functional option for Logistic.
type LogisticOption func(*Logistic)

// WithLogisticC sets the inverse L2 regularization strength.
func WithLogisticC(c float64) LogisticOption {
	return func(l *Logistic) {
		l.c = c
	}
}

// WithLogisticIntercept sets whether an intercept is fitted.
func WithLogisticIntercept(fit bool) LogisticOption {
	return func(l *Logistic) {
		l.fitIntercept = fit
	}
}

// WithLogisticMaxIter sets the maximum number of gradient descent iterations.
func WithLogisticMaxIter(maxIter int) LogisticOption {
	return func(l *Logistic) {
		l.maxIter = maxIter
	}
}

// WithLogisticTol sets the convergence tolerance.
func WithLogisticTol(tol float64) LogisticOption {
	return func(l *Logistic) {
		l.tol = tol
	}
}

// NewLogistic creates a new binary logistic regression classifier with
// default parameters (C=1.0, intercept fitted, 1000 iterations, tol=1e-5).
func NewLogistic(opts ...LogisticOption) *Logistic {
	l := &Logistic{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-5,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit trains the classifier on X (n×k) and the label column y (n×1).
// y must contain exactly two distinct values; the larger one is treated as
// the positive class.
func (l *Logistic) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := validateTrainingData("Logistic.Fit", X, y)
	if err != nil {
		return err
	}
	if l.c <= 0 {
		return errors.NewValidationError("C", "must be positive", l.c)
	}
	if l.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", l.maxIter)
	}

	classes, err := extractBinaryClasses("Logistic.Fit", y)
	if err != nil {
		return err
	}
	l.classes = classes
	l.nFeatures = nFeatures

	// Recode labels to {0, 1} with the larger class value as positive.
	labels := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == classes[1] {
			labels[i] = 1
		}
	}

	weights := make([]float64, nFeatures)
	intercept := 0.0
	lambda := 1.0 / l.c
	const baseLearningRate = 1.0

	converged := false
	for iter := 0; iter < l.maxIter; iter++ {
		gradW := make([]float64, nFeatures)
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - labels[i]
			gradB += residual
			for j := 0; j < nFeatures; j++ {
				gradW[j] += residual * X.At(i, j)
			}
		}

		for j := range gradW {
			gradW[j] = gradW[j]/float64(nSamples) + lambda*weights[j]
		}
		gradB /= float64(nSamples)

		// Decaying step size keeps the early iterations aggressive without
		// oscillating near the optimum.
		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= learningRate * gradW[j]
		}
		if l.fitIntercept {
			intercept -= learningRate * gradB
		}

		l.nIter = iter + 1

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if a := math.Abs(g); a > maxGrad {
				maxGrad = a
			}
		}
		if maxGrad < l.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", l.maxIter, ""))
	}
	if err := errors.CheckNumericalStability("Logistic.Fit", weights, l.nIter); err != nil {
		return err
	}

	l.coef = weights
	l.intercept = intercept
	l.state.SetDimensions(nFeatures, nSamples)
	l.state.SetFitted()
	return nil
}

// extractBinaryClasses returns the two distinct integer labels in y, sorted
// ascending. It fails when y holds fewer or more than two values.
func extractBinaryClasses(op string, y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) {
			return nil, errors.NewValueError(op, "labels must be integer-valued")
		}
		seen[int(v)] = true
		if len(seen) > 2 {
			return nil, errors.NewValueError(op, "more than two classes found; only binary classification is supported")
		}
	}
	if len(seen) < 2 {
		return nil, errors.NewValueError(op, "labels are constant; need two classes")
	}

	classes := make([]int, 0, 2)
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, nil
}

// decision computes the linear decision value for row i of X.
func (l *Logistic) decision(X mat.Matrix, i int) float64 {
	z := l.intercept
	for j := 0; j < l.nFeatures; j++ {
		z += X.At(i, j) * l.coef[j]
	}
	return z
}

// Predict returns the predicted class label for each row of X as an n×1
// matrix, using a 0.5 probability threshold.
func (l *Logistic) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.state.IsFitted() {
		return nil, errors.NewNotFittedError("Logistic", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != l.nFeatures {
		return nil, errors.NewDimensionError("Logistic.Predict", l.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if sigmoid(l.decision(X, i)) >= 0.5 {
				predictions.Set(i, 0, float64(l.classes[1]))
			} else {
				predictions.Set(i, 0, float64(l.classes[0]))
			}
		}
	})

	return predictions, nil
}

// PredictProba returns class membership probabilities as an n×2 matrix with
// columns ordered as Classes(): P(class 0) first, P(class 1) second.
func (l *Logistic) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !l.state.IsFitted() {
		return nil, errors.NewNotFittedError("Logistic", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != l.nFeatures {
		return nil, errors.NewDimensionError("Logistic.PredictProba", l.nFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			p := sigmoid(l.decision(X, i))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
	})

	return probas, nil
}

// Classes returns the two class labels seen during fitting, sorted ascending.
func (l *Logistic) Classes() []int {
	if l.classes == nil {
		return nil
	}
	out := make([]int, len(l.classes))
	copy(out, l.classes)
	return out
}

// Weights returns a copy of the fitted coefficients.
func (l *Logistic) Weights() []float64 {
	if l.coef == nil {
		return nil
	}
	out := make([]float64, len(l.coef))
	copy(out, l.coef)
	return out
}

// Intercept returns the fitted intercept.
func (l *Logistic) Intercept() float64 {
	return l.intercept
}

// NIterations returns the number of gradient descent iterations performed by
// the last Fit.
func (l *Logistic) NIterations() int {
	return l.nIter
}

// IsFitted reports whether Fit has completed successfully.
func (l *Logistic) IsFitted() bool {
	return l.state.IsFitted()
}

// Reset returns the model to its unfitted state.
func (l *Logistic) Reset() {
	l.state.Reset()
	l.coef = nil
	l.intercept = 0
	l.classes = nil
	l.nFeatures = 0
	l.nIter = 0
}

// GetParams returns the model's hyperparameters.
func (l *Logistic) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             l.c,
		"fit_intercept": l.fitIntercept,
		"max_iter":      l.maxIter,
		"tol":           l.tol,
	}
}

// String returns a short description of the model.
func (l *Logistic) String() string {
	return fmt.Sprintf("Logistic(C=%g, fit_intercept=%t, max_iter=%d)", l.c, l.fitIntercept, l.maxIter)
}

// sigmoid computes the logistic function with overflow protection.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
