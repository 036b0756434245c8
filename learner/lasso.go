package learner

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/core/parallel"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Lasso implements L1-penalized least squares regression fitted by cyclic
// coordinate descent on the objective
//
//	(1/2n) ‖y − Xw‖² + α‖w‖₁
//
// The L1 penalty drives small coefficients exactly to zero, which makes Lasso
// the canonical nuisance learner when the covariate set is high-dimensional
// and sparse. The intercept is unpenalized.
type Lasso struct {
	state *model.StateManager

	// Hyperparameters
	alpha        float64 // L1 penalty strength
	fitIntercept bool    // Whether to fit an unpenalized intercept
	maxIter      int     // Maximum coordinate descent sweeps
	tol          float64 // Convergence tolerance on the largest coefficient update

	// Fitted parameters
	coef      []float64
	intercept float64
	nFeatures int
	nIter     int
}

var (
	_ model.Regressor   = (*Lasso)(nil)
	_ model.LinearModel = (*Lasso)(nil)
)

// LassoOption is a functional option for Lasso.
type LassoOption func(*Lasso)

// WithLassoAlpha sets the L1 penalty strength. Must be non-negative.
func WithLassoAlpha(alpha float64) LassoOption {
	return func(l *Lasso) {
		l.alpha = alpha
	}
}

// WithLassoIntercept sets whether an unpenalized intercept is fitted.
func WithLassoIntercept(fit bool) LassoOption {
	return func(l *Lasso) {
		l.fitIntercept = fit
	}
}

// WithLassoMaxIter sets the maximum number of coordinate descent sweeps.
func WithLassoMaxIter(maxIter int) LassoOption {
	return func(l *Lasso) {
		l.maxIter = maxIter
	}
}

// WithLassoTol sets the convergence tolerance.
func WithLassoTol(tol float64) LassoOption {
	return func(l *Lasso) {
		l.tol = tol
	}
}

// NewLasso creates a new Lasso regressor with default parameters
// (alpha=0.1, intercept fitted, 1000 sweeps, tol=1e-6).
func NewLasso(opts ...LassoOption) *Lasso {
	l := &Lasso{
		state:        model.NewStateManager(),
		alpha:        0.1,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-6,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit trains the model on X (n×k) and the column vector y (n×1).
// If coordinate descent does not converge within the configured sweep budget,
// a ConvergenceWarning is emitted through the package warning handler and the
// last iterate is kept.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := validateTrainingData("Lasso.Fit", X, y)
	if err != nil {
		return err
	}
	if l.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.alpha)
	}
	if l.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", l.maxIter)
	}

	l.nFeatures = nFeatures

	// Center X and y so the intercept stays unpenalized.
	xMean := make([]float64, nFeatures)
	var yMean float64
	if l.fitIntercept {
		for j := 0; j < nFeatures; j++ {
			sum := 0.0
			for i := 0; i < nSamples; i++ {
				sum += X.At(i, j)
			}
			xMean[j] = sum / float64(nSamples)
		}
		for i := 0; i < nSamples; i++ {
			yMean += y.At(i, 0)
		}
		yMean /= float64(nSamples)
	}

	// Column-major copy of the centered design speeds up the coordinate sweeps.
	cols := make([][]float64, nFeatures)
	colSumSq := make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		col := make([]float64, nSamples)
		sumSq := 0.0
		for i := 0; i < nSamples; i++ {
			v := X.At(i, j) - xMean[j]
			col[i] = v
			sumSq += v * v
		}
		cols[j] = col
		colSumSq[j] = sumSq
	}

	residual := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		residual[i] = y.At(i, 0) - yMean
	}

	w := make([]float64, nFeatures)
	threshold := l.alpha * float64(nSamples)

	converged := false
	for iter := 0; iter < l.maxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < nFeatures; j++ {
			if colSumSq[j] == 0 {
				continue
			}

			// Correlation of feature j with the partial residual.
			rho := 0.0
			col := cols[j]
			for i := 0; i < nSamples; i++ {
				rho += col[i] * (residual[i] + col[i]*w[j])
			}

			wOld := w[j]
			w[j] = softThreshold(rho, threshold) / colSumSq[j]

			if delta := w[j] - wOld; delta != 0 {
				for i := 0; i < nSamples; i++ {
					residual[i] -= col[i] * delta
				}
				if ad := math.Abs(delta); ad > maxDelta {
					maxDelta = ad
				}
			}
		}

		l.nIter = iter + 1
		if maxDelta < l.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.maxIter, ""))
	}
	if err := errors.CheckNumericalStability("Lasso.Fit", w, l.nIter); err != nil {
		return err
	}

	l.coef = w
	l.intercept = 0
	if l.fitIntercept {
		l.intercept = yMean
		for j := 0; j < nFeatures; j++ {
			l.intercept -= w[j] * xMean[j]
		}
	}

	l.state.SetDimensions(nFeatures, nSamples)
	l.state.SetFitted()
	return nil
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(rho, threshold float64) float64 {
	switch {
	case rho > threshold:
		return rho - threshold
	case rho < -threshold:
		return rho + threshold
	default:
		return 0
	}
}

// Predict returns predictions for X as an n×1 matrix.
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.state.IsFitted() {
		return nil, errors.NewNotFittedError("Lasso", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != l.nFeatures {
		return nil, errors.NewDimensionError("Lasso.Predict", l.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := l.intercept
			for j := 0; j < nFeatures; j++ {
				pred += X.At(i, j) * l.coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (l *Lasso) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := l.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2FromPredictions("Lasso.Score", y, yPred)
}

// Weights returns a copy of the fitted coefficients.
func (l *Lasso) Weights() []float64 {
	if l.coef == nil {
		return nil
	}
	out := make([]float64, len(l.coef))
	copy(out, l.coef)
	return out
}

// Intercept returns the fitted intercept.
func (l *Lasso) Intercept() float64 {
	return l.intercept
}

// NIterations returns the number of coordinate descent sweeps performed by
// the last Fit.
func (l *Lasso) NIterations() int {
	return l.nIter
}

// IsFitted reports whether Fit has completed successfully.
func (l *Lasso) IsFitted() bool {
	return l.state.IsFitted()
}

// Reset returns the model to its unfitted state.
func (l *Lasso) Reset() {
	l.state.Reset()
	l.coef = nil
	l.intercept = 0
	l.nFeatures = 0
	l.nIter = 0
}

// GetParams returns the model's hyperparameters.
func (l *Lasso) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         l.alpha,
		"fit_intercept": l.fitIntercept,
		"max_iter":      l.maxIter,
		"tol":           l.tol,
	}
}

// String returns a short description of the model.
func (l *Lasso) String() string {
	return fmt.Sprintf("Lasso(alpha=%g, fit_intercept=%t, max_iter=%d)", l.alpha, l.fitIntercept, l.maxIter)
}
