package learner

import (
	"fmt"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/core/parallel"
	"github.com/YuminosukeSato/godml/metrics"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Ridge implements L2-penalized least squares regression solved in closed
// form via the regularized normal equations
//
//	w = (XᵀX + αI)⁻¹ Xᵀy
//
// The intercept, when fitted, is left unpenalized by centering X and y before
// solving. With Alpha = 0 the model degenerates to ordinary least squares.
type Ridge struct {
	state *model.StateManager

	// Hyperparameters
	alpha        float64 // L2 penalty strength
	fitIntercept bool    // Whether to fit an unpenalized intercept

	// Fitted parameters
	coef      []float64
	intercept float64
	nFeatures int
}

var (
	_ model.Regressor   = (*Ridge)(nil)
	_ model.LinearModel = (*Ridge)(nil)
)

// RidgeOption is a functional option for Ridge.
type RidgeOption func(*Ridge)

// WithRidgeAlpha sets the L2 penalty strength. Must be non-negative.
func WithRidgeAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) {
		r.alpha = alpha
	}
}

// WithRidgeIntercept sets whether an unpenalized intercept is fitted.
func WithRidgeIntercept(fit bool) RidgeOption {
	return func(r *Ridge) {
		r.fitIntercept = fit
	}
}

// NewRidge creates a new Ridge regressor with default parameters
// (alpha=1.0, intercept fitted).
func NewRidge(opts ...RidgeOption) *Ridge {
	r := &Ridge{
		state:        model.NewStateManager(),
		alpha:        1.0,
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit trains the model on X (n×k) and the column vector y (n×1).
func (r *Ridge) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := validateTrainingData("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	if r.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.alpha)
	}

	r.nFeatures = nFeatures

	// Center X and y so the intercept stays unpenalized.
	xMean := make([]float64, nFeatures)
	var yMean float64
	if r.fitIntercept {
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

	xc := mat.NewDense(nSamples, nFeatures, nil)
	yc := mat.NewVecDense(nSamples, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < nFeatures; j++ {
				xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, y.At(i, 0)-yMean)
		}
	})

	// Regularized normal equations: (XᵀX + αI) w = Xᵀy.
	var xtx mat.Dense
	xtx.Mul(xc.T(), xc)
	for j := 0; j < nFeatures; j++ {
		xtx.Set(j, j, xtx.At(j, j)+r.alpha)
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return errors.NewEstimationError("Ridge.Fit", "singular design matrix", errors.ErrSingularMatrix)
	}

	weights := mat.NewVecDense(nFeatures, nil)
	weights.MulVec(&xtxInv, &xty)

	r.coef = make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		r.coef[j] = weights.AtVec(j)
	}
	if err := errors.CheckNumericalStability("Ridge.Fit", r.coef, 0); err != nil {
		return err
	}

	r.intercept = 0
	if r.fitIntercept {
		r.intercept = yMean
		for j := 0; j < nFeatures; j++ {
			r.intercept -= r.coef[j] * xMean[j]
		}
	}

	r.state.SetDimensions(nFeatures, nSamples)
	r.state.SetFitted()
	return nil
}

// Predict returns predictions for X as an n×1 matrix.
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.state.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != r.nFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := r.intercept
			for j := 0; j < nFeatures; j++ {
				pred += X.At(i, j) * r.coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2FromPredictions("Ridge.Score", y, yPred)
}

// Weights returns a copy of the fitted coefficients.
func (r *Ridge) Weights() []float64 {
	if r.coef == nil {
		return nil
	}
	out := make([]float64, len(r.coef))
	copy(out, r.coef)
	return out
}

// Intercept returns the fitted intercept.
func (r *Ridge) Intercept() float64 {
	return r.intercept
}

// IsFitted reports whether Fit has completed successfully.
func (r *Ridge) IsFitted() bool {
	return r.state.IsFitted()
}

// Reset returns the model to its unfitted state.
func (r *Ridge) Reset() {
	r.state.Reset()
	r.coef = nil
	r.intercept = 0
	r.nFeatures = 0
}

// GetParams returns the model's hyperparameters.
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.alpha,
		"fit_intercept": r.fitIntercept,
	}
}

// String returns a short description of the model.
func (r *Ridge) String() string {
	return fmt.Sprintf("Ridge(alpha=%g, fit_intercept=%t)", r.alpha, r.fitIntercept)
}

// validateTrainingData checks the common Fit preconditions shared by the
// regression learners: non-empty X, matching row counts, single-column y.
func validateTrainingData(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	nSamples, nFeatures = X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return nSamples, nFeatures, nil
}

// r2FromPredictions computes R² from a target matrix and predictions.
func r2FromPredictions(op string, y, yPred mat.Matrix) (float64, error) {
	n, _ := y.Dims()
	yTrue := mat.NewVecDense(n, nil)
	yHat := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yHat.SetVec(i, yPred.At(i, 0))
	}
	score, err := metrics.R2Score(yTrue, yHat)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return score, nil
}
