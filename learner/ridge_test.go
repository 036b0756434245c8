package learner

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	pkgerrors "github.com/YuminosukeSato/godml/pkg/errors"
)

// TestRidge_FitPredict_Linear checks that with a negligible penalty the
// closed-form solution recovers an exact linear relationship.
func TestRidge_FitPredict_Linear(t *testing.T) {
	// y = 3*x1 - 2*x2 + 1, no noise
	n := 20
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x1 := float64(i) * 0.5
		x2 := float64(i%5) - 2.0
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.Set(i, 0, 3*x1-2*x2+1)
	}

	r := NewRidge(WithRidgeAlpha(1e-8))
	if err := r.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	w := r.Weights()
	if math.Abs(w[0]-3) > 1e-4 {
		t.Errorf("weight 0: expected 3, got %v", w[0])
	}
	if math.Abs(w[1]+2) > 1e-4 {
		t.Errorf("weight 1: expected -2, got %v", w[1])
	}
	if math.Abs(r.Intercept()-1) > 1e-4 {
		t.Errorf("intercept: expected 1, got %v", r.Intercept())
	}

	preds, err := r.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < n; i++ {
		if math.Abs(preds.At(i, 0)-y.At(i, 0)) > 1e-4 {
			t.Errorf("sample %d: expected %v, got %v", i, y.At(i, 0), preds.At(i, 0))
		}
	}

	score, err := r.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.9999 {
		t.Errorf("expected R² near 1 on noiseless data, got %v", score)
	}
}

// TestRidge_Regularization_ShrinksWeights checks that a stronger penalty
// produces strictly smaller coefficient magnitudes.
func TestRidge_Regularization_ShrinksWeights(t *testing.T) {
	n := 30
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x1 := math.Sin(float64(i))
		x2 := math.Cos(float64(i) * 0.7)
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.Set(i, 0, 2*x1+x2)
	}

	weak := NewRidge(WithRidgeAlpha(0.001))
	strong := NewRidge(WithRidgeAlpha(100))
	if err := weak.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := strong.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	normWeak := math.Hypot(weak.Weights()[0], weak.Weights()[1])
	normStrong := math.Hypot(strong.Weights()[0], strong.Weights()[1])
	if normStrong >= normWeak {
		t.Errorf("expected shrinkage: alpha=100 norm %v should be below alpha=0.001 norm %v", normStrong, normWeak)
	}
}

// TestRidge_Predict_NotFitted checks the error on predicting before Fit.
func TestRidge_Predict_NotFitted(t *testing.T) {
	r := NewRidge()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	if _, err := r.Predict(X); err == nil {
		t.Fatal("expected error when predicting before Fit")
	}
	if r.IsFitted() {
		t.Error("IsFitted should be false before Fit")
	}
}

// TestRidge_Fit_DimensionMismatch checks row-count validation.
func TestRidge_Fit_DimensionMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	r := NewRidge()
	err := r.Fit(X, y)
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}

	var dimErr *pkgerrors.DimensionError
	if !pkgerrors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %T: %v", err, err)
	}
}

// TestRidge_Fit_NegativeAlpha checks hyperparameter validation.
func TestRidge_Fit_NegativeAlpha(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	r := NewRidge(WithRidgeAlpha(-1))
	if err := r.Fit(X, y); err == nil {
		t.Fatal("expected validation error for negative alpha")
	}
}

// TestRidge_Reset clears fitted state.
func TestRidge_Reset(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	r := NewRidge(WithRidgeAlpha(1e-8))
	if err := r.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !r.IsFitted() {
		t.Fatal("expected fitted state after Fit")
	}

	r.Reset()
	if r.IsFitted() {
		t.Error("expected unfitted state after Reset")
	}
	if r.Weights() != nil {
		t.Error("expected nil weights after Reset")
	}
}
