package learner

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestBoosting_FitPredict_Nonlinear checks that the ensemble captures a
// smooth nonlinear target that a linear model cannot.
func TestBoosting_FitPredict_Nonlinear(t *testing.T) {
	// y = x² on a grid over [-2, 2]
	n := 100
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := -2 + 4*float64(i)/float64(n-1)
		X.Set(i, 0, x)
		y.Set(i, 0, x*x)
	}

	b := NewBoosting(WithBoostingRounds(100), WithBoostingMinLeaf(2))
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	score, err := b.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.9 {
		t.Errorf("expected training R² above 0.9 on quadratic target, got %v", score)
	}
}

// TestBoosting_StepFunction checks that depth-1 stumps recover a step
// function away from the discontinuity.
func TestBoosting_StepFunction(t *testing.T) {
	n := 80
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := -1 + 2*float64(i)/float64(n-1)
		X.Set(i, 0, x)
		if x > 0 {
			y.Set(i, 0, 1)
		}
	}

	b := NewBoosting(WithBoostingRounds(150), WithBoostingMaxDepth(1), WithBoostingMinLeaf(2))
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	preds, err := b.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < n; i++ {
		x := X.At(i, 0)
		if math.Abs(x) < 0.2 {
			continue // near the jump
		}
		if math.Abs(preds.At(i, 0)-y.At(i, 0)) > 0.05 {
			t.Errorf("x=%v: expected %v, got %v", x, y.At(i, 0), preds.At(i, 0))
		}
	}
}

// TestBoosting_Reproducible_SameSeed checks that subsampled fits with the
// same seed produce bit-identical predictions.
func TestBoosting_Reproducible_SameSeed(t *testing.T) {
	n := 60
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x1 := math.Sin(float64(i) * 0.3)
		x2 := float64(i%7) - 3
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.Set(i, 0, x1*x2)
	}

	fit := func() mat.Matrix {
		b := NewBoosting(
			WithBoostingRounds(30),
			WithBoostingSubsample(0.7),
			WithBoostingSeed(123),
		)
		if err := b.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		preds, err := b.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return preds
	}

	first := fit()
	second := fit()
	for i := 0; i < n; i++ {
		if first.At(i, 0) != second.At(i, 0) {
			t.Fatalf("sample %d: same seed produced different predictions: %v vs %v",
				i, first.At(i, 0), second.At(i, 0))
		}
	}
}

// TestBoosting_NTrees checks that one tree is grown per round.
func TestBoosting_NTrees(t *testing.T) {
	X := mat.NewDense(20, 1, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}

	b := NewBoosting(WithBoostingRounds(25), WithBoostingMinLeaf(2))
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if b.NTrees() != 25 {
		t.Errorf("expected 25 trees, got %d", b.NTrees())
	}
}

// TestBoosting_InvalidParams checks hyperparameter validation.
func TestBoosting_InvalidParams(t *testing.T) {
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i))
	}

	tests := []struct {
		name string
		b    *Boosting
	}{
		{"zero rounds", NewBoosting(WithBoostingRounds(0))},
		{"negative learning rate", NewBoosting(WithBoostingLearningRate(-0.1))},
		{"zero depth", NewBoosting(WithBoostingMaxDepth(0))},
		{"zero min leaf", NewBoosting(WithBoostingMinLeaf(0))},
		{"subsample above one", NewBoosting(WithBoostingSubsample(1.5))},
		{"zero subsample", NewBoosting(WithBoostingSubsample(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.b.Fit(X, y); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// TestBoosting_Predict_NotFitted checks the error on predicting before Fit.
func TestBoosting_Predict_NotFitted(t *testing.T) {
	b := NewBoosting()
	X := mat.NewDense(2, 1, nil)

	if _, err := b.Predict(X); err == nil {
		t.Fatal("expected error when predicting before Fit")
	}
}

// TestBoosting_Predict_DimensionMismatch checks feature-count validation.
func TestBoosting_Predict_DimensionMismatch(t *testing.T) {
	X := mat.NewDense(20, 2, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, float64(i))
	}

	b := NewBoosting(WithBoostingRounds(5), WithBoostingMinLeaf(2))
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XBad := mat.NewDense(5, 3, nil)
	if _, err := b.Predict(XBad); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
