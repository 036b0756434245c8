package dml

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/metrics"
	"github.com/YuminosukeSato/godml/pkg/errors"
)

// propensityClip bounds classifier treatment predictions away from 0 and 1.
const propensityClip = 1e-12

// nuisancePredictions collects the out-of-fold predictions of one
// (treatment, repetition) cross-fitting pass. Every value at index i was
// produced by a learner that never saw row i during fitting (except in the
// single-fold no-cross-fitting partition, where train and test coincide).
type nuisancePredictions struct {
	outcome   []float64 // ℓ̂(x) = E[Y|X]
	treatment []float64 // m̂(x) = E[D|X]
	shifted   []float64 // ĝ(x) = E[Y−θ̃D|X], IV-type only

	// shiftedTarget is the realized y−θ̃d the shifted learner was fitted
	// against, kept for diagnostics.
	shiftedTarget []float64

	// propensity marks treatment predictions obtained from PredictProba.
	propensity bool
}

// fitNuisances runs one cross-fitting pass for a single treatment column and
// repetition: for every fold, each nuisance learner is fitted on the fold's
// training rows only and predicts the held-out rows. Folds run concurrently
// up to the configured worker limit.
//
// 各フォールドの学習はそのフォールドの訓練行のみを参照する。ホールドアウト行が
// 学習に混入した場合は推定量の正しさが壊れるため、ここでの分離は性能最適化では
// なく正当性の要件である。
func (m *PLR) fitNuisances(x *mat.Dense, d []float64, dName string, folds []Fold, rep int) (*nuisancePredictions, error) {
	const op = "PLR.fitNuisances"

	y := m.data.y
	n := len(y)
	preds := &nuisancePredictions{
		outcome:   make([]float64, n),
		treatment: make([]float64, n),
	}
	if probe := m.learners.M(); probe != nil {
		_, preds.propensity = probe.(model.ProbabilityPredictor)
	}

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(m.workers)
	for k := range folds {
		fold := folds[k]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			xTrain := subsetRows(x, fold.Train)
			xTest := subsetRows(x, fold.Test)

			// Outcome nuisance ℓ̂.
			lHat, err := fitPredictFold(m.learners.L, xTrain, subsetColumn(y, fold.Train), xTest)
			if err != nil {
				return errors.NewEstimationError(op,
					fmt.Sprintf("outcome nuisance failed in fold %d of repetition %d", k, rep), err)
			}
			scatter(preds.outcome, fold.Test, lHat)

			// Treatment nuisance m̂.
			if preds.propensity {
				if constantOn(d, fold.Train) {
					return errors.NewDegenerateFoldError(k, rep, dName,
						"treatment is constant in the training folds; propensity cannot be estimated")
				}
				mHat, err := fitPredictPropensity(m.learners.M, xTrain, subsetColumn(d, fold.Train), xTest)
				if err != nil {
					return errors.NewEstimationError(op,
						fmt.Sprintf("treatment propensity failed in fold %d of repetition %d", k, rep), err)
				}
				scatter(preds.treatment, fold.Test, mHat)
			} else {
				mHat, err := fitPredictFold(m.learners.M, xTrain, subsetColumn(d, fold.Train), xTest)
				if err != nil {
					return errors.NewEstimationError(op,
						fmt.Sprintf("treatment nuisance failed in fold %d of repetition %d", k, rep), err)
				}
				scatter(preds.treatment, fold.Test, mHat)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if m.score == ScoreIVType {
		if err := m.fitShiftedNuisance(x, d, preds, folds, rep); err != nil {
			return nil, err
		}
	}
	return preds, nil
}

// fitShiftedNuisance adds the IV-type third nuisance ĝ(x) = E[Y−θ̃D|X].
// The shift uses a preliminary estimate θ̃ from this repetition's
// partialling-out residuals, so ĝ is fitted against y−θ̃d.
func (m *PLR) fitShiftedNuisance(x *mat.Dense, d []float64, preds *nuisancePredictions, folds []Fold, rep int) error {
	const op = "PLR.fitNuisances"

	y := m.data.y
	n := len(y)

	psiA, psiB := scoreElements(ScorePartiallingOut, y, d, preds.outcome, preds.treatment, nil)
	thetaPrelim, err := solveDML2(psiA, psiB)
	if err != nil {
		return errors.NewEstimationError(op,
			fmt.Sprintf("preliminary estimate for the shifted nuisance failed in repetition %d", rep), err)
	}

	target := make([]float64, n)
	for i := 0; i < n; i++ {
		target[i] = y[i] - thetaPrelim*d[i]
	}
	preds.shiftedTarget = target
	preds.shifted = make([]float64, n)

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(m.workers)
	for k := range folds {
		fold := folds[k]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gHat, err := fitPredictFold(m.learners.G,
				subsetRows(x, fold.Train), subsetColumn(target, fold.Train), subsetRows(x, fold.Test))
			if err != nil {
				return errors.NewEstimationError(op,
					fmt.Sprintf("shifted outcome nuisance failed in fold %d of repetition %d", k, rep), err)
			}
			scatter(preds.shifted, fold.Test, gHat)
			return nil
		})
	}
	return eg.Wait()
}

// fitPredictFold fits a fresh learner from the factory on the training data
// and returns its predictions on the test rows as a flat slice.
func fitPredictFold(factory model.LearnerFactory, xTrain, yTrain mat.Matrix, xTest mat.Matrix) ([]float64, error) {
	learner := factory()
	if learner == nil {
		return nil, errors.New("learner factory returned nil")
	}
	// Learners are caller-supplied and run on their own goroutine, where a
	// panic would escape the estimator's recovery. SafeExecute converts it
	// into an error the fold can return.
	var preds []float64
	err := errors.SafeExecute("crossfit fold", func() error {
		if err := learner.Fit(xTrain, yTrain); err != nil {
			return err
		}
		out, err := learner.Predict(xTest)
		if err != nil {
			return err
		}
		preds = flatten(out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// fitPredictPropensity fits a fresh classifier and returns the predicted
// probability of treatment (the positive class), clipped away from 0 and 1.
func fitPredictPropensity(factory model.LearnerFactory, xTrain, dTrain mat.Matrix, xTest mat.Matrix) ([]float64, error) {
	learner := factory()
	if learner == nil {
		return nil, errors.New("learner factory returned nil")
	}
	classifier, ok := learner.(model.ProbabilityPredictor)
	if !ok {
		return nil, errors.New("treatment learner lost its probability interface")
	}
	var probas mat.Matrix
	err := errors.SafeExecute("propensity fold", func() error {
		if err := learner.Fit(xTrain, dTrain); err != nil {
			return err
		}
		var perr error
		probas, perr = classifier.PredictProba(xTest)
		return perr
	})
	if err != nil {
		return nil, err
	}

	rows, cols := probas.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		// Last column is the positive class for ascending {0,1} labels.
		p := probas.At(i, cols-1)
		out[i] = errors.ClipValue(p, propensityClip, 1-propensityClip)
	}
	return out, nil
}

// nuisanceStats computes the out-of-fold diagnostics of one cross-fitting
// pass. Log loss is only defined for propensity predictions, the shifted
// RMSE only for the IV-type score; the unused entries stay NaN.
func (m *PLR) nuisanceStats(dName string, rep int, d []float64, preds *nuisancePredictions) (NuisanceStats, error) {
	stats := NuisanceStats{
		Treatment:          dName,
		Repetition:         rep,
		TreatmentLogLoss:   math.NaN(),
		ShiftedOutcomeRMSE: math.NaN(),
	}

	var err error
	stats.OutcomeRMSE, err = metrics.RMSESlice(m.data.y, preds.outcome)
	if err != nil {
		return stats, err
	}
	stats.TreatmentRMSE, err = metrics.RMSESlice(d, preds.treatment)
	if err != nil {
		return stats, err
	}
	if preds.propensity {
		stats.TreatmentLogLoss, err = metrics.LogLoss(d, preds.treatment)
		if err != nil {
			return stats, err
		}
	}
	if preds.shifted != nil {
		stats.ShiftedOutcomeRMSE, err = metrics.RMSESlice(preds.shiftedTarget, preds.shifted)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// subsetRows gathers the given rows of x into a new dense matrix.
func subsetRows(x mat.Matrix, rows []int) *mat.Dense {
	_, c := x.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(r, j))
		}
	}
	return out
}

// subsetColumn gathers the given entries of v into a single-column matrix.
func subsetColumn(v []float64, rows []int) *mat.Dense {
	out := mat.NewDense(len(rows), 1, nil)
	for i, r := range rows {
		out.Set(i, 0, v[r])
	}
	return out
}

// scatter writes values into dst at the given indices.
func scatter(dst []float64, indices []int, values []float64) {
	for i, idx := range indices {
		dst[idx] = values[i]
	}
}

// flatten reads a single-column prediction matrix into a slice.
func flatten(m mat.Matrix) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out
}

// constantOn reports whether v is constant on the given indices.
func constantOn(v []float64, indices []int) bool {
	if len(indices) == 0 {
		return true
	}
	first := v[indices[0]]
	for _, idx := range indices[1:] {
		if v[idx] != first {
			return false
		}
	}
	return true
}
