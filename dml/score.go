package dml

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// Score selects the moment formula that turns nuisance residuals into the
// estimating equation ψ(W;θ,η) = ψ_a·θ + ψ_b.
type Score int

const (
	// ScorePartiallingOut uses the orthogonalized residual-on-residual form:
	// ψ_a = −(d−m̂)², ψ_b = (d−m̂)(y−ℓ̂).
	ScorePartiallingOut Score = iota + 1
	// ScoreIVType weights by the raw treatment instead of squaring the
	// residual: ψ_a = −d(d−m̂), ψ_b = (d−m̂)(y−ĝ).
	ScoreIVType
)

// String returns the conventional score name.
func (s Score) String() string {
	switch s {
	case ScorePartiallingOut:
		return "partialling out"
	case ScoreIVType:
		return "IV-type"
	default:
		return fmt.Sprintf("Score(%d)", int(s))
	}
}

// ParseScore maps a score name to its Score value. Recognized names are
// "partialling out" and "IV-type" (case-insensitive, hyphen/space variants
// accepted).
func ParseScore(name string) (Score, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "partialling out", "partialling-out", "po":
		return ScorePartiallingOut, nil
	case "iv-type", "iv type", "ivtype":
		return ScoreIVType, nil
	}
	return 0, errors.NewValidationError("score", `must be "partialling out" or "IV-type"`, name)
}

// Procedure selects how fold-level moments are pooled into one estimate.
// The two procedures are mathematically distinct and deliberately kept as
// separate code paths.
type Procedure int

const (
	// DML1 solves the estimating equation once per fold and averages the K
	// fold estimates.
	DML1 Procedure = iota + 1
	// DML2 solves the pooled estimating equation over all held-out
	// observations at once. Numerically steadier; the default.
	DML2
)

// String returns the conventional procedure name.
func (p Procedure) String() string {
	switch p {
	case DML1:
		return "dml1"
	case DML2:
		return "dml2"
	default:
		return fmt.Sprintf("Procedure(%d)", int(p))
	}
}

// ParseProcedure maps a procedure name to its Procedure value. Recognized
// names are "dml1" and "dml2" (case-insensitive).
func ParseProcedure(name string) (Procedure, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dml1", "1":
		return DML1, nil
	case "dml2", "2":
		return DML2, nil
	}
	return 0, errors.NewValidationError("procedure", `must be "dml1" or "dml2"`, name)
}

// jacobianTol is the threshold below which an empirical Jacobian |mean ψ_a|
// is treated as zero and the solve fails instead of dividing.
const jacobianTol = 1e-12

// scoreElements computes the per-observation score components from the
// out-of-fold nuisance predictions. The shifted predictions g are only read
// for the IV-type score.
func scoreElements(score Score, y, d, l, m, g []float64) (psiA, psiB []float64) {
	n := len(y)
	psiA = make([]float64, n)
	psiB = make([]float64, n)

	switch score {
	case ScoreIVType:
		for i := 0; i < n; i++ {
			resD := d[i] - m[i]
			psiA[i] = -d[i] * resD
			psiB[i] = resD * (y[i] - g[i])
		}
	default:
		for i := 0; i < n; i++ {
			resD := d[i] - m[i]
			psiA[i] = -resD * resD
			psiB[i] = resD * (y[i] - l[i])
		}
	}
	return psiA, psiB
}

// solveDML2 solves the pooled estimating equation Σψ_a·θ + Σψ_b = 0 over all
// observations.
func solveDML2(psiA, psiB []float64) (float64, error) {
	var sumA, sumB float64
	for i := range psiA {
		sumA += psiA[i]
		sumB += psiB[i]
	}

	n := float64(len(psiA))
	if math.Abs(sumA/n) < jacobianTol {
		return 0, errors.NewEstimationError("dml2", "empirical Jacobian is numerically zero", nil)
	}

	theta := -sumB / sumA
	if err := errors.CheckScalar("dml2", theta, 0); err != nil {
		return 0, err
	}
	return theta, nil
}

// solveDML1 solves the estimating equation separately on each fold's
// held-out observations and returns the mean of the fold estimates along
// with the per-fold estimates themselves.
func solveDML1(psiA, psiB []float64, folds []Fold) (float64, []float64, error) {
	foldThetas := make([]float64, len(folds))
	var sum float64

	for k, fold := range folds {
		var sumA, sumB float64
		for _, idx := range fold.Test {
			sumA += psiA[idx]
			sumB += psiB[idx]
		}
		if len(fold.Test) == 0 || math.Abs(sumA/float64(len(fold.Test))) < jacobianTol {
			return 0, nil, errors.NewEstimationError("dml1",
				fmt.Sprintf("empirical Jacobian is numerically zero in fold %d", k), nil)
		}
		foldThetas[k] = -sumB / sumA
		sum += foldThetas[k]
	}

	theta := sum / float64(len(folds))
	if err := errors.CheckScalar("dml1", theta, 0); err != nil {
		return 0, nil, err
	}
	return theta, foldThetas, nil
}

// varianceFromScore evaluates the score at the final estimate and returns
// the analytic standard error sqrt(mean(ψ²)/(J̄²·n)) together with the
// per-observation score values, which the multiplier bootstrap reuses.
func varianceFromScore(psiA, psiB []float64, theta float64) (float64, []float64, error) {
	n := len(psiA)
	psi := make([]float64, n)

	var jSum, psiSqSum float64
	for i := 0; i < n; i++ {
		psi[i] = psiA[i]*theta + psiB[i]
		jSum += psiA[i]
		psiSqSum += psi[i] * psi[i]
	}

	j := jSum / float64(n)
	if math.Abs(j) < jacobianTol {
		return 0, nil, errors.NewEstimationError("variance", "empirical Jacobian is numerically zero", nil)
	}

	sigma2 := (psiSqSum / float64(n)) / (j * j)
	se := math.Sqrt(sigma2 / float64(n))
	if err := errors.CheckScalar("variance", se, 0); err != nil {
		return 0, nil, err
	}
	return se, psi, nil
}
