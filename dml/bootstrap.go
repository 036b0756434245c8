package dml

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/YuminosukeSato/godml/core/parallel"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"github.com/YuminosukeSato/godml/pkg/log"
)

// BootstrapMethod selects the multiplier weight distribution of the score
// bootstrap. All three have zero mean and unit variance, so the resampled
// statistics share the asymptotic distribution of the originals.
type BootstrapMethod int

const (
	// BootstrapNormal draws Gaussian multipliers ξ ~ N(0,1).
	BootstrapNormal BootstrapMethod = iota + 1
	// BootstrapWild draws Rademacher multipliers ξ ∈ {−1,+1}.
	BootstrapWild
	// BootstrapBayes draws centered exponential multipliers ξ = E−1,
	// E ~ Exp(1), the Bayesian (Dirichlet-weight) bootstrap.
	BootstrapBayes
)

// String returns the conventional method name.
func (b BootstrapMethod) String() string {
	switch b {
	case BootstrapNormal:
		return "normal"
	case BootstrapWild:
		return "wild"
	case BootstrapBayes:
		return "Bayes"
	default:
		return fmt.Sprintf("BootstrapMethod(%d)", int(b))
	}
}

// ParseBootstrapMethod maps a method name to its BootstrapMethod value.
// Recognized names are "normal", "wild" and "Bayes" (case-insensitive).
func ParseBootstrapMethod(name string) (BootstrapMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal":
		return BootstrapNormal, nil
	case "wild":
		return BootstrapWild, nil
	case "bayes":
		return BootstrapBayes, nil
	}
	return 0, errors.NewValidationError("method", `must be "normal", "wild" or "Bayes"`, name)
}

// bootSeedOffset decorrelates the bootstrap PCG streams from the sample
// splitting streams, which are seeded from the same user seed.
const bootSeedOffset = 0x9e3779b97f4a7c15

// Bootstrap runs a multiplier bootstrap on the fitted score values and
// stores exactly nRep resampled coefficient deviations and t statistics per
// treatment, retrievable via BootCoefs and BootTStats. Draw m uses its own
// PCG stream seeded by (seed⊕offset, m), so results are reproducible and
// draws parallelize without coordination. One weight vector is shared by
// all treatments within a draw, which is what makes the joint max-|t|
// statistic of JointConfInt meaningful.
//
// With R > 1 repetitions, each observation's score is averaged across
// repetitions before weighting, keeping the draw count at exactly nRep.
func (m *PLR) Bootstrap(method BootstrapMethod, nRep int) (err error) {
	defer errors.Recover(&err, "PLR.Bootstrap")

	if rerr := m.state.RequireFitted(); rerr != nil {
		return errors.NewNotFittedError("PLR", "Bootstrap")
	}
	if method != BootstrapNormal && method != BootstrapWild && method != BootstrapBayes {
		return errors.NewValidationError("method", "unknown bootstrap method", int(method))
	}
	if nRep < 1 {
		return errors.NewValidationError("n_rep_boot", "must be at least 1", nRep)
	}

	logger := log.GetLoggerWithName("dml.bootstrap")
	start := time.Now()
	logger.Info("bootstrap started",
		log.OperationKey, log.OperationBootstrap,
		log.BootstrapMethodKey, method.String(),
		log.BootstrapDrawsKey, nRep,
		log.SeedKey, m.seed,
	)

	n := m.data.N()
	p := m.data.NumTreatments()

	// Per-observation scores averaged across repetitions, and the matching
	// aggregated Jacobians.
	psiBar := make([][]float64, p)
	jBar := make([]float64, p)
	for j := 0; j < p; j++ {
		psiBar[j] = make([]float64, n)
		for r := 0; r < m.nRep; r++ {
			for i := 0; i < n; i++ {
				psiBar[j][i] += m.psis[j][r][i]
			}
			for i := 0; i < n; i++ {
				jBar[j] += m.psiAs[j][r][i]
			}
		}
		for i := 0; i < n; i++ {
			psiBar[j][i] /= float64(m.nRep)
		}
		jBar[j] /= float64(m.nRep * n)
	}

	bootCoefs := make([][]float64, p)
	bootTStats := make([][]float64, p)
	for j := 0; j < p; j++ {
		bootCoefs[j] = make([]float64, nRep)
		bootTStats[j] = make([]float64, nRep)
	}

	// Each draw owns its own PCG stream, so the result is identical no matter
	// how the draws are chunked across goroutines.
	seed := uint64(m.seed) ^ bootSeedOffset
	drawRange := func(startDraw, endDraw int) {
		xi := make([]float64, n)
		for draw := startDraw; draw < endDraw; draw++ {
			rng := rand.New(rand.NewPCG(seed, uint64(draw)))
			drawWeights(rng, method, xi)
			for j := 0; j < p; j++ {
				var sum float64
				for i := 0; i < n; i++ {
					sum += xi[i] * psiBar[j][i]
				}
				coef := sum / (float64(n) * jBar[j])
				bootCoefs[j][draw] = coef
				bootTStats[j][draw] = coef / m.ses[j]
			}
		}
	}

	const parallelThreshold = 64
	if nRep <= parallelThreshold {
		drawRange(0, nRep)
	} else {
		parallel.ParallelizeN(nRep, m.workers, drawRange)
	}

	m.bootMethod = method
	m.bootCoefs = bootCoefs
	m.bootTStats = bootTStats

	logger.Info("bootstrap completed",
		log.OperationKey, log.OperationBootstrap,
		log.BootstrapDrawsKey, nRep,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// drawWeights fills out with one multiplier per observation.
func drawWeights(rng *rand.Rand, method BootstrapMethod, out []float64) {
	switch method {
	case BootstrapWild:
		for i := range out {
			if rng.Float64() < 0.5 {
				out[i] = -1
			} else {
				out[i] = 1
			}
		}
	case BootstrapBayes:
		for i := range out {
			out[i] = rng.ExpFloat64() - 1
		}
	default:
		for i := range out {
			out[i] = rng.NormFloat64()
		}
	}
}

// BootCoefs returns the resampled coefficient deviations around the point
// estimates, indexed [treatment][draw]. Nil before Bootstrap is called.
func (m *PLR) BootCoefs() [][]float64 {
	return copyMatrix(m.bootCoefs)
}

// BootTStats returns the resampled t statistics, indexed [treatment][draw].
// Nil before Bootstrap is called.
func (m *PLR) BootTStats() [][]float64 {
	return copyMatrix(m.bootTStats)
}
