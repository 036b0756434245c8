package datasets

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// makePLRConfig collects the generator settings of MakePLR.
type makePLRConfig struct {
	effect     float64
	covariates int
	seed       int64
	confounded bool
	binary     bool
	noise      float64
}

// MakePLROption is a functional option for MakePLR.
type MakePLROption func(*makePLRConfig)

// WithEffect sets the true treatment effect θ (default 0.5).
func WithEffect(theta float64) MakePLROption {
	return func(c *makePLRConfig) {
		c.effect = theta
	}
}

// WithCovariates sets the number of covariate columns (default 20, at
// least 3).
func WithCovariates(k int) MakePLROption {
	return func(c *makePLRConfig) {
		c.covariates = k
	}
}

// WithSeed sets the generator seed (default 42).
func WithSeed(seed int64) MakePLROption {
	return func(c *makePLRConfig) {
		c.seed = seed
	}
}

// WithConfounding toggles whether the covariates drive the treatment
// (default true). Without confounding the treatment is independent noise,
// which makes the effect recoverable even by naive regression; with it, the
// orthogonalization is doing real work.
func WithConfounding(confounded bool) MakePLROption {
	return func(c *makePLRConfig) {
		c.confounded = confounded
	}
}

// WithBinaryTreatment makes the treatment a 0/1 indicator drawn from a
// logistic propensity (default false, continuous treatment).
func WithBinaryTreatment(binary bool) MakePLROption {
	return func(c *makePLRConfig) {
		c.binary = binary
	}
}

// WithNoise sets the outcome noise standard deviation (default 1.0).
func WithNoise(sd float64) MakePLROption {
	return func(c *makePLRConfig) {
		c.noise = sd
	}
}

// MakePLR simulates a partially linear data set
//
//	y = θ·d + g(x) + ζ,   d = m(x) + v
//
// with AR(1)-correlated standard normal covariates (corr 0.7^|j−k|),
// a nonlinear treatment signal m(x) = x₁ + 0.25·σ(x₃) and outcome signal
// g(x) = σ(x₁) + 0.25·x₃, where σ is the logistic function. Columns are
// named "y", "d", "x1".."xk". The data is suitable for checking an estimator
// against the known effect θ.
func MakePLR(n int, opts ...MakePLROption) (*Dataset, error) {
	const op = "datasets.MakePLR"

	cfg := makePLRConfig{
		effect:     0.5,
		covariates: 20,
		seed:       42,
		confounded: true,
		noise:      1.0,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if n < 1 {
		return nil, errors.NewValidationError("n", "must be positive", n)
	}
	if cfg.covariates < 3 {
		return nil, errors.NewValidationError("covariates", "must be at least 3", cfg.covariates)
	}
	if cfg.noise <= 0 {
		return nil, errors.NewValidationError("noise", "must be positive", cfg.noise)
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.seed), uint64(cfg.seed)>>1))
	k := cfg.covariates

	// AR(1) innovation scale keeps every covariate marginally standard
	// normal.
	arScale := math.Sqrt(1 - 0.7*0.7)

	x := make([][]float64, k)
	for j := range x {
		x[j] = make([]float64, n)
	}
	d := make([]float64, n)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		prev := rng.NormFloat64()
		x[0][i] = prev
		for j := 1; j < k; j++ {
			prev = 0.7*prev + arScale*rng.NormFloat64()
			x[j][i] = prev
		}

		m0 := x[0][i] + 0.25*logistic(x[2][i])
		g0 := logistic(x[0][i]) + 0.25*x[2][i]

		switch {
		case cfg.binary && cfg.confounded:
			if rng.Float64() < logistic(m0) {
				d[i] = 1
			}
		case cfg.binary:
			if rng.Float64() < 0.5 {
				d[i] = 1
			}
		case cfg.confounded:
			d[i] = m0 + rng.NormFloat64()
		default:
			d[i] = rng.NormFloat64()
		}

		y[i] = cfg.effect*d[i] + g0 + cfg.noise*rng.NormFloat64()
	}

	names := make([]string, 0, k+2)
	cols := make([][]float64, 0, k+2)
	names = append(names, "y", "d")
	cols = append(cols, y, d)
	for j := 0; j < k; j++ {
		names = append(names, fmt.Sprintf("x%d", j+1))
		cols = append(cols, x[j])
	}
	return NewDataset(names, cols)
}

// logistic is the standard logistic function.
func logistic(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
