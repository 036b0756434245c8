package dml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/godml/pkg/errors"
	"github.com/YuminosukeSato/godml/pkg/log"
)

// Interval is one two-sided confidence interval.
type Interval struct {
	Lower float64
	Upper float64
}

// ConfInt returns pointwise confidence intervals at the given level, one per
// treatment, from the normal approximation θ̂ ± z·SE.
func (m *PLR) ConfInt(level float64) ([]Interval, error) {
	if err := m.state.RequireFitted(); err != nil {
		return nil, errors.NewNotFittedError("PLR", "ConfInt")
	}
	if level <= 0 || level >= 1 {
		return nil, errors.NewValidationError("level", "must be strictly between 0 and 1", level)
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	out := make([]Interval, len(m.coefs))
	for j := range m.coefs {
		half := z * m.ses[j]
		out[j] = Interval{Lower: m.coefs[j] - half, Upper: m.coefs[j] + half}
	}

	log.GetLoggerWithName("dml.inference").Debug("pointwise intervals computed",
		log.OperationKey, log.OperationConfInt,
		"level", level,
	)
	return out, nil
}

// JointConfInt returns simultaneous confidence intervals over all treatments
// at the given level. The common critical value is the level-quantile of the
// bootstrap max-|t| distribution, so the intervals cover all coefficients
// jointly. Requires a prior Bootstrap call.
func (m *PLR) JointConfInt(level float64) ([]Interval, error) {
	if err := m.state.RequireFitted(); err != nil {
		return nil, errors.NewNotFittedError("PLR", "JointConfInt")
	}
	if level <= 0 || level >= 1 {
		return nil, errors.NewValidationError("level", "must be strictly between 0 and 1", level)
	}
	if m.bootTStats == nil {
		return nil, errors.NewValueError("PLR.JointConfInt",
			"joint intervals require resampled statistics; call Bootstrap first")
	}

	draws := len(m.bootTStats[0])
	maxT := make([]float64, draws)
	for d := 0; d < draws; d++ {
		best := 0.0
		for j := range m.bootTStats {
			if a := math.Abs(m.bootTStats[j][d]); a > best {
				best = a
			}
		}
		maxT[d] = best
	}
	sort.Float64s(maxT)
	c := stat.Quantile(level, stat.Empirical, maxT, nil)

	out := make([]Interval, len(m.coefs))
	for j := range m.coefs {
		half := c * m.ses[j]
		out[j] = Interval{Lower: m.coefs[j] - half, Upper: m.coefs[j] + half}
	}

	log.GetLoggerWithName("dml.inference").Debug("joint intervals computed",
		log.OperationKey, log.OperationConfInt,
		log.BootstrapMethodKey, m.bootMethod.String(),
		"level", level,
		"critical_value", c,
	)
	return out, nil
}

// median returns the midpoint median of values.
func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	h := len(s) / 2
	if len(s)%2 == 1 {
		return s[h]
	}
	return (s[h-1] + s[h]) / 2
}
