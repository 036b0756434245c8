package datasets

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// JobTrainingEffect is the true effect of the training program on annual
// earnings (in thousands) embedded in the JobTraining simulation.
const JobTrainingEffect = 4.0

// JobTraining simulates an observational job training study with n workers.
// Enrollment is confounded: younger, better educated and lower-earning
// workers select into the program, so the naive earnings gap between
// enrolled and not enrolled is a biased estimate of JobTrainingEffect.
//
// Columns:
//
//	earnings      post-program annual earnings, thousands (outcome)
//	training      program enrollment indicator, 0/1 (treatment)
//	age           years
//	education     years of schooling
//	experience    years of labor market experience
//	prev_earnings pre-program annual earnings, thousands
//	married       indicator, 0/1
func JobTraining(n int, seed int64) (*Dataset, error) {
	if n < 1 {
		return nil, errors.NewValidationError("n", "must be positive", n)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1))

	earnings := make([]float64, n)
	training := make([]float64, n)
	age := make([]float64, n)
	education := make([]float64, n)
	experience := make([]float64, n)
	prevEarnings := make([]float64, n)
	married := make([]float64, n)

	for i := 0; i < n; i++ {
		a := 22 + 38*rng.Float64()
		educ := clamp(math.Round(13+2.5*rng.NormFloat64()), 8, 20)
		exper := math.Max(0, a-educ-6+2*rng.NormFloat64())
		var mar float64
		if rng.Float64() < logistic((a-32)/12) {
			mar = 1
		}
		prev := math.Max(0, -14+2.1*educ+0.75*exper-0.011*exper*exper+3*mar+7*rng.NormFloat64())

		// Selection into the program.
		enrollLogit := 0.4 - 0.035*(a-40) + 0.12*(educ-13) - 0.03*(prev-30)
		var train float64
		if rng.Float64() < logistic(enrollLogit) {
			train = 1
		}

		earn := 6 + 0.8*prev + JobTrainingEffect*train +
			0.55*educ + 0.18*exper + 1.6*mar + 5*rng.NormFloat64()

		age[i] = a
		education[i] = educ
		experience[i] = exper
		married[i] = mar
		prevEarnings[i] = prev
		training[i] = train
		earnings[i] = earn
	}

	return NewDataset(
		[]string{"earnings", "training", "age", "education", "experience", "prev_earnings", "married"},
		[][]float64{earnings, training, age, education, experience, prevEarnings, married},
	)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
