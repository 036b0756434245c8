package dml

import (
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"github.com/YuminosukeSato/godml/pkg/log"
)

// Learners supplies the nuisance learner factories of a partially linear
// model. Factories, not instances: cross-fitting fits a fresh learner per
// fold and never shares fitted state between folds.
//
//	L: outcome nuisance ℓ̂(x) = E[Y|X]; always required.
//	M: treatment nuisance m̂(x) = E[D|X]; always required. A factory whose
//	   learners implement model.ProbabilityPredictor estimates the
//	   propensity P(D=1|X) instead, and requires binary treatments.
//	G: shifted outcome nuisance ĝ(x) = E[Y−θD|X]; required by the IV-type
//	   score and rejected otherwise.
type Learners struct {
	L model.LearnerFactory
	M model.LearnerFactory
	G model.LearnerFactory
}

// NuisanceStats holds the out-of-fold fit quality of one (treatment,
// repetition) cross-fitting pass. Entries that do not apply (log loss for a
// regression treatment nuisance, shifted RMSE outside the IV-type score)
// are NaN.
type NuisanceStats struct {
	Treatment  string
	Repetition int

	OutcomeRMSE        float64 // ℓ̂ against y
	TreatmentRMSE      float64 // m̂ against d
	TreatmentLogLoss   float64 // propensity m̂ against d
	ShiftedOutcomeRMSE float64 // ĝ against y−θ̃d
}

// PLR estimates the causal parameter θ of a partially linear regression
//
//	Y = θ·D + g(X) + ζ,   D = m(X) + V
//
// by double/debiased machine learning: the nuisance functions are estimated
// by cross-fitted machine learners, their out-of-fold residuals enter a
// Neyman-orthogonal score, and the score's root is the estimate. Repeated
// cross-fitting, analytic and multiplier-bootstrap inference, and joint
// confidence intervals over multiple treatments are supported.
//
// Construct with NewPLR (all configuration errors are reported there), then
// call Fit, optionally Bootstrap, and read the results through the
// accessors, ConfInt/JointConfInt and Summary.
type PLR struct {
	state *model.StateManager

	data     *Data
	learners Learners

	nFolds            int
	nRep              int
	score             Score
	procedure         Procedure
	seed              int64
	workers           int
	applyCrossFitting bool

	// folds[r] holds repetition r's partition; nil until drawn or supplied.
	folds [][]Fold

	// Aggregated results, one entry per treatment.
	coefs, ses, ts, ps []float64

	// Per-repetition intermediates, indexed [treatment][repetition].
	allCoefs, allSEs [][]float64

	// Per-fold estimates, indexed [treatment][repetition][fold].
	// Only populated by DML1.
	foldCoefs [][][]float64

	// Score values and Jacobian components at the final per-rep estimates,
	// indexed [treatment][repetition][observation]. The multiplier
	// bootstrap resamples these.
	psis, psiAs [][][]float64

	stats []NuisanceStats

	bootMethod BootstrapMethod
	bootCoefs  [][]float64
	bootTStats [][]float64
}

// plrConfig collects the optional settings of NewPLR.
type plrConfig struct {
	nFolds        int
	nRep          int
	score         Score
	procedure     Procedure
	seed          int64
	workers       int
	drawSplitting bool
	crossFit      *bool
}

// PLROption is a functional option for NewPLR.
type PLROption func(*plrConfig)

// WithFolds sets the number of cross-fitting folds K (default 5).
func WithFolds(k int) PLROption {
	return func(c *plrConfig) {
		c.nFolds = k
	}
}

// WithRepetitions sets the number of cross-fitting repetitions R
// (default 1). With R > 1 the final estimate is the median of the
// per-repetition estimates.
func WithRepetitions(r int) PLROption {
	return func(c *plrConfig) {
		c.nRep = r
	}
}

// WithScore selects the score formula (default ScorePartiallingOut).
func WithScore(s Score) PLROption {
	return func(c *plrConfig) {
		c.score = s
	}
}

// WithProcedure selects the pooling procedure (default DML2).
func WithProcedure(p Procedure) PLROption {
	return func(c *plrConfig) {
		c.procedure = p
	}
}

// WithSeed sets the seed for sample splitting and the bootstrap (default 42).
func WithSeed(seed int64) PLROption {
	return func(c *plrConfig) {
		c.seed = seed
	}
}

// WithWorkers bounds the number of concurrent fold fits (default GOMAXPROCS).
func WithWorkers(n int) PLROption {
	return func(c *plrConfig) {
		c.workers = n
	}
}

// WithDrawSampleSplitting controls whether NewPLR draws the sample splits
// itself (default true). When disabled, SetSampleSplitting must be called
// before Fit.
func WithDrawSampleSplitting(draw bool) PLROption {
	return func(c *plrConfig) {
		c.drawSplitting = draw
	}
}

// WithCrossFitting makes the cross-fitting choice explicit. Cross-fitting
// requires at least two folds; disabling it requires exactly one fold
// (train and test both cover all rows). Left unset, the choice follows the
// fold count.
func WithCrossFitting(apply bool) PLROption {
	return func(c *plrConfig) {
		c.crossFit = &apply
	}
}

// NewPLR builds a partially linear model estimator. Every configuration and
// data error (unknown score or procedure, impossible fold counts, missing
// learners, a classifier treatment learner on a non-binary treatment) is
// reported here, before any fitting work starts.
func NewPLR(data *Data, learners Learners, opts ...PLROption) (*PLR, error) {
	const op = "dml.NewPLR"

	if data == nil {
		return nil, errors.NewValueError(op, "data must not be nil")
	}

	cfg := plrConfig{
		nFolds:        5,
		nRep:          1,
		score:         ScorePartiallingOut,
		procedure:     DML2,
		seed:          42,
		workers:       runtime.GOMAXPROCS(0),
		drawSplitting: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.score != ScorePartiallingOut && cfg.score != ScoreIVType {
		return nil, errors.NewValidationError("score", "unknown score", int(cfg.score))
	}
	if cfg.procedure != DML1 && cfg.procedure != DML2 {
		return nil, errors.NewValidationError("procedure", "unknown procedure", int(cfg.procedure))
	}
	if cfg.nFolds < 1 {
		return nil, errors.NewValidationError("folds", "must be at least 1", cfg.nFolds)
	}
	if cfg.nFolds > data.N() {
		return nil, errors.NewValidationError("folds", "cannot exceed the number of observations", cfg.nFolds)
	}
	if cfg.nRep < 1 {
		return nil, errors.NewValidationError("repetitions", "must be at least 1", cfg.nRep)
	}
	if cfg.workers < 1 {
		return nil, errors.NewValidationError("workers", "must be at least 1", cfg.workers)
	}
	if cfg.crossFit != nil {
		if *cfg.crossFit && cfg.nFolds == 1 {
			return nil, errors.NewValidationError("apply_cross_fitting", "cross-fitting requires at least two folds", cfg.nFolds)
		}
		if !*cfg.crossFit && cfg.nFolds != 1 {
			return nil, errors.NewValidationError("apply_cross_fitting", "disabling cross-fitting requires exactly one fold", cfg.nFolds)
		}
	}

	if learners.L == nil {
		return nil, errors.NewValidationError("learners.L", "outcome learner factory is required", nil)
	}
	if learners.M == nil {
		return nil, errors.NewValidationError("learners.M", "treatment learner factory is required", nil)
	}
	switch cfg.score {
	case ScoreIVType:
		if learners.G == nil {
			return nil, errors.NewValidationError("learners.G", "the IV-type score requires a shifted outcome learner", nil)
		}
	default:
		if learners.G != nil {
			return nil, errors.NewValidationError("learners.G", "only the IV-type score uses a shifted outcome learner", nil)
		}
	}

	// Probe the factories once: they must produce learners, and a classifier
	// treatment learner only makes sense for binary treatments.
	if probe := learners.L(); probe == nil {
		return nil, errors.NewValidationError("learners.L", "factory returned nil", nil)
	}
	mProbe := learners.M()
	if mProbe == nil {
		return nil, errors.NewValidationError("learners.M", "factory returned nil", nil)
	}
	if _, isClassifier := mProbe.(model.ProbabilityPredictor); isClassifier {
		for j := 0; j < data.NumTreatments(); j++ {
			if !data.IsBinaryTreatment(j) {
				return nil, errors.NewDataError(op, data.dNames[j],
					"treatment must take the values 0 and 1 when the treatment learner is a classifier")
			}
		}
	}
	if learners.G != nil {
		if probe := learners.G(); probe == nil {
			return nil, errors.NewValidationError("learners.G", "factory returned nil", nil)
		}
	}

	m := &PLR{
		state:             model.NewStateManager(),
		data:              data,
		learners:          learners,
		nFolds:            cfg.nFolds,
		nRep:              cfg.nRep,
		score:             cfg.score,
		procedure:         cfg.procedure,
		seed:              cfg.seed,
		workers:           cfg.workers,
		applyCrossFitting: cfg.nFolds > 1,
	}

	if cfg.drawSplitting {
		var folds [][]Fold
		var err error
		if data.HasClusters() {
			folds, err = ClusterKFolds(data.clusters, cfg.nFolds, cfg.nRep, cfg.seed)
		} else {
			folds, err = KFolds(data.N(), cfg.nFolds, cfg.nRep, cfg.seed)
		}
		if err != nil {
			return nil, err
		}
		m.folds = folds
	}

	return m, nil
}

// SetSampleSplitting replaces the sample splits with externally supplied
// folds. The fold count and repetition count are taken from the supplied
// partition. Any previous fit results are discarded.
func (m *PLR) SetSampleSplitting(folds [][]Fold) error {
	if err := validateSampleSplitting(folds, m.data.N()); err != nil {
		return err
	}
	m.folds = folds
	m.nRep = len(folds)
	m.nFolds = len(folds[0])
	m.applyCrossFitting = m.nFolds > 1
	m.state.Reset()
	m.clearResults()
	return nil
}

// clearResults drops all estimation and bootstrap output.
func (m *PLR) clearResults() {
	m.coefs, m.ses, m.ts, m.ps = nil, nil, nil, nil
	m.allCoefs, m.allSEs = nil, nil
	m.foldCoefs = nil
	m.psis, m.psiAs = nil, nil
	m.stats = nil
	m.bootMethod = 0
	m.bootCoefs, m.bootTStats = nil, nil
}

// Fit runs the full estimation: cross-fitted nuisance estimation per
// treatment and repetition, score solving under the configured procedure,
// and aggregation of the repetition estimates. On success the coefficient,
// standard error, t statistic and p-value accessors are populated; on any
// estimation failure the model transitions to the Failed state and no
// partial results are kept.
func (m *PLR) Fit() (err error) {
	if berr := m.state.BeginFit(); berr != nil {
		return errors.NewValueError("PLR.Fit", berr.Error())
	}
	defer func() {
		if err != nil {
			m.state.FailFit()
			m.clearResults()
		} else {
			m.state.CompleteFit()
		}
	}()
	defer errors.Recover(&err, "PLR.Fit")

	if m.folds == nil {
		return errors.NewValueError("PLR.Fit",
			"sample splitting has not been drawn; enable sample splitting or call SetSampleSplitting")
	}

	logger := log.GetLoggerWithName("dml.plr")
	start := time.Now()
	logger.Info("fit started",
		log.ModelNameKey, "PLR",
		log.OperationKey, log.OperationFit,
		log.ScoreKey, m.score.String(),
		log.ProcedureKey, m.procedure.String(),
		log.FoldsKey, m.nFolds,
		log.RepetitionsKey, m.nRep,
		log.SamplesKey, m.data.N(),
		log.FeaturesKey, m.data.NumCovariates(),
		log.TreatmentsKey, m.data.NumTreatments(),
		log.SeedKey, m.seed,
	)

	p := m.data.NumTreatments()
	m.clearResults()
	m.coefs = make([]float64, p)
	m.ses = make([]float64, p)
	m.ts = make([]float64, p)
	m.ps = make([]float64, p)
	m.allCoefs = make([][]float64, p)
	m.allSEs = make([][]float64, p)
	m.psis = make([][][]float64, p)
	m.psiAs = make([][][]float64, p)
	if m.procedure == DML1 {
		m.foldCoefs = make([][][]float64, p)
	}

	for j := 0; j < p; j++ {
		x := m.data.xFor(j)
		d := m.data.treatmentColumn(j)
		name := m.data.dNames[j]

		m.allCoefs[j] = make([]float64, m.nRep)
		m.allSEs[j] = make([]float64, m.nRep)
		m.psis[j] = make([][]float64, m.nRep)
		m.psiAs[j] = make([][]float64, m.nRep)
		if m.procedure == DML1 {
			m.foldCoefs[j] = make([][]float64, m.nRep)
		}

		for r := 0; r < m.nRep; r++ {
			preds, ferr := m.fitNuisances(x, d, name, m.folds[r], r)
			if ferr != nil {
				return ferr
			}

			psiA, psiB := scoreElements(m.score, m.data.y, d, preds.outcome, preds.treatment, preds.shifted)

			var theta float64
			switch m.procedure {
			case DML1:
				var foldThetas []float64
				theta, foldThetas, ferr = solveDML1(psiA, psiB, m.folds[r])
				if ferr != nil {
					return ferr
				}
				m.foldCoefs[j][r] = foldThetas
			default:
				theta, ferr = solveDML2(psiA, psiB)
				if ferr != nil {
					return ferr
				}
			}

			se, psi, verr := varianceFromScore(psiA, psiB, theta)
			if verr != nil {
				return verr
			}

			m.allCoefs[j][r] = theta
			m.allSEs[j][r] = se
			m.psis[j][r] = psi
			m.psiAs[j][r] = psiA

			stat, serr := m.nuisanceStats(name, r, d, preds)
			if serr != nil {
				return serr
			}
			m.stats = append(m.stats, stat)

			logger.Debug("repetition finished",
				log.TreatmentKey, name,
				log.RepetitionKey, r,
				log.CoefKey, theta,
				log.SEKey, se,
			)
		}

		coef, se := aggregateEstimates(m.allCoefs[j], m.allSEs[j])
		m.coefs[j] = coef
		m.ses[j] = se
		m.ts[j] = coef / se
		m.ps[j] = 2 * distuv.UnitNormal.Survival(math.Abs(m.ts[j]))

		logger.Info("treatment estimated",
			log.TreatmentKey, name,
			log.CoefKey, coef,
			log.SEKey, se,
			log.TStatKey, m.ts[j],
			log.PValueKey, m.ps[j],
		)
	}

	logger.Info("fit completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// aggregateEstimates combines per-repetition estimates: the point estimate
// is the median, and the variance receives the repeated-cross-fitting
// correction median(se_r² + (θ_r − θ̂)²) that accounts for the spread of
// the repetition estimates. With one repetition both reduce to that
// repetition's values.
func aggregateEstimates(coefs, ses []float64) (coef, se float64) {
	coef = median(coefs)
	corrected := make([]float64, len(ses))
	for r := range ses {
		dev := coefs[r] - coef
		corrected[r] = ses[r]*ses[r] + dev*dev
	}
	return coef, math.Sqrt(median(corrected))
}

// IsFitted reports whether Fit has completed successfully.
func (m *PLR) IsFitted() bool {
	return m.state.IsFitted()
}

// State returns the model's lifecycle state.
func (m *PLR) State() model.EstimatorState {
	return m.state.State()
}

// TreatmentNames returns the treatment column names, in coefficient order.
func (m *PLR) TreatmentNames() []string {
	return m.data.TreatmentNames()
}

// Coefficients returns the estimated causal parameters, one per treatment.
func (m *PLR) Coefficients() []float64 {
	return copyVector(m.coefs)
}

// StdErrs returns the standard errors, one per treatment.
func (m *PLR) StdErrs() []float64 {
	return copyVector(m.ses)
}

// TStats returns the t statistics, one per treatment.
func (m *PLR) TStats() []float64 {
	return copyVector(m.ts)
}

// PValues returns the two-sided p-values, one per treatment.
func (m *PLR) PValues() []float64 {
	return copyVector(m.ps)
}

// AllCoefficients returns the per-repetition estimates,
// indexed [treatment][repetition].
func (m *PLR) AllCoefficients() [][]float64 {
	return copyMatrix(m.allCoefs)
}

// AllStdErrs returns the per-repetition standard errors,
// indexed [treatment][repetition].
func (m *PLR) AllStdErrs() [][]float64 {
	return copyMatrix(m.allSEs)
}

// FoldEstimates returns the per-fold estimates,
// indexed [treatment][repetition][fold]. Nil unless the procedure is DML1.
func (m *PLR) FoldEstimates() [][][]float64 {
	if m.foldCoefs == nil {
		return nil
	}
	out := make([][][]float64, len(m.foldCoefs))
	for j := range m.foldCoefs {
		out[j] = copyMatrix(m.foldCoefs[j])
	}
	return out
}

// NuisanceDiagnostics returns the out-of-fold fit quality of every
// (treatment, repetition) cross-fitting pass, in fit order.
func (m *PLR) NuisanceDiagnostics() []NuisanceStats {
	out := make([]NuisanceStats, len(m.stats))
	copy(out, m.stats)
	return out
}

// NumFolds returns the fold count K.
func (m *PLR) NumFolds() int {
	return m.nFolds
}

// NumRepetitions returns the repetition count R.
func (m *PLR) NumRepetitions() int {
	return m.nRep
}

// SampleSplitting returns the drawn or supplied folds, indexed
// [repetition][fold], or nil if splitting has not been set.
func (m *PLR) SampleSplitting() [][]Fold {
	if m.folds == nil {
		return nil
	}
	out := make([][]Fold, len(m.folds))
	for r, rep := range m.folds {
		out[r] = make([]Fold, len(rep))
		for k, fold := range rep {
			out[r][k] = Fold{
				Train: append([]int(nil), fold.Train...),
				Test:  append([]int(nil), fold.Test...),
			}
		}
	}
	return out
}

func copyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = copyVector(m[i])
	}
	return out
}
