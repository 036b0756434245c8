// Package log defines standard attribute keys for double machine learning runs.
//
// Every log line in godml draws its field names from this catalog, so a
// fit, a bootstrap, and a failed fold can all be filtered and joined on
// the same keys downstream.
//
// The keys are grouped by concern:
//   - Model and operation
//   - Data shape
//   - Resampling Context
//   - Estimation Results and Performance
//   - Error reporting
//
// Names are hierarchical ("model.name", "data.samples"), matching how
// structured log pipelines index fields.
package log

// Model and operation
// Which model, which configuration, and which entry point emitted the line.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "PLR", "Ridge", "GradientBoosting"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "bootstrap", "conf_int", "predict", "transform"
	OperationKey = "dml.operation"

	// ComponentKey names the package a line originates from.
	// Examples: "dml", "learner", "preprocessing", "metrics"
	ComponentKey = "dml.component"

	// ScoreKey names the orthogonal score function in use.
	// Standard values: "partialling out", "IV-type"
	ScoreKey = "dml.score"

	// ProcedureKey names the estimation procedure in use.
	// Standard values: "dml1", "dml2"
	ProcedureKey = "dml.procedure"

	// TreatmentKey names the treatment variable a log line refers to.
	TreatmentKey = "dml.treatment"

	// LearnerKey names the nuisance learner a log line refers to.
	// Examples: "ml_l", "ml_m", "ml_g"
	LearnerKey = "dml.learner"
)

// Data shape
// Dimensions of the dataset an operation ran on.
const (
	// SamplesKey indicates the number of observations (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of covariates (columns) in the dataset.
	FeaturesKey = "data.features"

	// TreatmentsKey indicates the number of treatment variables.
	TreatmentsKey = "data.treatments"

	// ClustersKey indicates the number of distinct clusters when
	// cluster-aware sample splitting is used.
	ClustersKey = "data.clusters"
)

// Resampling Context
// These attributes describe the sample splitting and bootstrap configuration.
const (
	// FoldsKey indicates the number of cross-fitting folds per repetition.
	FoldsKey = "resampling.folds"

	// FoldKey indicates a single fold index, used in per-fold log lines.
	FoldKey = "resampling.fold"

	// RepetitionsKey indicates the number of sample-splitting repetitions.
	RepetitionsKey = "resampling.repetitions"

	// RepetitionKey indicates a single repetition index.
	RepetitionKey = "resampling.repetition"

	// SeedKey records the random seed for reproducibility.
	SeedKey = "resampling.seed"

	// BootstrapMethodKey names the multiplier weight scheme.
	// Standard values: "normal", "wild", "Bayes"
	BootstrapMethodKey = "bootstrap.method"

	// BootstrapDrawsKey indicates the number of bootstrap replications.
	BootstrapDrawsKey = "bootstrap.draws"
)

// Estimation Results and Performance
// These attributes capture coefficient estimates, diagnostics, and timing.
const (
	// CoefKey records a point estimate of a treatment coefficient.
	CoefKey = "result.coef"

	// SEKey records the standard error of a coefficient.
	SEKey = "result.se"

	// TStatKey records the t-statistic of a coefficient.
	TStatKey = "result.t_stat"

	// PValueKey records the two-sided p-value of a coefficient.
	PValueKey = "result.p_value"

	// RMSEKey records the out-of-fold root mean squared error of a
	// nuisance learner.
	RMSEKey = "diagnostics.rmse"

	// LogLossKey records the out-of-fold log loss of a propensity learner.
	LogLossKey = "diagnostics.log_loss"

	// DurationMsKey is the wall-clock time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey is the wall-clock time in seconds, for long runs.
	DurationSecondsKey = "perf.duration_seconds"

	// IterationKey is the solver iteration a line was emitted at.
	IterationKey = "training.iteration"
)

// Error reporting
// Structured context attached to error and warning lines.
const (
	// ErrorCodeKey carries a machine-readable error code.
	// Examples: "DEGENERATE_FOLD", "NOT_FITTED", "CONVERGENCE_FAILURE"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey carries the concrete error type name.
	// Examples: "ValidationError", "DataError", "EstimationError"
	ErrorTypeKey = "error.type"

	// SuggestionKey carries a remediation hint for the operator.
	// Examples: "Check treatment variation", "Increase max_iterations"
	SuggestionKey = "error.suggestion"
)

// Conventional values for OperationKey and ErrorCodeKey. Emitters use these
// instead of ad hoc strings so downstream filters stay stable.
const (
	// OperationKey values
	OperationFit          = "fit"
	OperationBootstrap    = "bootstrap"
	OperationConfInt      = "conf_int"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"

	// ErrorCodeKey values
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorDegenerateFold    = "DEGENERATE_FOLD"
)
