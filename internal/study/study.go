// Package study defines the YAML study file consumed by the godml CLI. A
// study file bundles everything one estimation run needs: the data source
// with its column roles, the model configuration, and optional bootstrap and
// inference settings.
package study

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// Default model settings applied by Load when the study file leaves them out.
const (
	DefaultFolds     = 5
	DefaultReps      = 1
	DefaultScore     = "partialling out"
	DefaultProcedure = "dml2"
	DefaultSeed      = 42
	DefaultLearner   = "ridge"
	DefaultLevel     = 0.95
	DefaultDraws     = 500
)

// Study is the root of a study file.
type Study struct {
	Data      Data      `yaml:"data"`
	Model     Model     `yaml:"model"`
	Bootstrap Bootstrap `yaml:"bootstrap"`
	Inference Inference `yaml:"inference"`
}

// Data names the CSV source and the column roles.
type Data struct {
	// File is the CSV path, resolved relative to the working directory.
	File       string   `yaml:"file"`
	Outcome    string   `yaml:"outcome"`
	Treatments []string `yaml:"treatments"`
	Covariates []string `yaml:"covariates"`
	// Clusters optionally names an integer-valued cluster ID column.
	Clusters string `yaml:"clusters"`
}

// Model selects the estimator configuration.
type Model struct {
	Folds            int    `yaml:"folds"`
	Repetitions      int    `yaml:"repetitions"`
	Score            string `yaml:"score"`
	Procedure        string `yaml:"procedure"`
	Seed             int64  `yaml:"seed"`
	OutcomeLearner   string `yaml:"outcome_learner"`
	TreatmentLearner string `yaml:"treatment_learner"`
	// ShiftedLearner is only used by the IV-type score.
	ShiftedLearner string `yaml:"shifted_learner"`
}

// Bootstrap enables the multiplier bootstrap when Method is non-empty.
type Bootstrap struct {
	Method string `yaml:"method"`
	Draws  int    `yaml:"draws"`
}

// Inference selects the confidence interval settings.
type Inference struct {
	Level float64 `yaml:"level"`
	// Joint switches to simultaneous intervals; requires a bootstrap.
	Joint bool `yaml:"joint"`
}

// Load reads a study file, fills in defaults and validates it.
func Load(path string) (*Study, error) {
	const op = "study.Load"

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read %s", op, path)
	}

	var s Study
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "%s: parse %s", op, path)
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyDefaults fills zero values with the package defaults.
func (s *Study) applyDefaults() {
	if s.Model.Folds == 0 {
		s.Model.Folds = DefaultFolds
	}
	if s.Model.Repetitions == 0 {
		s.Model.Repetitions = DefaultReps
	}
	if s.Model.Score == "" {
		s.Model.Score = DefaultScore
	}
	if s.Model.Procedure == "" {
		s.Model.Procedure = DefaultProcedure
	}
	if s.Model.Seed == 0 {
		s.Model.Seed = DefaultSeed
	}
	if s.Model.OutcomeLearner == "" {
		s.Model.OutcomeLearner = DefaultLearner
	}
	if s.Model.TreatmentLearner == "" {
		s.Model.TreatmentLearner = DefaultLearner
	}
	if s.Bootstrap.Method != "" && s.Bootstrap.Draws == 0 {
		s.Bootstrap.Draws = DefaultDraws
	}
	if s.Inference.Level == 0 {
		s.Inference.Level = DefaultLevel
	}
}

// Validate checks the study for completeness. Estimator-level settings
// (score names, fold counts against the data size) are validated again by
// the estimator itself; this catches what the file alone can show.
func (s *Study) Validate() error {
	if s.Data.File == "" {
		return errors.NewValidationError("data.file", "a CSV path is required", s.Data.File)
	}
	if s.Data.Outcome == "" {
		return errors.NewValidationError("data.outcome", "an outcome column is required", s.Data.Outcome)
	}
	if len(s.Data.Treatments) == 0 {
		return errors.NewValidationError("data.treatments", "at least one treatment column is required", nil)
	}
	if len(s.Data.Covariates) == 0 {
		return errors.NewValidationError("data.covariates", "at least one covariate column is required", nil)
	}
	if s.Inference.Level <= 0 || s.Inference.Level >= 1 {
		return errors.NewValidationError("inference.level", "must be strictly between 0 and 1", s.Inference.Level)
	}
	if s.Bootstrap.Method != "" && s.Bootstrap.Draws < 1 {
		return errors.NewValidationError("bootstrap.draws", "must be at least 1", s.Bootstrap.Draws)
	}
	if s.Inference.Joint && s.Bootstrap.Method == "" {
		return errors.NewValidationError("inference.joint", "joint intervals require a bootstrap method", nil)
	}
	return nil
}
