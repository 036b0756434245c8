package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/datasets"
	"github.com/YuminosukeSato/godml/dml"
	"github.com/YuminosukeSato/godml/internal/study"
	"github.com/YuminosukeSato/godml/learner"
	"github.com/YuminosukeSato/godml/pkg/errors"
)

// NewFitCmd creates the fit command.
func NewFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit [csv-file]",
		Short: "Estimate treatment effects from a CSV file",
		Long: `Fit estimates the causal effect of one or more treatment columns on an
outcome column by double machine learning on a partially linear model.

The data is a headed CSV file where every cell is a finite number. Column
roles come from flags, or from a YAML study file that also carries the
model settings. When --covariates is omitted, every column that is not the
outcome, a treatment or the cluster column becomes a covariate.

Examples:
  # Everything from a study file
  godml fit --study study.yaml

  # Column roles from flags, defaults elsewhere
  godml fit wages.csv --outcome earnings --treatments training

  # IV-type score with a boosting outcome nuisance and a wild bootstrap
  godml fit wages.csv -y earnings -d training --score iv-type \
    --outcome-learner boosting --bootstrap wild --draws 1000

  # Machine-readable output
  godml fit wages.csv -y earnings -d training --json

Study file example:
  data:
    file: wages.csv
    outcome: earnings
    treatments: [training]
    covariates: [age, education, experience]
  model:
    folds: 5
    repetitions: 3
    treatment_learner: logistic
  bootstrap:
    method: wild
  inference:
    joint: true`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFitCmd,
	}

	// Data flags
	cmd.Flags().StringP("study", "s", "", "YAML study file (replaces all other flags)")
	cmd.Flags().StringP("outcome", "y", "", "Outcome column name")
	cmd.Flags().StringSliceP("treatments", "d", nil, "Treatment column names")
	cmd.Flags().StringSliceP("covariates", "x", nil, "Covariate column names (default: all remaining columns)")
	cmd.Flags().String("clusters", "", "Integer-valued cluster ID column for clustered fold splitting")

	// Model flags
	cmd.Flags().IntP("folds", "k", study.DefaultFolds, "Number of cross-fitting folds")
	cmd.Flags().IntP("repetitions", "r", study.DefaultReps, "Number of repeated cross-fitting passes")
	cmd.Flags().String("score", study.DefaultScore, `Score function: "partialling out" or "iv-type"`)
	cmd.Flags().String("procedure", study.DefaultProcedure, "Estimation procedure: dml1 or dml2")
	cmd.Flags().Int64("seed", study.DefaultSeed, "Random seed for fold splitting")
	cmd.Flags().String("outcome-learner", study.DefaultLearner, "Outcome nuisance learner: ridge, lasso or boosting")
	cmd.Flags().String("treatment-learner", study.DefaultLearner, "Treatment nuisance learner: ridge, lasso, logistic or boosting")
	cmd.Flags().String("shifted-learner", "", "Shifted outcome learner for the IV-type score (default: the outcome learner)")

	// Inference flags
	cmd.Flags().String("bootstrap", "", "Multiplier bootstrap method: normal, wild or bayes")
	cmd.Flags().Int("draws", study.DefaultDraws, "Number of bootstrap draws")
	cmd.Flags().Float64("level", study.DefaultLevel, "Confidence level")
	cmd.Flags().Bool("joint", false, "Print joint confidence intervals (requires --bootstrap)")

	// Output flags
	cmd.Flags().BoolP("json", "j", false, "Output the result as JSON instead of a table")

	return cmd
}

// runFitCmd executes the fit command.
func runFitCmd(cmd *cobra.Command, args []string) error {
	setupLogging(getVerboseFlag(cmd))

	s, err := buildStudy(cmd, args)
	if err != nil {
		return err
	}
	if s.Data.File == "" {
		return errors.NewValidationError("csv-file",
			"a CSV file argument or a study file is required", nil)
	}

	ds, err := datasets.LoadCSVFile(s.Data.File)
	if err != nil {
		return err
	}
	if len(s.Data.Covariates) == 0 {
		s.Data.Covariates = remainingColumns(ds, s)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	m, err := buildModel(ds, s)
	if err != nil {
		return err
	}
	if err := m.Fit(); err != nil {
		return err
	}

	if s.Bootstrap.Method != "" {
		method, err := dml.ParseBootstrapMethod(s.Bootstrap.Method)
		if err != nil {
			return err
		}
		if err := m.Bootstrap(method, s.Bootstrap.Draws); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		result, err := m.Result(s.Inference.Level)
		if err != nil {
			return err
		}
		buf, err := result.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(buf))
		return nil
	}

	fmt.Fprint(out, m.Summary())
	return printIntervals(out, m, s)
}

// buildStudy assembles the study from the --study file or from flags. The
// two sources are exclusive: a study file carries the CSV path itself.
func buildStudy(cmd *cobra.Command, args []string) (*study.Study, error) {
	studyPath, err := cmd.Flags().GetString("study")
	if err != nil {
		return nil, err
	}
	if studyPath != "" {
		if len(args) > 0 {
			return nil, errors.NewValueError("fit",
				"pass either a study file or a CSV argument, not both")
		}
		return study.Load(studyPath)
	}

	s := &study.Study{}
	if len(args) == 1 {
		s.Data.File = args[0]
	}

	if s.Data.Outcome, err = cmd.Flags().GetString("outcome"); err != nil {
		return nil, err
	}
	if s.Data.Treatments, err = cmd.Flags().GetStringSlice("treatments"); err != nil {
		return nil, err
	}
	if s.Data.Covariates, err = cmd.Flags().GetStringSlice("covariates"); err != nil {
		return nil, err
	}
	if s.Data.Clusters, err = cmd.Flags().GetString("clusters"); err != nil {
		return nil, err
	}

	if s.Model.Folds, err = cmd.Flags().GetInt("folds"); err != nil {
		return nil, err
	}
	if s.Model.Repetitions, err = cmd.Flags().GetInt("repetitions"); err != nil {
		return nil, err
	}
	if s.Model.Score, err = cmd.Flags().GetString("score"); err != nil {
		return nil, err
	}
	if s.Model.Procedure, err = cmd.Flags().GetString("procedure"); err != nil {
		return nil, err
	}
	if s.Model.Seed, err = cmd.Flags().GetInt64("seed"); err != nil {
		return nil, err
	}
	if s.Model.OutcomeLearner, err = cmd.Flags().GetString("outcome-learner"); err != nil {
		return nil, err
	}
	if s.Model.TreatmentLearner, err = cmd.Flags().GetString("treatment-learner"); err != nil {
		return nil, err
	}
	if s.Model.ShiftedLearner, err = cmd.Flags().GetString("shifted-learner"); err != nil {
		return nil, err
	}

	if s.Bootstrap.Method, err = cmd.Flags().GetString("bootstrap"); err != nil {
		return nil, err
	}
	if s.Bootstrap.Draws, err = cmd.Flags().GetInt("draws"); err != nil {
		return nil, err
	}
	if s.Inference.Level, err = cmd.Flags().GetFloat64("level"); err != nil {
		return nil, err
	}
	if s.Inference.Joint, err = cmd.Flags().GetBool("joint"); err != nil {
		return nil, err
	}

	// Validation waits until covariates have been defaulted from the data.
	return s, nil
}

// remainingColumns returns the dataset columns not claimed by another role,
// in dataset order.
func remainingColumns(ds *datasets.Dataset, s *study.Study) []string {
	used := map[string]bool{
		s.Data.Outcome:  true,
		s.Data.Clusters: true,
	}
	for _, name := range s.Data.Treatments {
		used[name] = true
	}

	var rest []string
	for _, name := range ds.Names() {
		if !used[name] {
			rest = append(rest, name)
		}
	}
	return rest
}

// buildModel wires the study into a ready-to-fit estimator.
func buildModel(ds *datasets.Dataset, s *study.Study) (*dml.PLR, error) {
	score, err := dml.ParseScore(s.Model.Score)
	if err != nil {
		return nil, err
	}
	procedure, err := dml.ParseProcedure(s.Model.Procedure)
	if err != nil {
		return nil, err
	}
	learners, err := buildLearners(s.Model, score)
	if err != nil {
		return nil, err
	}

	var dataOpts []dml.DataOption
	if s.Data.Clusters != "" {
		dataOpts = append(dataOpts, dml.WithClusterColumn(s.Data.Clusters))
	}
	data, err := dml.NewDataFrom(ds, s.Data.Outcome, s.Data.Treatments, s.Data.Covariates, dataOpts...)
	if err != nil {
		return nil, err
	}

	return dml.NewPLR(data, learners,
		dml.WithFolds(s.Model.Folds),
		dml.WithRepetitions(s.Model.Repetitions),
		dml.WithScore(score),
		dml.WithProcedure(procedure),
		dml.WithSeed(s.Model.Seed),
	)
}

// buildLearners maps the study's learner names to factories. The shifted
// learner defaults to the outcome learner when the IV-type score needs one.
func buildLearners(m study.Model, score dml.Score) (dml.Learners, error) {
	var ls dml.Learners
	var err error

	if ls.L, err = learnerFactory(m.OutcomeLearner); err != nil {
		return dml.Learners{}, err
	}
	if ls.M, err = learnerFactory(m.TreatmentLearner); err != nil {
		return dml.Learners{}, err
	}

	shifted := m.ShiftedLearner
	if shifted == "" && score == dml.ScoreIVType {
		shifted = m.OutcomeLearner
	}
	if shifted != "" {
		if ls.G, err = learnerFactory(shifted); err != nil {
			return dml.Learners{}, err
		}
	}
	return ls, nil
}

// learnerFactory maps a learner name to a fresh-instance factory.
func learnerFactory(name string) (model.LearnerFactory, error) {
	switch name {
	case "ridge":
		return func() model.Learner { return learner.NewRidge() }, nil
	case "lasso":
		return func() model.Learner { return learner.NewLasso() }, nil
	case "logistic":
		return func() model.Learner { return learner.NewLogistic() }, nil
	case "boosting":
		return func() model.Learner { return learner.NewBoosting() }, nil
	}
	return nil, errors.NewValidationError("learner",
		fmt.Sprintf("unknown learner %q (ridge, lasso, logistic or boosting)", name), name)
}

// printIntervals appends the interval blocks the summary table does not
// carry: pointwise intervals at a non-default level, and joint intervals.
func printIntervals(w io.Writer, m *dml.PLR, s *study.Study) error {
	if s.Inference.Level != study.DefaultLevel {
		intervals, err := m.ConfInt(s.Inference.Level)
		if err != nil {
			return err
		}
		writeIntervalBlock(w, s.Inference.Level, "pointwise", m.TreatmentNames(), intervals)
	}
	if s.Inference.Joint {
		intervals, err := m.JointConfInt(s.Inference.Level)
		if err != nil {
			return err
		}
		writeIntervalBlock(w, s.Inference.Level, "joint", m.TreatmentNames(), intervals)
	}
	return nil
}

// writeIntervalBlock prints one titled lower/upper table.
func writeIntervalBlock(w io.Writer, level float64, kind string, names []string, intervals []dml.Interval) {
	fmt.Fprintf(w, "\n%.1f %% %s confidence intervals\n", 100*level, kind)
	nameWidth := len("treatment")
	for _, name := range names {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}
	fmt.Fprintf(w, "%-*s %10s %10s\n", nameWidth, "treatment", "lower", "upper")
	for j, name := range names {
		fmt.Fprintf(w, "%-*s %10.4f %10.4f\n", nameWidth, name, intervals[j].Lower, intervals[j].Upper)
	}
}
