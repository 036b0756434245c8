package datasets

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/dml"
	"github.com/YuminosukeSato/godml/learner"
	"github.com/YuminosukeSato/godml/preprocessing"
)

func TestMakePLR_Shape(t *testing.T) {
	ds, err := MakePLR(100, WithCovariates(4), WithSeed(1))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}
	if ds.NumRows() != 100 {
		t.Errorf("NumRows() = %d, want 100", ds.NumRows())
	}
	if ds.NumColumns() != 6 {
		t.Errorf("NumColumns() = %d, want 6", ds.NumColumns())
	}
	for _, name := range []string{"y", "d", "x1", "x2", "x3", "x4"} {
		if !ds.HasColumn(name) {
			t.Errorf("missing column %q", name)
		}
	}
}

func TestMakePLR_Reproducible(t *testing.T) {
	a, err := MakePLR(200, WithSeed(5))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}
	b, err := MakePLR(200, WithSeed(5))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}
	c, err := MakePLR(200, WithSeed(6))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}

	ya, _ := a.Column("y")
	yb, _ := b.Column("y")
	yc, _ := c.Column("y")
	for i := range ya {
		if ya[i] != yb[i] {
			t.Fatalf("row %d differs across identical seeds", i)
		}
	}
	same := true
	for i := range ya {
		if ya[i] != yc[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical data")
	}
}

func TestMakePLR_ConfoundingToggle(t *testing.T) {
	conf, err := MakePLR(2000, WithSeed(3), WithConfounding(true))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}
	indep, err := MakePLR(2000, WithSeed(3), WithConfounding(false))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}

	dConf, _ := conf.Column("d")
	xConf, _ := conf.Column("x1")
	dIndep, _ := indep.Column("d")
	xIndep, _ := indep.Column("x1")

	if r := stat.Correlation(dConf, xConf, nil); math.Abs(r) < 0.3 {
		t.Errorf("confounded treatment should track x1, corr = %v", r)
	}
	if r := stat.Correlation(dIndep, xIndep, nil); math.Abs(r) > 0.15 {
		t.Errorf("independent treatment should not track x1, corr = %v", r)
	}
}

func TestMakePLR_BinaryTreatment(t *testing.T) {
	ds, err := MakePLR(800, WithSeed(13), WithBinaryTreatment(true))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}
	d, _ := ds.Column("d")

	var ones int
	for _, v := range d {
		switch v {
		case 0:
		case 1:
			ones++
		default:
			t.Fatalf("binary treatment produced %v", v)
		}
	}
	share := float64(ones) / float64(len(d))
	if share < 0.3 || share > 0.7 {
		t.Errorf("treated share = %v, want a balanced design", share)
	}
}

func TestMakePLR_InvalidArgs(t *testing.T) {
	if _, err := MakePLR(0); err == nil {
		t.Error("zero observations should fail")
	}
	if _, err := MakePLR(10, WithCovariates(2)); err == nil {
		t.Error("fewer than three covariates should fail")
	}
	if _, err := MakePLR(10, WithNoise(0)); err == nil {
		t.Error("zero noise should fail")
	}
}

// TestMakePLR_EstimationRecoversEffect runs the full pipeline: generate with
// a known effect under confounding, build the estimation data by column
// names, fit, and compare.
func TestMakePLR_EstimationRecoversEffect(t *testing.T) {
	const theta = 0.9

	ds, err := MakePLR(1200, WithEffect(theta), WithCovariates(5), WithSeed(7))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}

	covariates := make([]string, 5)
	for j := range covariates {
		covariates[j] = fmt.Sprintf("x%d", j+1)
	}
	data, err := dml.NewDataFrom(ds, "y", []string{"d"}, covariates)
	if err != nil {
		t.Fatalf("NewDataFrom failed: %v", err)
	}

	ridge := func() model.Learner { return learner.NewRidge(learner.WithRidgeAlpha(0.1)) }
	m, err := dml.NewPLR(data, dml.Learners{L: ridge, M: ridge}, dml.WithFolds(5))
	if err != nil {
		t.Fatalf("NewPLR failed: %v", err)
	}
	if err := m.Fit(); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if coef := m.Coefficients()[0]; math.Abs(coef-theta) > 0.15 {
		t.Errorf("estimated effect = %v, want within 0.15 of %v", coef, theta)
	}
}

// TestMakePLR_BinaryEstimation exercises the propensity path end to end.
func TestMakePLR_BinaryEstimation(t *testing.T) {
	const theta = 1.5

	ds, err := MakePLR(1500, WithEffect(theta), WithCovariates(4), WithSeed(19),
		WithBinaryTreatment(true))
	if err != nil {
		t.Fatalf("MakePLR failed: %v", err)
	}

	data, err := dml.NewDataFrom(ds, "y", []string{"d"}, []string{"x1", "x2", "x3", "x4"})
	if err != nil {
		t.Fatalf("NewDataFrom failed: %v", err)
	}

	ridge := func() model.Learner { return learner.NewRidge(learner.WithRidgeAlpha(0.1)) }
	logit := func() model.Learner {
		return learner.NewLogistic(learner.WithLogisticC(10), learner.WithLogisticMaxIter(2000))
	}
	m, err := dml.NewPLR(data, dml.Learners{L: ridge, M: logit}, dml.WithFolds(5))
	if err != nil {
		t.Fatalf("NewPLR failed: %v", err)
	}
	if err := m.Fit(); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if coef := m.Coefficients()[0]; math.Abs(coef-theta) > 0.3 {
		t.Errorf("estimated effect = %v, want within 0.3 of %v", coef, theta)
	}
}

func TestJobTraining_Columns(t *testing.T) {
	ds, err := JobTraining(500, 42)
	if err != nil {
		t.Fatalf("JobTraining failed: %v", err)
	}
	if ds.NumRows() != 500 {
		t.Errorf("NumRows() = %d, want 500", ds.NumRows())
	}
	for _, name := range []string{"earnings", "training", "age", "education", "experience", "prev_earnings", "married"} {
		if !ds.HasColumn(name) {
			t.Errorf("missing column %q", name)
		}
	}

	training, _ := ds.Column("training")
	var treated int
	for _, v := range training {
		if v != 0 && v != 1 {
			t.Fatalf("training indicator = %v", v)
		}
		if v == 1 {
			treated++
		}
	}
	if treated == 0 || treated == len(training) {
		t.Error("training group is empty or universal")
	}

	educ, _ := ds.Column("education")
	for _, v := range educ {
		if v < 8 || v > 20 {
			t.Fatalf("education = %v outside [8, 20]", v)
		}
	}
	exper, _ := ds.Column("experience")
	for _, v := range exper {
		if v < 0 {
			t.Fatalf("experience = %v negative", v)
		}
	}

	again, err := JobTraining(500, 42)
	if err != nil {
		t.Fatalf("JobTraining failed: %v", err)
	}
	e1, _ := ds.Column("earnings")
	e2, _ := again.Column("earnings")
	for i := range e1 {
		if e1[i] != e2[i] {
			t.Fatal("identical seeds should reproduce the study")
		}
	}
}

// TestJobTraining_EstimationRecoversEffect checks that the orthogonalized
// estimate lands near the embedded effect despite the confounded enrollment.
// The covariates are standardized first, as their raw scales differ by an
// order of magnitude.
func TestJobTraining_EstimationRecoversEffect(t *testing.T) {
	ds, err := JobTraining(2000, 42)
	if err != nil {
		t.Fatalf("JobTraining failed: %v", err)
	}

	covNames := []string{"age", "education", "experience", "prev_earnings", "married"}
	n := ds.NumRows()
	x := mat.NewDense(n, len(covNames), nil)
	for j, name := range covNames {
		col, cerr := ds.Column(name)
		if cerr != nil {
			t.Fatalf("Column(%q) failed: %v", name, cerr)
		}
		x.SetCol(j, col)
	}
	scaler := preprocessing.NewStandardScalerDefault()
	xScaled, err := scaler.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	y, _ := ds.Column("earnings")
	d, _ := ds.Column("training")
	data, err := dml.NewData(y, mat.NewDense(n, 1, d), xScaled,
		dml.WithOutcomeName("earnings"),
		dml.WithTreatmentNames("training"),
		dml.WithCovariateNames(covNames...),
	)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}

	ridge := func() model.Learner { return learner.NewRidge(learner.WithRidgeAlpha(0.1)) }
	logit := func() model.Learner {
		return learner.NewLogistic(learner.WithLogisticC(10), learner.WithLogisticMaxIter(2000))
	}
	m, err := dml.NewPLR(data, dml.Learners{L: ridge, M: logit}, dml.WithFolds(5))
	if err != nil {
		t.Fatalf("NewPLR failed: %v", err)
	}
	if err := m.Fit(); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	coef := m.Coefficients()[0]
	if math.Abs(coef-JobTrainingEffect) > 1.5 {
		t.Errorf("estimated effect = %v, want within 1.5 of %v", coef, JobTrainingEffect)
	}
}
