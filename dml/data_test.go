package dml

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	pkgerrors "github.com/YuminosukeSato/godml/pkg/errors"
)

// mapTable is a minimal Table for NewDataFrom tests.
type mapTable struct {
	n    int
	cols map[string][]float64
}

func (t mapTable) NumRows() int { return t.n }

func (t mapTable) Column(name string) ([]float64, error) {
	col, ok := t.cols[name]
	if !ok {
		return nil, pkgerrors.Newf("no column %q", name)
	}
	return col, nil
}

func TestNewData_Defaults(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	d := mat.NewDense(4, 1, []float64{0, 1, 0, 1})
	x := mat.NewDense(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})

	data, err := NewData(y, d, x)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}

	if data.N() != 4 {
		t.Errorf("N() = %d, want 4", data.N())
	}
	if data.NumTreatments() != 1 {
		t.Errorf("NumTreatments() = %d, want 1", data.NumTreatments())
	}
	if data.NumCovariates() != 2 {
		t.Errorf("NumCovariates() = %d, want 2", data.NumCovariates())
	}
	if data.OutcomeName() != "y" {
		t.Errorf("OutcomeName() = %q, want \"y\"", data.OutcomeName())
	}
	if names := data.TreatmentNames(); len(names) != 1 || names[0] != "d" {
		t.Errorf("TreatmentNames() = %v, want [d]", names)
	}
	if names := data.CovariateNames(); len(names) != 2 || names[0] != "x1" || names[1] != "x2" {
		t.Errorf("CovariateNames() = %v, want [x1 x2]", names)
	}
	if data.HasClusters() {
		t.Error("HasClusters() = true for data without clusters")
	}

	outcome := data.Outcome()
	for i := range y {
		if outcome[i] != y[i] {
			t.Errorf("Outcome()[%d] = %v, want %v", i, outcome[i], y[i])
		}
	}
	treat := data.Treatment(0)
	for i := 0; i < 4; i++ {
		if treat[i] != d.At(i, 0) {
			t.Errorf("Treatment(0)[%d] = %v, want %v", i, treat[i], d.At(i, 0))
		}
	}
}

func TestNewData_MultiTreatmentNames(t *testing.T) {
	y := []float64{1, 2, 3}
	d := mat.NewDense(3, 2, []float64{0, 1, 1, 0, 0, 1})
	x := mat.NewDense(3, 1, []float64{1, 2, 3})

	data, err := NewData(y, d, x)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	names := data.TreatmentNames()
	if len(names) != 2 || names[0] != "d1" || names[1] != "d2" {
		t.Errorf("TreatmentNames() = %v, want [d1 d2]", names)
	}
}

func TestNewData_Immutable(t *testing.T) {
	y := []float64{1, 2, 3}
	d := mat.NewDense(3, 1, []float64{0, 1, 0})
	x := mat.NewDense(3, 1, []float64{5, 6, 7})

	data, err := NewData(y, d, x)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}

	y[0] = 99
	d.Set(0, 0, 99)
	x.Set(0, 0, 99)

	if data.Outcome()[0] != 1 {
		t.Error("Data aliases the caller's outcome slice")
	}
	if data.Treatment(0)[0] != 0 {
		t.Error("Data aliases the caller's treatment matrix")
	}
	if got := data.xFor(0).At(0, 0); got != 5 {
		t.Errorf("Data aliases the caller's covariate matrix: got %v", got)
	}
}

func TestNewData_Validation(t *testing.T) {
	y := []float64{1, 2, 3}
	d := mat.NewDense(3, 1, []float64{0, 1, 0})
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	tests := []struct {
		name  string
		build func() (*Data, error)
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty outcome",
			build: func() (*Data, error) { return NewData(nil, d, x) },
			check: func(t *testing.T, err error) {
				if !pkgerrors.Is(err, pkgerrors.ErrEmptyData) {
					t.Errorf("want ErrEmptyData, got %v", err)
				}
			},
		},
		{
			name:  "nil treatment",
			build: func() (*Data, error) { return NewData(y, nil, x) },
		},
		{
			name:  "nil covariates",
			build: func() (*Data, error) { return NewData(y, d, nil) },
		},
		{
			name: "treatment row mismatch",
			build: func() (*Data, error) {
				return NewData(y, mat.NewDense(2, 1, []float64{0, 1}), x)
			},
			check: func(t *testing.T, err error) {
				var dimErr *pkgerrors.DimensionError
				if !pkgerrors.As(err, &dimErr) {
					t.Errorf("want DimensionError, got %v", err)
				}
			},
		},
		{
			name: "covariate row mismatch",
			build: func() (*Data, error) {
				return NewData(y, d, mat.NewDense(4, 2, make([]float64, 8)))
			},
		},
		{
			name: "NaN in outcome",
			build: func() (*Data, error) {
				return NewData([]float64{1, math.NaN(), 3}, d, x)
			},
			check: func(t *testing.T, err error) {
				var dataErr *pkgerrors.DataError
				if !pkgerrors.As(err, &dataErr) {
					t.Errorf("want DataError, got %v", err)
				}
			},
		},
		{
			name: "Inf in treatment",
			build: func() (*Data, error) {
				return NewData(y, mat.NewDense(3, 1, []float64{0, math.Inf(1), 0}), x)
			},
		},
		{
			name: "NaN in covariates",
			build: func() (*Data, error) {
				bad := mat.NewDense(3, 2, []float64{1, 2, 3, math.NaN(), 5, 6})
				return NewData(y, d, bad)
			},
		},
		{
			name: "treatment name count mismatch",
			build: func() (*Data, error) {
				return NewData(y, d, x, WithTreatmentNames("d1", "d2"))
			},
		},
		{
			name: "duplicate role",
			build: func() (*Data, error) {
				return NewData(y, d, x, WithOutcomeName("wage"), WithTreatmentNames("wage"))
			},
			check: func(t *testing.T, err error) {
				var dataErr *pkgerrors.DataError
				if !pkgerrors.As(err, &dataErr) {
					t.Errorf("want DataError, got %v", err)
				}
			},
		},
		{
			name: "covariate repeats treatment name",
			build: func() (*Data, error) {
				return NewData(y, d, x, WithCovariateNames("d", "x2"))
			},
		},
		{
			name: "cluster length mismatch",
			build: func() (*Data, error) {
				return NewData(y, d, x, WithClusters([]int{0, 1}))
			},
		},
		{
			name: "cluster column without source",
			build: func() (*Data, error) {
				return NewData(y, d, x, WithClusterColumn("firm"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestData_IsBinaryTreatment(t *testing.T) {
	tests := []struct {
		name string
		col  []float64
		want bool
	}{
		{"zero one", []float64{0, 1, 0, 1}, true},
		{"all zeros", []float64{0, 0, 0, 0}, false},
		{"all ones", []float64{1, 1, 1, 1}, false},
		{"other value", []float64{0, 1, 2, 1}, false},
		{"continuous", []float64{0.1, 0.9, 0.4, 0.7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := []float64{1, 2, 3, 4}
			x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
			data, err := NewData(y, mat.NewDense(4, 1, tt.col), x)
			if err != nil {
				t.Fatalf("NewData failed: %v", err)
			}
			if got := data.IsBinaryTreatment(0); got != tt.want {
				t.Errorf("IsBinaryTreatment(0) = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestData_XFor checks that the nuisance feature matrix for treatment j is
// the covariates followed by the other treatment columns.
func TestData_XFor(t *testing.T) {
	y := []float64{1, 2, 3}
	d := mat.NewDense(3, 2, []float64{
		10, 20,
		11, 21,
		12, 22,
	})
	x := mat.NewDense(3, 1, []float64{1, 2, 3})

	data, err := NewData(y, d, x)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}

	x0 := data.xFor(0)
	r, c := x0.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("xFor(0) dims = %dx%d, want 3x2", r, c)
	}
	// Column 0 is the covariate, column 1 the other treatment.
	for i := 0; i < 3; i++ {
		if x0.At(i, 0) != x.At(i, 0) {
			t.Errorf("xFor(0) row %d: covariate = %v, want %v", i, x0.At(i, 0), x.At(i, 0))
		}
		if x0.At(i, 1) != d.At(i, 1) {
			t.Errorf("xFor(0) row %d: other treatment = %v, want %v", i, x0.At(i, 1), d.At(i, 1))
		}
	}

	x1 := data.xFor(1)
	for i := 0; i < 3; i++ {
		if x1.At(i, 1) != d.At(i, 0) {
			t.Errorf("xFor(1) row %d: other treatment = %v, want %v", i, x1.At(i, 1), d.At(i, 0))
		}
	}
}

func TestNewDataFrom(t *testing.T) {
	src := mapTable{
		n: 4,
		cols: map[string][]float64{
			"wage":  {10, 20, 30, 40},
			"train": {0, 1, 0, 1},
			"age":   {25, 35, 45, 55},
			"educ":  {12, 16, 12, 18},
			"firm":  {0, 0, 1, 1},
		},
	}

	data, err := NewDataFrom(src, "wage", []string{"train"}, []string{"age", "educ"})
	if err != nil {
		t.Fatalf("NewDataFrom failed: %v", err)
	}
	if data.OutcomeName() != "wage" {
		t.Errorf("OutcomeName() = %q, want \"wage\"", data.OutcomeName())
	}
	if data.N() != 4 {
		t.Errorf("N() = %d, want 4", data.N())
	}
	if got := data.Outcome(); got[2] != 30 {
		t.Errorf("Outcome()[2] = %v, want 30", got[2])
	}
	if !data.IsBinaryTreatment(0) {
		t.Error("train should be recognized as a binary treatment")
	}
}

func TestNewDataFrom_ClusterColumn(t *testing.T) {
	src := mapTable{
		n: 4,
		cols: map[string][]float64{
			"wage":  {10, 20, 30, 40},
			"train": {0, 1, 0, 1},
			"age":   {25, 35, 45, 55},
			"firm":  {0, 0, 1, 1},
		},
	}

	data, err := NewDataFrom(src, "wage", []string{"train"}, []string{"age"},
		WithClusterColumn("firm"))
	if err != nil {
		t.Fatalf("NewDataFrom failed: %v", err)
	}
	if !data.HasClusters() {
		t.Fatal("HasClusters() = false after WithClusterColumn")
	}
	ids := data.Clusters()
	want := []int{0, 0, 1, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Clusters()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestNewDataFrom_Errors(t *testing.T) {
	src := mapTable{
		n: 3,
		cols: map[string][]float64{
			"wage":  {10, 20, 30},
			"train": {0, 1, 0},
			"age":   {25, 35, 45},
			"score": {0.5, 1.5, 2.5},
		},
	}

	tests := []struct {
		name  string
		build func() (*Data, error)
	}{
		{
			name: "missing column",
			build: func() (*Data, error) {
				return NewDataFrom(src, "wage", []string{"train"}, []string{"tenure"})
			},
		},
		{
			name: "empty outcome name",
			build: func() (*Data, error) {
				return NewDataFrom(src, "", []string{"train"}, []string{"age"})
			},
		},
		{
			name: "no treatments",
			build: func() (*Data, error) {
				return NewDataFrom(src, "wage", nil, []string{"age"})
			},
		},
		{
			name: "no covariates",
			build: func() (*Data, error) {
				return NewDataFrom(src, "wage", []string{"train"}, nil)
			},
		},
		{
			name: "non-integer cluster column",
			build: func() (*Data, error) {
				return NewDataFrom(src, "wage", []string{"train"}, []string{"age"},
					WithClusterColumn("score"))
			},
		},
		{
			name: "nil source",
			build: func() (*Data, error) {
				return NewDataFrom(nil, "wage", []string{"train"}, []string{"age"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
