package dml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// Table is a named-column data source consumed by NewDataFrom. It is
// satisfied by datasets.Dataset; any column-oriented store with float64
// columns can implement it.
type Table interface {
	// NumRows returns the number of rows in the source.
	NumRows() int
	// Column returns the named column as a float64 slice.
	Column(name string) ([]float64, error)
}

// Data holds one causal estimation problem: an outcome vector y, one or more
// treatment columns D, a covariate matrix X, and optional cluster IDs for
// cluster-aware sample splitting. All inputs are copied and validated at
// construction; a Data is immutable afterwards.
//
// 役割が重複する列は構築時に拒否される。アウトカム・処置・共変量は互いに
// 素でなければならない。
type Data struct {
	y        []float64
	d        *mat.Dense // n×p, one column per treatment variable
	x        *mat.Dense // n×k
	yName    string
	dNames   []string
	xNames   []string
	clusters []int
}

// dataConfig collects the optional construction settings.
type dataConfig struct {
	yName      string
	dNames     []string
	xNames     []string
	clusters   []int
	clusterCol string
}

// DataOption is a functional option for NewData and NewDataFrom.
type DataOption func(*dataConfig)

// WithOutcomeName sets the outcome column name used in summaries and errors.
func WithOutcomeName(name string) DataOption {
	return func(c *dataConfig) {
		c.yName = name
	}
}

// WithTreatmentNames sets the treatment column names.
func WithTreatmentNames(names ...string) DataOption {
	return func(c *dataConfig) {
		c.dNames = names
	}
}

// WithCovariateNames sets the covariate column names.
func WithCovariateNames(names ...string) DataOption {
	return func(c *dataConfig) {
		c.xNames = names
	}
}

// WithClusters attaches one cluster ID per observation. When present, sample
// splitting keeps whole clusters inside a single fold.
func WithClusters(ids []int) DataOption {
	return func(c *dataConfig) {
		c.clusters = ids
	}
}

// WithClusterColumn names a source column holding integer cluster IDs.
// Only usable with NewDataFrom.
func WithClusterColumn(name string) DataOption {
	return func(c *dataConfig) {
		c.clusterCol = name
	}
}

// NewData constructs a Data object from an outcome vector, a treatment
// matrix (n×p) and a covariate matrix (n×k). All validation is eager:
// dimension mismatches, empty inputs and non-finite values are reported
// here, before any estimation starts.
func NewData(y []float64, d, x mat.Matrix, opts ...DataOption) (*Data, error) {
	const op = "dml.NewData"

	cfg := dataConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clusterCol != "" {
		return nil, errors.NewValidationError("cluster_column", "only usable with a named column source; use WithClusters", cfg.clusterCol)
	}

	n := len(y)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	if d == nil {
		return nil, errors.NewValueError(op, "treatment matrix must not be nil")
	}
	if x == nil {
		return nil, errors.NewValueError(op, "covariate matrix must not be nil")
	}

	dRows, p := d.Dims()
	if p < 1 {
		return nil, errors.NewValueError(op, "at least one treatment column is required")
	}
	if dRows != n {
		return nil, errors.NewDimensionError(op, n, dRows, 0)
	}
	xRows, k := x.Dims()
	if k < 1 {
		return nil, errors.NewValueError(op, "at least one covariate column is required")
	}
	if xRows != n {
		return nil, errors.NewDimensionError(op, n, xRows, 0)
	}

	return buildData(op, copyVector(y), denseCopy(d), denseCopy(x), cfg)
}

// NewDataFrom constructs a Data object from named columns of a Table.
// Column roles come from the arguments; missing columns are data errors.
func NewDataFrom(src Table, outcome string, treatments, covariates []string, opts ...DataOption) (*Data, error) {
	const op = "dml.NewDataFrom"

	if src == nil {
		return nil, errors.NewValueError(op, "source must not be nil")
	}
	if outcome == "" {
		return nil, errors.NewValidationError("outcome", "column name must not be empty", outcome)
	}
	if len(treatments) == 0 {
		return nil, errors.NewValidationError("treatments", "at least one treatment column is required", treatments)
	}
	if len(covariates) == 0 {
		return nil, errors.NewValidationError("covariates", "at least one covariate column is required", covariates)
	}

	cfg := dataConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.yName = outcome
	cfg.dNames = treatments
	cfg.xNames = covariates

	n := src.NumRows()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}

	y, err := sourceColumn(op, src, outcome, n)
	if err != nil {
		return nil, err
	}
	d := mat.NewDense(n, len(treatments), nil)
	for j, name := range treatments {
		col, err := sourceColumn(op, src, name, n)
		if err != nil {
			return nil, err
		}
		d.SetCol(j, col)
	}
	x := mat.NewDense(n, len(covariates), nil)
	for j, name := range covariates {
		col, err := sourceColumn(op, src, name, n)
		if err != nil {
			return nil, err
		}
		x.SetCol(j, col)
	}

	if cfg.clusterCol != "" {
		col, err := sourceColumn(op, src, cfg.clusterCol, n)
		if err != nil {
			return nil, err
		}
		ids := make([]int, n)
		for i, v := range col {
			if v != math.Trunc(v) {
				return nil, errors.NewDataError(op, cfg.clusterCol, "cluster IDs must be integer-valued")
			}
			ids[i] = int(v)
		}
		cfg.clusters = ids
		cfg.clusterCol = ""
	}

	return buildData(op, y, d, x, cfg)
}

// sourceColumn fetches one column and checks its length against the source.
func sourceColumn(op string, src Table, name string, n int) ([]float64, error) {
	col, err := src.Column(name)
	if err != nil {
		return nil, errors.NewDataError(op, name, "column not found in source")
	}
	if len(col) != n {
		return nil, errors.NewDimensionError(op, n, len(col), 0)
	}
	return col, nil
}

// buildData resolves names, runs the shared validation and assembles the
// immutable Data. The inputs are owned by the new Data and must not be
// aliased by the caller.
func buildData(op string, y []float64, d, x *mat.Dense, cfg dataConfig) (*Data, error) {
	n := len(y)
	_, p := d.Dims()
	_, k := x.Dims()

	yName := cfg.yName
	if yName == "" {
		yName = "y"
	}
	dNames := cfg.dNames
	if dNames == nil {
		dNames = defaultNames("d", p)
	}
	xNames := cfg.xNames
	if xNames == nil {
		xNames = defaultNames("x", k)
	}
	if len(dNames) != p {
		return nil, errors.NewValidationError("treatment_names", "must match the number of treatment columns", len(dNames))
	}
	if len(xNames) != k {
		return nil, errors.NewValidationError("covariate_names", "must match the number of covariate columns", len(xNames))
	}

	// Outcome, treatments and covariates must be disjoint roles.
	seen := map[string]bool{yName: true}
	for _, name := range dNames {
		if seen[name] {
			return nil, errors.NewDataError(op, name, "column assigned to more than one role")
		}
		seen[name] = true
	}
	for _, name := range xNames {
		if seen[name] {
			return nil, errors.NewDataError(op, name, "column assigned to more than one role")
		}
		seen[name] = true
	}

	// 非有限値の混入は構築時に拒否する。欠測の扱いは指定されていないため、
	// 黙って行を落とすことはしない。
	for i, v := range y {
		if !isFinite(v) {
			return nil, errors.NewDataError(op, yName, fmt.Sprintf("non-finite value at row %d", i))
		}
	}
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			if !isFinite(d.At(i, j)) {
				return nil, errors.NewDataError(op, dNames[j], fmt.Sprintf("non-finite value at row %d", i))
			}
		}
	}
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			if !isFinite(x.At(i, j)) {
				return nil, errors.NewDataError(op, xNames[j], fmt.Sprintf("non-finite value at row %d", i))
			}
		}
	}

	var clusters []int
	if cfg.clusters != nil {
		if len(cfg.clusters) != n {
			return nil, errors.NewDimensionError(op, n, len(cfg.clusters), 0)
		}
		clusters = make([]int, n)
		copy(clusters, cfg.clusters)
	}

	return &Data{
		y:        y,
		d:        d,
		x:        x,
		yName:    yName,
		dNames:   dNames,
		xNames:   xNames,
		clusters: clusters,
	}, nil
}

// defaultNames generates prefix1..prefixN, or just the prefix when n == 1.
func defaultNames(prefix string, n int) []string {
	if n == 1 {
		return []string{prefix}
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return names
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func denseCopy(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(m)
	return out
}

// N returns the number of observations.
func (d *Data) N() int {
	return len(d.y)
}

// NumTreatments returns the number of treatment columns.
func (d *Data) NumTreatments() int {
	_, p := d.d.Dims()
	return p
}

// NumCovariates returns the number of covariate columns.
func (d *Data) NumCovariates() int {
	_, k := d.x.Dims()
	return k
}

// Outcome returns a copy of the outcome vector.
func (d *Data) Outcome() []float64 {
	return copyVector(d.y)
}

// OutcomeName returns the outcome column name.
func (d *Data) OutcomeName() string {
	return d.yName
}

// Treatment returns a copy of treatment column j.
func (d *Data) Treatment(j int) []float64 {
	return d.treatmentColumn(j)
}

// TreatmentNames returns a copy of the treatment column names.
func (d *Data) TreatmentNames() []string {
	out := make([]string, len(d.dNames))
	copy(out, d.dNames)
	return out
}

// CovariateNames returns a copy of the covariate column names.
func (d *Data) CovariateNames() []string {
	out := make([]string, len(d.xNames))
	copy(out, d.xNames)
	return out
}

// HasClusters reports whether cluster IDs were attached.
func (d *Data) HasClusters() bool {
	return d.clusters != nil
}

// Clusters returns a copy of the cluster IDs, or nil when absent.
func (d *Data) Clusters() []int {
	if d.clusters == nil {
		return nil
	}
	out := make([]int, len(d.clusters))
	copy(out, d.clusters)
	return out
}

// IsBinaryTreatment reports whether treatment column j takes exactly the
// values 0 and 1, with both present.
func (d *Data) IsBinaryTreatment(j int) bool {
	n := d.N()
	var zeros, ones int
	for i := 0; i < n; i++ {
		switch d.d.At(i, j) {
		case 0:
			zeros++
		case 1:
			ones++
		default:
			return false
		}
	}
	return zeros > 0 && ones > 0
}

// treatmentColumn extracts treatment column j into fresh storage.
func (d *Data) treatmentColumn(j int) []float64 {
	n := d.N()
	col := make([]float64, n)
	for i := 0; i < n; i++ {
		col[i] = d.d.At(i, j)
	}
	return col
}

// xFor assembles the feature matrix used when estimating treatment j:
// the covariates followed by the remaining treatment columns.
func (d *Data) xFor(j int) *mat.Dense {
	n := d.N()
	k := d.NumCovariates()
	p := d.NumTreatments()

	out := mat.NewDense(n, k+p-1, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			out.Set(i, c, d.x.At(i, c))
		}
		col := k
		for c := 0; c < p; c++ {
			if c == j {
				continue
			}
			out.Set(i, col, d.d.At(i, c))
			col++
		}
	}
	return out
}
