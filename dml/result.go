package dml

import (
	"encoding/json"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// resultVersion tags the snapshot format for compatibility checking.
const resultVersion = "1"

// TreatmentResult is one treatment's row of a fit snapshot.
type TreatmentResult struct {
	Name   string  `json:"name"`
	Coef   float64 `json:"coef"`
	StdErr float64 `json:"std_err"`
	TStat  float64 `json:"t_stat"`
	PValue float64 `json:"p_value"`
	Lower  float64 `json:"ci_lower"`
	Upper  float64 `json:"ci_upper"`
}

// ConfidenceInterval is one named interval of a bootstrap block.
type ConfidenceInterval struct {
	Treatment string  `json:"treatment"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// BootstrapResult records the bootstrap settings and the joint confidence
// intervals it supports.
type BootstrapResult struct {
	Method         string               `json:"method"`
	Draws          int                  `json:"draws"`
	JointIntervals []ConfidenceInterval `json:"joint_intervals"`
}

// Result is a serializable snapshot of a fitted model, meant for downstream
// tooling that consumes estimates as data rather than as a rendered table.
type Result struct {
	Version      string            `json:"version"`
	Model        string            `json:"model"`
	Score        string            `json:"score"`
	Procedure    string            `json:"procedure"`
	Folds        int               `json:"folds"`
	Repetitions  int               `json:"repetitions"`
	Observations int               `json:"observations"`
	Level        float64           `json:"level"`
	Treatments   []TreatmentResult `json:"treatments"`
	Bootstrap    *BootstrapResult  `json:"bootstrap,omitempty"`
}

// Result returns a snapshot of the fitted model: the configuration, one row
// of estimates per treatment with pointwise confidence intervals at the
// given level, and, when a bootstrap has run, the joint intervals it
// supports.
func (m *PLR) Result(level float64) (*Result, error) {
	if err := m.state.RequireFitted(); err != nil {
		return nil, errors.NewNotFittedError("PLR", "Result")
	}
	intervals, err := m.ConfInt(level)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Version:      resultVersion,
		Model:        "plr",
		Score:        m.score.String(),
		Procedure:    m.procedure.String(),
		Folds:        m.nFolds,
		Repetitions:  m.nRep,
		Observations: m.data.N(),
		Level:        level,
		Treatments:   make([]TreatmentResult, len(m.coefs)),
	}
	for j, name := range m.data.dNames {
		res.Treatments[j] = TreatmentResult{
			Name:   name,
			Coef:   m.coefs[j],
			StdErr: m.ses[j],
			TStat:  m.ts[j],
			PValue: m.ps[j],
			Lower:  intervals[j].Lower,
			Upper:  intervals[j].Upper,
		}
	}

	if m.bootCoefs != nil {
		joint, err := m.JointConfInt(level)
		if err != nil {
			return nil, err
		}
		boot := &BootstrapResult{
			Method: m.bootMethod.String(),
			Draws:  len(m.bootCoefs[0]),
		}
		for j, name := range m.data.dNames {
			boot.JointIntervals = append(boot.JointIntervals, ConfidenceInterval{
				Treatment: name,
				Lower:     joint[j].Lower,
				Upper:     joint[j].Upper,
			})
		}
		res.Bootstrap = boot
	}
	return res, nil
}

// ToJSON serializes the snapshot as indented JSON.
func (r *Result) ToJSON() ([]byte, error) {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "dml.Result.ToJSON")
	}
	return buf, nil
}

// ParseResult deserializes a snapshot produced by ToJSON, rejecting
// snapshots written by an incompatible format version.
func ParseResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "dml.ParseResult")
	}
	if r.Version != resultVersion {
		return nil, errors.Newf("dml.ParseResult: unsupported result version %q", r.Version)
	}
	return &r, nil
}
