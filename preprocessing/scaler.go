package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// 標準偏差がこの値を下回る列は定数列とみなし、スケール1で据え置く。
const minScale = 1e-8

// StandardScaler はデータを平均0、標準偏差1に変換する標準化スケーラー。
// ニュイサンス学習器に渡す共変量の前処理に使う。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は学習データにおける各列の平均（WithMean が false のときは 0 のまま）
	Mean []float64

	// Scale は各列の母標準偏差（定数列および WithStd が false のときは 1）
	Scale []float64

	// NFeatures は学習時の列数
	NFeatures int

	// WithMean は変換時に平均を引くかどうか
	WithMean bool

	// WithStd は変換時に標準偏差で割るかどうか
	WithStd bool
}

// NewStandardScaler は平均・分散それぞれの扱いを指定してスケーラーを構築する。
//
//	scaler := preprocessing.NewStandardScalerDefault()
//	Xs, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault は平均引きと分散スケーリングの両方を有効にして構築する。
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから列ごとの平均と標準偏差（母標準偏差）を学習する。
// WithMean が false の場合は平均0のまま、WithStd が false の場合は
// スケール1のまま扱う。
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)

		if s.WithMean {
			s.Mean[j] = stat.Mean(col, nil)
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			var sumSq float64
			for _, v := range col {
				dev := v - s.Mean[j]
				sumSq += dev * dev
			}
			if sd := math.Sqrt(sumSq / float64(r)); sd >= minScale {
				s.Scale[j] = sd
			}
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計量でデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// FitTransform は Fit と Transform を同じデータに対して続けて行う。
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化を打ち消し、元の単位のデータに戻す。
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return out, nil
}

// GetParams は構築時の設定を返す。
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String は設定と学習状態を含む表示用の文字列を返す。
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
