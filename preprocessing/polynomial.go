package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PolynomialFeatures は多項式基底展開を行う変換器。
// 部分線形モデルのニュイサンス関数 g(X) や m(X) を線形学習器で
// 柔軟に近似するために、共変量の冪乗と交互作用項を生成する。
type PolynomialFeatures struct {
	model.BaseEstimator

	// Degree は生成する多項式の最大次数
	Degree int

	// IncludeBias は定数項（すべて1の列）を含めるかどうか
	IncludeBias bool

	// InteractionOnly は交互作用項のみ（各特徴量の冪乗なし）を生成するかどうか
	InteractionOnly bool

	// NFeatures は入力特徴量の数
	NFeatures int

	// powers は出力特徴量ごとの指数ベクトル
	powers [][]int
}

// NewPolynomialFeatures は新しいPolynomialFeaturesを作成する
//
// 使用例:
//
//	poly := preprocessing.NewPolynomialFeatures(2)
//	XPoly, err := poly.FitTransform(X)
func NewPolynomialFeatures(degree int) *PolynomialFeatures {
	return &PolynomialFeatures{
		Degree:      degree,
		IncludeBias: false,
	}
}

// Fit は入力の特徴量数から出力特徴量の指数ベクトルを構築する
func (p *PolynomialFeatures) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "PolynomialFeatures.Fit")
	}
	if p.Degree < 1 {
		return errors.NewValidationError("degree", "must be at least 1", p.Degree)
	}

	p.NFeatures = c
	p.powers = nil

	minDegree := 1
	if p.IncludeBias {
		minDegree = 0
	}

	// 次数ごとに重複組合せを列挙して指数ベクトルへ変換する
	for d := minDegree; d <= p.Degree; d++ {
		combos := combinationsWithReplacement(c, d)
		for _, combo := range combos {
			exp := make([]int, c)
			valid := true
			for _, idx := range combo {
				exp[idx]++
				if p.InteractionOnly && exp[idx] > 1 {
					valid = false
					break
				}
			}
			if valid {
				p.powers = append(p.powers, exp)
			}
		}
	}

	p.SetFitted()
	return nil
}

// Transform は入力データを多項式基底へ展開する
func (p *PolynomialFeatures) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PolynomialFeatures", "Transform")
	}

	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PolynomialFeatures.Transform", p.NFeatures, c, 1)
	}

	result := mat.NewDense(r, len(p.powers), nil)
	for i := 0; i < r; i++ {
		for k, exp := range p.powers {
			val := 1.0
			for j, e := range exp {
				switch e {
				case 0:
					// 寄与なし
				case 1:
					val *= X.At(i, j)
				default:
					val *= math.Pow(X.At(i, j), float64(e))
				}
			}
			result.Set(i, k, val)
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (p *PolynomialFeatures) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// NOutputFeatures は変換後の特徴量数を返す
func (p *PolynomialFeatures) NOutputFeatures() int {
	return len(p.powers)
}

// String は変換器の文字列表現を返す
func (p *PolynomialFeatures) String() string {
	return fmt.Sprintf("PolynomialFeatures(degree=%d, include_bias=%t, interaction_only=%t)",
		p.Degree, p.IncludeBias, p.InteractionOnly)
}

// combinationsWithReplacement は n 個の要素から d 個を重複を許して選ぶ
// 組合せを辞書順で列挙する。d=0 のときは空の組合せを1つ返す。
func combinationsWithReplacement(n, d int) [][]int {
	if d == 0 {
		return [][]int{{}}
	}

	var result [][]int
	combo := make([]int, d)

	var build func(pos, start int)
	build = func(pos, start int) {
		if pos == d {
			out := make([]int, d)
			copy(out, combo)
			result = append(result, out)
			return
		}
		for idx := start; idx < n; idx++ {
			combo[pos] = idx
			build(pos+1, idx)
		}
	}
	build(0, 0)

	return result
}
