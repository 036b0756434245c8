package model

import "gonum.org/v1/gonum/mat"

// Fitter は特徴量行列と単一列のターゲットで学習できるモデルのインターフェース。
// ニュイサンス学習器は交差適合の各フォールドでこの Fit を呼ばれます。
type Fitter interface {
	// Fit は特徴量行列 X とターゲット y でモデルを学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は学習済みモデルによる予測のインターフェース
type Predictor interface {
	// Predict は X の各行に対する予測値を単一列の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は学習状態を持つモデルの基本インターフェース
type Estimator interface {
	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
	// Reset はモデルを未学習状態に戻す
	Reset()
}

// LinearModel は線形ニュイサンスモデルが公開する係数情報のインターフェース。
// 残差化の回帰に使う学習器（Ridge、Lasso など）が実装します。
type LinearModel interface {
	// Weights は学習後の係数ベクトルを返す
	Weights() []float64
	// Intercept は学習後の切片項を返す
	Intercept() float64
	// Score は予測の決定係数 R² を返す
	Score(X, y mat.Matrix) (float64, error)
}
