package model

import "gonum.org/v1/gonum/mat"

// Transformer は共変量の前処理変換のインターフェース。
// 標準化や多項式展開など、ニュイサンス学習の前段で使われます。
type Transformer interface {
	// Fit は変換に必要な統計量を学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みの統計量でデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform は Fit と Transform を続けて実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
