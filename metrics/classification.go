package metrics

import (
	"github.com/YuminosukeSato/godml/pkg/errors"
)

// LogLoss は二値分類の対数損失（交差エントロピー）を計算する。
// yTrue は {0, 1}、yProba は陽性クラスの予測確率。
// 確率は log(0) を避けるために内部でクリップされる。
func LogLoss(yTrue, yProba []float64) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty slice")
	}

	if len(yProba) != n {
		return 0, errors.NewDimensionError("LogLoss", n, len(yProba), 0)
	}

	// LogLoss = -(1/n) * Σ[y*log(p) + (1-y)*log(1-p)]
	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue[i]
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("LogLoss", "yTrue must contain only 0 and 1")
		}
		p := yProba[i]
		sum += y*errors.StabilizeLog(p) + (1-y)*errors.StabilizeLog(1-p)
	}

	return -sum / float64(n), nil
}

// BrierScore は二値分類のブライアスコアを計算する。
// 予測確率と実現値の平均二乗距離であり、小さいほど良い。
func BrierScore(yTrue, yProba []float64) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("BrierScore", "empty slice")
	}

	if len(yProba) != n {
		return 0, errors.NewDimensionError("BrierScore", n, len(yProba), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yProba[i] - yTrue[i]
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// Accuracy は二値分類の正解率を計算する。
// 予測確率は閾値 0.5 でクラスに変換される。
func Accuracy(yTrue, yProba []float64) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty slice")
	}

	if len(yProba) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yProba), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		pred := 0.0
		if yProba[i] >= 0.5 {
			pred = 1.0
		}
		if pred == yTrue[i] {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}
