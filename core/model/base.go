package model

// EstimatorState はモデルのライフサイクル上の状態を表す列挙型。
type EstimatorState int

const (
	// NotFitted は Fit がまだ呼ばれていない初期状態
	NotFitted EstimatorState = iota
	// Fitting は Fit の実行中（並行フィットの検出に使う）
	Fitting
	// Fitted は Fit が正常に完了した状態
	Fitted
	// Failed は直近の Fit が失敗した状態（次の Fit が成功するまで推論不可）
	Failed
)

// String は状態の表示名を返す
func (s EstimatorState) String() string {
	switch s {
	case NotFitted:
		return "not fitted"
	case Fitting:
		return "fitting"
	case Fitted:
		return "fitted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// BaseEstimator は前処理系の型が埋め込む最小の状態ホルダ。
// 排他制御や NotFitted 以外の遷移が必要なモデルは StateManager を使う。
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted は Fit 済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は Fit の完了を記録する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset は未学習状態に戻す
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
