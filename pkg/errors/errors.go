// Package errors はライブラリ全体のエラーハンドリングと警告システムを提供します。
// 推定器の誤用（未学習での予測など）、構築時の設定・データ検証、
// 推定中の失敗（縮退フォールドなど）を構造化されたエラー型で区別します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	警告ハンドラ（プロセス全体で共有）
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// ハンドラ未設定時は標準エラー出力へ
		log.Printf("godml-Warning: %v\n", w)
	}
	// zerolog連携は循環importを避けるため関数値として遅延注入される
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを差し替えます。
// ConvergenceWarningなどの警告をどう扱うかを呼び出し側が決められます。
//
// 例（警告を握りつぶす場合）:
//
//	errors.SetWarningHandler(func(error) {})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerologによる警告出力関数を注入します。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。zerolog出力が注入されていればそちらへ、
// なければ警告ハンドラへ渡します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は反復ソルバが上限回数までに収束しなかったことを表す警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject は警告をzerologの構造化フィールドとして出力します。
func (w *ConvergenceWarning) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message)
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `ConfInt` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("godml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *NotFittedError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "NotFittedError").
		Str("model_name", e.ModelName).
		Str("method", e.Method)
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0が行、1が列（特徴量）
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("godml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *DimensionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "DimensionError").
		Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName())
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は構築時のパラメータ検証に失敗した場合のエラーです。
// スコア名・手続き名・フォールド数などの設定エラーは学習開始前にこの型で報告されます。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("godml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *ValidationError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "ValidationError").
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("godml: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// DataError は入力データが要件を満たさない場合のエラーです。
// 必須列の欠落、欠損値・非有限値、二値であるべき処置変数が二値でない場合など、
// データ構築時に即座に検出されます。
type DataError struct {
	Op     string
	Column string
	Reason string
}

func (e *DataError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("godml: %s: column %q: %s", e.Op, e.Column, e.Reason)
	}
	return fmt.Sprintf("godml: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *DataError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "DataError").
		Str("operation", e.Op).
		Str("column", e.Column).
		Str("reason", e.Reason)
}

// NewDataError は新しいDataErrorを作成し、スタックトレースを付与します。
func NewDataError(op, column, reason string) error {
	return errors.WithStack(&DataError{Op: op, Column: column, Reason: reason})
}

// DegenerateFoldError は交差適合中にフォールドが縮退した場合のエラーです。
// 例えば、傾向スコア推定においてあるフォールドの学習データで処置が一定値の場合など。
// 縮退したフォールドは黙ってスキップされず、その反復全体を無効にします。
type DegenerateFoldError struct {
	Fold       int
	Repetition int
	Treatment  string
	Reason     string
}

func (e *DegenerateFoldError) Error() string {
	return fmt.Sprintf("godml: degenerate fold %d (repetition %d, treatment %q): %s",
		e.Fold, e.Repetition, e.Treatment, e.Reason)
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *DegenerateFoldError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "DegenerateFoldError").
		Int("fold", e.Fold).
		Int("repetition", e.Repetition).
		Str("treatment", e.Treatment).
		Str("reason", e.Reason)
}

// NewDegenerateFoldError は新しいDegenerateFoldErrorを作成し、スタックトレースを付与します。
func NewDegenerateFoldError(fold, repetition int, treatment, reason string) error {
	return errors.WithStack(&DegenerateFoldError{Fold: fold, Repetition: repetition, Treatment: treatment, Reason: reason})
}

// EstimationError は学習・推定中の失敗を表すエラーです。
// ニュイサンス学習器の失敗やヤコビアンの非可逆性などをラップします。
type EstimationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *EstimationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("godml: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("godml: %s: %s", e.Op, e.Reason)
}

func (e *EstimationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はエラーをzerologの構造化フィールドとして出力します。
func (e *EstimationError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", "EstimationError").
		Str("operation", e.Op).
		Str("reason", e.Reason)
	if e.Err != nil {
		ev.Str("cause", e.Err.Error())
	}
}

// NewEstimationError は新しいEstimationErrorを作成し、スタックトレースを付与します。
func NewEstimationError(op, reason string, err error) error {
	return errors.WithStack(&EstimationError{Op: op, Reason: reason, Err: err})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf、オーバーフロー、アンダーフローなどを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "score_solve", "nuisance_prediction"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	// メッセージに載せる値は先頭5個まで
	shown := e.Values
	truncated := false
	if len(shown) > 5 {
		shown = shown[:5]
		truncated = true
	}
	parts := make([]string, 0, len(shown)+1)
	for _, v := range shown {
		parts = append(parts, fmt.Sprintf("%.6g", v))
	}
	if truncated {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("godml: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "))
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	cockroachdb/errors の再エクスポート
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空の行列・ベクトルが渡された場合の基底エラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は正規方程式の係数行列が特異な場合の基底エラーです。
	ErrSingularMatrix = New("singular matrix")
)
