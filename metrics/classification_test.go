package metrics

import (
	"math"
	"testing"
)

func TestLogLoss(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     []float64
		yProba    []float64
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "confident correct predictions",
			yTrue:     []float64{1, 0, 1, 0},
			yProba:    []float64{0.9, 0.1, 0.8, 0.2},
			want:      -(math.Log(0.9) + math.Log(0.9) + math.Log(0.8) + math.Log(0.8)) / 4,
			tolerance: 1e-10,
			wantErr:   false,
		},
		{
			name:      "uninformative predictions",
			yTrue:     []float64{1, 0, 1, 0},
			yProba:    []float64{0.5, 0.5, 0.5, 0.5},
			want:      math.Log(2),
			tolerance: 1e-10,
			wantErr:   false,
		},
		{
			name:    "extreme probabilities are clipped, not infinite",
			yTrue:   []float64{1, 0},
			yProba:  []float64{0.0, 1.0},
			wantErr: false,
		},
		{
			name:    "non-binary labels",
			yTrue:   []float64{1, 2},
			yProba:  []float64{0.5, 0.5},
			wantErr: true,
		},
		{
			name:    "dimension mismatch",
			yTrue:   []float64{1, 0},
			yProba:  []float64{0.5},
			wantErr: true,
		},
		{
			name:    "empty input",
			yTrue:   nil,
			yProba:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LogLoss(tt.yTrue, tt.yProba)

			if (err != nil) != tt.wantErr {
				t.Errorf("LogLoss() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// クリップされた場合でも有限値であること
			if math.IsInf(got, 0) || math.IsNaN(got) {
				t.Fatalf("LogLoss() = %v, want finite value", got)
			}

			if tt.tolerance > 0 && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("LogLoss() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBrierScore(t *testing.T) {
	got, err := BrierScore([]float64{1, 0, 1, 0}, []float64{0.8, 0.2, 0.6, 0.4})
	if err != nil {
		t.Fatalf("BrierScore() error = %v", err)
	}
	// ((0.2)^2 + (0.2)^2 + (0.4)^2 + (0.4)^2) / 4 = 0.1
	if math.Abs(got-0.1) > 1e-10 {
		t.Errorf("BrierScore() = %v, want 0.1", got)
	}

	if _, err := BrierScore(nil, nil); err == nil {
		t.Error("BrierScore() should reject empty input")
	}
}

func TestAccuracy(t *testing.T) {
	got, err := Accuracy([]float64{1, 0, 1, 0}, []float64{0.9, 0.4, 0.3, 0.6})
	if err != nil {
		t.Fatalf("Accuracy() error = %v", err)
	}
	// 正解は2つ（最初の2要素）
	if math.Abs(got-0.5) > 1e-10 {
		t.Errorf("Accuracy() = %v, want 0.5", got)
	}
}
