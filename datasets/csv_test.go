package datasets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/YuminosukeSato/godml/pkg/errors"
)

func TestLoadCSV(t *testing.T) {
	in := "wage,train,age\n" +
		"12.5,0,25\n" +
		"18.0,1,35\n" +
		"21.25,1,45\n"

	ds, err := LoadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if ds.NumRows() != 3 || ds.NumColumns() != 3 {
		t.Fatalf("dims = %dx%d, want 3x3", ds.NumRows(), ds.NumColumns())
	}
	names := ds.Names()
	if names[0] != "wage" || names[1] != "train" || names[2] != "age" {
		t.Errorf("Names() = %v, want [wage train age]", names)
	}
	wage, err := ds.Column("wage")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	if wage[2] != 21.25 {
		t.Errorf("wage[2] = %v, want 21.25", wage[2])
	}
}

func TestLoadCSV_RejectsBadCells(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing marker", "a,b\n1,NA\n"},
		{"empty cell", "a,b\n1,\n"},
		{"text cell", "a,b\n1,hello\n"},
		{"nan literal", "a,b\n1,NaN\n"},
		{"inf literal", "a,b\n1,+Inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected an error")
			}
			var dataErr *pkgerrors.DataError
			if !pkgerrors.As(err, &dataErr) {
				t.Errorf("want DataError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadCSV_RaggedRow(t *testing.T) {
	in := "a,b\n1,2\n3\n"
	if _, err := LoadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected an error for a ragged row")
	}
}

func TestLoadCSV_Empty(t *testing.T) {
	for _, in := range []string{"", "a,b\n"} {
		_, err := LoadCSV(strings.NewReader(in))
		if err == nil {
			t.Fatal("expected an error for empty input")
		}
		if !pkgerrors.Is(err, pkgerrors.ErrEmptyData) {
			t.Errorf("want ErrEmptyData, got %v", err)
		}
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	orig, err := NewDataset(
		[]string{"y", "d", "x1"},
		[][]float64{{1.5, -2.25, 0.1}, {0, 1, 1}, {3.14159265358979, 1e-12, 42}},
	)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	var buf strings.Builder
	if err := orig.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := LoadCSV(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadCSV of written output failed: %v", err)
	}
	if got.NumRows() != orig.NumRows() || got.NumColumns() != orig.NumColumns() {
		t.Fatalf("dims = %dx%d, want %dx%d",
			got.NumRows(), got.NumColumns(), orig.NumRows(), orig.NumColumns())
	}
	for _, name := range orig.Names() {
		want, _ := orig.Column(name)
		have, err := got.Column(name)
		if err != nil {
			t.Fatalf("Column(%q) failed: %v", name, err)
		}
		for i := range want {
			if have[i] != want[i] {
				t.Errorf("%s[%d] = %v, want %v exactly", name, i, have[i], want[i])
			}
		}
	}
}

func TestWriteCSVFile(t *testing.T) {
	ds, err := NewDataset([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ds.WriteCSVFile(path); err != nil {
		t.Fatalf("WriteCSVFile failed: %v", err)
	}

	back, err := LoadCSVFile(path)
	if err != nil {
		t.Fatalf("LoadCSVFile failed: %v", err)
	}
	if back.NumRows() != 2 || back.NumColumns() != 2 {
		t.Errorf("dims = %dx%d, want 2x2", back.NumRows(), back.NumColumns())
	}

	if err := ds.WriteCSVFile(filepath.Join(t.TempDir(), "no", "such", "dir.csv")); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.csv")
	content := "y,d,x1\n1.5,0,2.0\n2.5,1,3.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	ds, err := LoadCSVFile(path)
	if err != nil {
		t.Fatalf("LoadCSVFile failed: %v", err)
	}
	if ds.NumRows() != 2 {
		t.Errorf("NumRows() = %d, want 2", ds.NumRows())
	}

	if _, err := LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
