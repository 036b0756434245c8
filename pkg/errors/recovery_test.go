package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover(t *testing.T) {
	t.Run("no panic leaves err unset", func(t *testing.T) {
		fn := func() (err error) {
			defer Recover(&err, "NuisanceFit")
			return nil
		}
		if err := fn(); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		fn := func() (err error) {
			defer Recover(&err, "NuisanceFit")
			panic("index out of range in gradient step")
		}

		err := fn()
		if err == nil {
			t.Fatal("recovered panic should surface as an error")
		}

		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("err has type %T, want *PanicError", err)
		}
		if panicErr.Operation != "NuisanceFit" {
			t.Errorf("Operation = %q, want %q", panicErr.Operation, "NuisanceFit")
		}
		if panicErr.PanicValue != "index out of range in gradient step" {
			t.Errorf("PanicValue = %v, want the original panic string", panicErr.PanicValue)
		}
		if panicErr.StackTrace == "" {
			t.Error("StackTrace should be captured at recovery time")
		}
		want := "panic in NuisanceFit: index out of range in gradient step"
		if panicErr.Error() != want {
			t.Errorf("Error() = %q, want %q", panicErr.Error(), want)
		}
	})

	t.Run("panic wraps an already-set error", func(t *testing.T) {
		original := fmt.Errorf("learner rejected the training slice")
		fn := func() (err error) {
			defer Recover(&err, "CrossFit")
			err = original
			panic("panic after error")
		}

		err := fn()
		if err == nil {
			t.Fatal("expected an error combining panic and original")
		}
		if msg := err.Error(); !strings.Contains(msg, "panic in CrossFit") {
			t.Errorf("message %q should mention the panic", msg)
		}
		if msg := err.Error(); !strings.Contains(msg, "learner rejected the training slice") {
			t.Errorf("message %q should keep the original error text", msg)
		}
		if !errors.Is(err, original) {
			t.Error("errors.Is should still match the original error")
		}
	})
}

func TestRecover_PanicValueTypes(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
		// want is matched as a substring: panic(nil) arrives as
		// *runtime.PanicNilError, whose message carries a trailing
		// issue reference that would make an exact match brittle.
		want string
	}{
		{"string panic", "string panic", "string panic"},
		{"int panic", 42, "42"},
		{"error panic", fmt.Errorf("error as panic"), "error as panic"},
		{"nil panic", nil, "panic called with nil argument"},
		{"struct panic", struct{ Msg string }{"struct message"}, "{struct message}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn := func() (err error) {
				defer Recover(&err, "TypeTest")
				panic(tc.panicValue)
			}

			err := fn()
			if err == nil {
				t.Fatal("recovered panic should surface as an error")
			}

			var panicErr *PanicError
			if !errors.As(err, &panicErr) {
				t.Fatalf("err has type %T, want *PanicError", err)
			}
			if got := fmt.Sprintf("%v", panicErr.PanicValue); !strings.Contains(got, tc.want) {
				t.Errorf("panic value %q does not contain %q", got, tc.want)
			}
		})
	}
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		if err := SafeExecute("fold fit", func() error { return nil }); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
	})

	t.Run("function error passes through", func(t *testing.T) {
		original := fmt.Errorf("fold fit error")
		if err := SafeExecute("fold fit", func() error { return original }); err != original {
			t.Fatalf("err = %v, want the function's own error", err)
		}
	})

	t.Run("panic is converted", func(t *testing.T) {
		err := SafeExecute("fold fit", func() error {
			panic("mat: dimension mismatch")
		})
		if err == nil {
			t.Fatal("panicking function should yield an error")
		}

		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("err has type %T, want *PanicError", err)
		}
		if panicErr.PanicValue != "mat: dimension mismatch" {
			t.Errorf("PanicValue = %v, want the gonum panic string", panicErr.PanicValue)
		}
	})
}

func TestPanicError(t *testing.T) {
	panicErr := NewPanicError("ScoreSolve", "test value")

	want := "panic in ScoreSolve: test value"
	if panicErr.Error() != want {
		t.Errorf("Error() = %q, want %q", panicErr.Error(), want)
	}

	str := panicErr.String()
	if !strings.Contains(str, "Stack trace:") {
		t.Error("String() should include the stack trace section")
	}
	if !strings.Contains(str, want) {
		t.Error("String() should include the basic message")
	}

	if panicErr.Unwrap() != nil {
		t.Error("Unwrap() should return nil")
	}
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
