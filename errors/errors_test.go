package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseAnalysis,
				Kind:    KindUnresolved,
				Path:    []string{"component", "instance", "export"},
				WitType: "own<counter>",
				Detail:  "type index out of range",
			},
			contains: []string{"[analysis]", "unresolved", "component.instance.export", "own<counter>", "type index out of range"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseParse,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[parse]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindInvalidData,
				Detail: "code section",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[encode]", "invalid_data", "code section", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseParse,
		Kind:  KindUnsupported,
		Path:  []string{"foo"},
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseParse, Kind: KindUnsupported}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindUnsupported}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseParse, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is
	target := &Error{Phase: PhaseParse, Kind: KindUnsupported}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAnalysis, KindUnresolved).
		Path("instance", "exports").
		WitType("record").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "func", "value").
		Build()

	if err.Phase != PhaseAnalysis {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAnalysis)
	}
	if err.Kind != KindUnresolved {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnresolved)
	}
	if len(err.Path) != 2 || err.Path[0] != "instance" || err.Path[1] != "exports" {
		t.Errorf("Path = %v, want [instance exports]", err.Path)
	}
	if err.WitType != "record" {
		t.Errorf("WitType = %v, want 'record'", err.WitType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected func, got value" {
		t.Errorf("Detail = %v, want 'expected func, got value'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseParse, "GC proposal is not supported")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
		if !strings.Contains(err.Detail, "GC proposal") {
			t.Errorf("Detail = %v, should name the proposal", err.Detail)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		err := Malformed(PhaseParse, []string{"type section"}, "truncated vector")
		if err.Kind != KindMalformed {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformed)
		}
	})

	t.Run("Unresolved", func(t *testing.T) {
		err := Unresolved(PhaseAnalysis, "component type", 7)
		if err.Kind != KindUnresolved {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnresolved)
		}
		if err.Value != uint32(7) {
			t.Errorf("Value = %v, want 7", err.Value)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseParse, []string{"exports"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Internal", func(t *testing.T) {
		err := Internal(PhaseAnalysis, "component stack underflow")
		if err.Kind != KindInternal {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInternal)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("io failure")
		err := Wrap(PhaseParse, KindMalformed, cause, "reading module header")
		if !errors.Is(err, &Error{Phase: PhaseParse, Kind: KindMalformed}) {
			t.Error("wrapped error should match phase and kind")
		}
		if !errors.Is(err, cause) {
			t.Error("wrapped error should unwrap to cause")
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("core module", errors.New("bad opcode"))
		if err.Phase != PhaseParse {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
		}
		if !strings.Contains(err.Detail, "core module") {
			t.Errorf("Detail = %v, should name the region", err.Detail)
		}
	})

	t.Run("EncodeFailed", func(t *testing.T) {
		err := EncodeFailed("data segment", errors.New("dropped payload"))
		if err.Phase != PhaseEncode {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
		}
	})
}
