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
				Phase:  PhaseManifest,
				Kind:   KindInvalidData,
				Path:   []string{"exports", "tac"},
				Detail: "unparseable signature",
			},
			contains: []string{"[manifest]", "invalid_data", "exports.tac", "unparseable signature"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCall,
				Kind:  KindNotFound,
			},
			contains: []string{"[call]", "not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindIO,
				Detail: "read module",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "io", "read module", "caused by", "underlying error"},
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
		Phase: PhaseBuild,
		Kind:  KindExec,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not match cause through Unwrap")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := NotFound(PhaseCall, "function", "tac")

	if !errors.Is(err, &Error{Phase: PhaseCall, Kind: KindNotFound}) {
		t.Error("expected match on phase+kind")
	}
	if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindNotFound}) {
		t.Error("unexpected match across phases")
	}
	if errors.Is(err, &Error{Phase: PhaseCall, Kind: KindIO}) {
		t.Error("unexpected match across kinds")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseDeploy, KindConflict).
		Path("store", "sample").
		Detail("version %s already deployed", "0.1.0").
		Value("0.1.0").
		Cause(cause).
		Build()

	if err.Phase != PhaseDeploy || err.Kind != KindConflict {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "version 0.1.0 already deployed" {
		t.Errorf("detail not formatted: %q", err.Detail)
	}
	if err.Value != "0.1.0" {
		t.Errorf("value not set: %v", err.Value)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if got := NotFound(PhaseRegistry, "extension", "sample").Error(); !strings.Contains(got, `extension "sample" not found`) {
		t.Errorf("NotFound message: %q", got)
	}
	if got := InvalidInput(PhaseScaffold, "bad name").Kind; got != KindInvalidInput {
		t.Errorf("InvalidInput kind: %s", got)
	}
	if got := Conflict(PhaseScaffold, "directory not empty").Phase; got != PhaseScaffold {
		t.Errorf("Conflict phase: %s", got)
	}

	cause := errors.New("no such file")
	ioErr := IO(PhaseLoad, "read module", cause)
	if !errors.Is(ioErr, cause) {
		t.Error("IO cause not reachable")
	}

	regErr := Registration("extism:host/user", "kv-read", cause)
	if regErr.Phase != PhaseHost || regErr.Kind != KindRegistration {
		t.Errorf("Registration phase/kind: %s/%s", regErr.Phase, regErr.Kind)
	}
	if strings.Join(regErr.Path, ".") != "extism:host/user.kv-read" {
		t.Errorf("Registration path: %v", regErr.Path)
	}
}

func TestToolError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &ToolError{
		Tool:   "tinygo",
		Args:   []string{"build", "-o", "sample.wasm"},
		Stderr: "main.go:3: undefined: pdk\n",
		Err:    cause,
	}

	msg := err.Error()
	for _, s := range []string{"tinygo build -o sample.wasm", "exit status 1", "undefined: pdk"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q missing %q", msg, s)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}

	var tool *ToolError
	if !errors.As(error(err), &tool) {
		t.Error("errors.As failed")
	}
}
