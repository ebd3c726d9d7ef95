package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wasmforge/forge/errors"
)

func TestInspect(t *testing.T) {
	ctx := context.Background()
	wasm := buildModule(map[string]int32{"ping": 0, "boom": 1})

	report, err := Inspect(ctx, wasm)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if !strings.HasPrefix(report.Digest, "sha256:") {
		t.Errorf("Digest = %q, want sha256: prefix", report.Digest)
	}
	if report.Size != len(wasm) {
		t.Errorf("Size = %d, want %d", report.Size, len(wasm))
	}

	if len(report.Exports) != 2 {
		t.Fatalf("Exports = %v, want two entries", report.Exports)
	}
	// Sorted by name: boom, ping.
	if report.Exports[0].Name != "boom" || report.Exports[1].Name != "ping" {
		t.Errorf("export order = %v", report.Exports)
	}
	for _, e := range report.Exports {
		if len(e.Params) != 0 {
			t.Errorf("%s params = %v, want none", e.Name, e.Params)
		}
		if len(e.Results) != 1 || e.Results[0] != "i32" {
			t.Errorf("%s results = %v, want [i32]", e.Name, e.Results)
		}
	}

	if len(report.Imports) != 0 {
		t.Errorf("Imports = %v, want none", report.Imports)
	}
}

func TestInspectInvalid(t *testing.T) {
	if _, err := Inspect(context.Background(), []byte("nope")); err == nil {
		t.Fatal("Inspect accepted invalid wasm")
	}
}

func TestInspectComponent(t *testing.T) {
	component := []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}
	_, err := Inspect(context.Background(), component)
	wantKind(t, err, errors.PhaseInspect, errors.KindUnsupported)
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.wasm")
	wasm := buildModule(map[string]int32{"ping": 0})
	if err := os.WriteFile(path, wasm, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := InspectFile(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectFile: %v", err)
	}
	if len(report.Exports) != 1 || report.Exports[0].Name != "ping" {
		t.Errorf("Exports = %v", report.Exports)
	}

	if _, err := InspectFile(context.Background(), filepath.Join(dir, "absent.wasm")); err == nil {
		t.Error("InspectFile accepted a missing path")
	}
}
