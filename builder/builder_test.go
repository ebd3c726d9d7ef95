package builder

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	forge "github.com/wasmforge/forge"
	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	m := &manifest.Manifest{Name: "proj", Version: "0.1.0", Entry: "build/proj.wasm"}
	if err := m.Save(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

// fakeTool writes a shell script that stands in for the compiler.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tinygo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuild(t *testing.T) {
	dir := project(t)
	// $3 is the -o output path. The output carries the wasm preamble so
	// it passes the artifact check.
	tool := fakeTool(t, `printf '\000asm\001\000\000\000fake' > "$3"`)

	b := New(WithTool(tool))
	res, err := b.Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if res.Artifact != filepath.Join(dir, "build", "proj.wasm") {
		t.Errorf("Artifact = %q", res.Artifact)
	}
	data, err := os.ReadFile(res.Artifact)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(data) != "\x00asm\x01\x00\x00\x00fake" {
		t.Errorf("artifact contents = %q", data)
	}
	if res.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", res.Size, len(data))
	}
	if res.Digest != forge.Digest(data) {
		t.Errorf("Digest = %q, want %q", res.Digest, forge.Digest(data))
	}
}

func TestBuildRejectsNonWasm(t *testing.T) {
	dir := project(t)
	tool := fakeTool(t, `printf 'definitely not wasm' > "$3"`)

	_, err := New(WithTool(tool)).Build(context.Background(), dir)
	if err == nil {
		t.Fatal("Build accepted a non-wasm artifact")
	}
	var fe *errors.Error
	if !stderrors.As(err, &fe) || fe.Kind != errors.KindInvalidData {
		t.Errorf("error = %v, want invalid artifact", err)
	}
}

func TestBuildToolFailure(t *testing.T) {
	dir := project(t)
	tool := fakeTool(t, `echo 'undefined: frobnicate' >&2; exit 1`)

	_, err := New(WithTool(tool)).Build(context.Background(), dir)
	if err == nil {
		t.Fatal("Build succeeded with a failing tool")
	}
	var te *errors.ToolError
	if !stderrors.As(err, &te) {
		t.Fatalf("error type %T, want *errors.ToolError: %v", err, err)
	}
	if !strings.Contains(te.Stderr, "undefined: frobnicate") {
		t.Errorf("Stderr = %q, want compiler output", te.Stderr)
	}
	if !strings.Contains(te.Error(), "undefined: frobnicate") {
		t.Errorf("Error() = %q, want it to include stderr", te.Error())
	}
}

func TestBuildToolMissing(t *testing.T) {
	dir := project(t)

	_, err := New(WithTool("no-such-compiler-on-path")).Build(context.Background(), dir)
	if err == nil {
		t.Fatal("Build succeeded with a missing tool")
	}
	var te *errors.ToolError
	if !stderrors.As(err, &te) {
		t.Fatalf("error type %T, want *errors.ToolError: %v", err, err)
	}
}

func TestBuildNoManifest(t *testing.T) {
	_, err := New().Build(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("Build succeeded without a manifest")
	}
	var fe *errors.Error
	if !stderrors.As(err, &fe) || fe.Kind != errors.KindNotFound {
		t.Errorf("error = %v, want manifest not found", err)
	}
}

func TestBuildDefaults(t *testing.T) {
	b := New()
	if b.tool != "tinygo" || b.target != "wasip1" {
		t.Errorf("defaults = %q %q, want tinygo wasip1", b.tool, b.target)
	}
}
