package forge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	// sha256 of empty input is a fixed constant
	empty := Digest(nil)
	if empty != "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty digest = %s", empty)
	}

	a := Digest([]byte("abc"))
	b := Digest([]byte("abc"))
	if a != b {
		t.Error("digest not deterministic")
	}
	if a == empty {
		t.Error("distinct content produced equal digests")
	}
	if !strings.HasPrefix(a, "sha256:") {
		t.Errorf("digest missing prefix: %s", a)
	}
}

func TestDigestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.wasm")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := DigestFile(path)
	if err != nil {
		t.Fatalf("digest file: %v", err)
	}
	if want := Digest([]byte("abc")); got != want {
		t.Errorf("DigestFile = %s, want %s", got, want)
	}
}

func TestDigestFile_Missing(t *testing.T) {
	if _, err := DigestFile(filepath.Join(t.TempDir(), "nope.wasm")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsWasm(t *testing.T) {
	module := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00, 0xFF}
	if !IsWasm(module) {
		t.Error("preamble not recognized")
	}
	for _, data := range [][]byte{nil, []byte("GIF89a"), module[:4]} {
		if IsWasm(data) {
			t.Errorf("IsWasm(%q) = true", data)
		}
	}
}

func TestCheckWasmFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.wasm")
	if err := os.WriteFile(good, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckWasmFile(good); err != nil {
		t.Errorf("CheckWasmFile(good) = %v", err)
	}

	bad := filepath.Join(dir, "bad.wasm")
	if err := os.WriteFile(bad, []byte("#!/bin/sh"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckWasmFile(bad); err == nil {
		t.Error("CheckWasmFile accepted a shell script")
	}

	short := filepath.Join(dir, "short.wasm")
	if err := os.WriteFile(short, []byte{0x00, 0x61}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckWasmFile(short); err == nil {
		t.Error("CheckWasmFile accepted a truncated header")
	}

	if err := CheckWasmFile(filepath.Join(dir, "absent.wasm")); err == nil {
		t.Error("CheckWasmFile accepted a missing file")
	}
}
