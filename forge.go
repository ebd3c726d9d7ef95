package forge

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/wasmforge/forge/manifest"
)

// ManifestName is the file name of an extension project manifest.
const ManifestName = manifest.Filename

// Version is the toolkit version. Release builds override it with
// -ldflags "-X github.com/wasmforge/forge.Version=...".
var Version = "0.1.0"

// Digest returns the canonical digest of artifact bytes, rendered
// "sha256:<hex>". Deployment records and build outputs use this form.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// DigestFile returns the canonical digest of a file's contents without
// buffering the whole artifact.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// wasmPreamble is the core module header: "\0asm" magic followed by
// binary format version 1, both little-endian.
var wasmPreamble = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// IsWasm reports whether data begins with the core wasm module
// preamble. It does not validate anything beyond the header.
func IsWasm(data []byte) bool {
	return bytes.HasPrefix(data, wasmPreamble)
}

// CheckWasmFile verifies that the file at path starts with the core
// wasm module preamble, guarding against a compiler that wrote a
// non-module output or a truncated artifact.
func CheckWasmFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(wasmPreamble))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%s is not a wasm module: %w", path, err)
	}
	if !IsWasm(header) {
		return fmt.Errorf("%s is not a wasm module", path)
	}
	return nil
}
