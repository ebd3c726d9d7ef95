package main

import (
	"path/filepath"
	"testing"
)

func TestSplitRef(t *testing.T) {
	cases := []struct {
		ref     string
		name    string
		version string
	}{
		{"greeter", "greeter", ""},
		{"greeter@0.1.0", "greeter", "0.1.0"},
		{"greeter@latest", "greeter", "latest"},
		{"odd@name@1.0", "odd@name", "1.0"},
	}
	for _, tc := range cases {
		name, version := splitRef(tc.ref)
		if name != tc.name || version != tc.version {
			t.Errorf("splitRef(%q) = %q, %q, want %q, %q",
				tc.ref, name, version, tc.name, tc.version)
		}
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.n); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestShortDigest(t *testing.T) {
	digest := "sha256:0123456789abcdef0123456789abcdef"
	if got := shortDigest(digest); got != "0123456789ab" {
		t.Errorf("shortDigest = %q", got)
	}
	if got := shortDigest("sha256:abc"); got != "abc" {
		t.Errorf("shortDigest short input = %q", got)
	}
}

func TestProjectDir(t *testing.T) {
	dir, err := projectDir([]string{"/tmp/demo"})
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/demo" {
		t.Errorf("projectDir = %q", dir)
	}

	dir, err = projectDir(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("projectDir() = %q, want absolute", dir)
	}
}
