// Package scaffold generates new extension projects: a TinyGo guest
// module exporting the demo functions, its manifest, and the files
// around them. The generated project builds with `forge develop` as-is.
package scaffold

import (
	"embed"
	"os"
	"path/filepath"
	"text/template"

	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// One rendered file per template; out paths are relative to the
// project directory.
var files = []struct {
	tmpl string
	out  string
}{
	{"go.mod.tmpl", "go.mod"},
	{"main.go.tmpl", "main.go"},
	{"forge.json.tmpl", manifest.Filename},
	{"README.md.tmpl", "README.md"},
	{"Dockerfile.tmpl", "Dockerfile"},
	{"gitignore.tmpl", ".gitignore"},
	{"sample.txt.tmpl", filepath.Join("data", "sample.txt")},
}

type templateData struct {
	Name string
}

// Create generates a project named name under parent and returns the
// project directory. The target must not exist yet, or must be an
// empty directory; anything else is a conflict.
func Create(parent, name string) (string, error) {
	if !manifest.ValidName(name) {
		return "", errors.New(errors.PhaseScaffold, errors.KindInvalidInput).
			Value(name).
			Detail("project name must start with a lowercase letter and contain only [a-z0-9_-]").
			Build()
	}

	dir := filepath.Join(parent, name)
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		return "", errors.Conflict(errors.PhaseScaffold, "directory not empty: "+dir)
	case err != nil && !os.IsNotExist(err):
		return "", errors.IO(errors.PhaseScaffold, "stat "+dir, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		return "", errors.IO(errors.PhaseScaffold, "create "+dir, err)
	}

	data := templateData{Name: name}
	for _, f := range files {
		if err := render(filepath.Join(dir, f.out), f.tmpl, data); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func render(path, tmpl string, data templateData) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.IO(errors.PhaseScaffold, "create "+path, err)
	}
	defer f.Close()

	if err := templates.ExecuteTemplate(f, tmpl, data); err != nil {
		return errors.Wrap(errors.PhaseScaffold, errors.KindInternal, err, "render "+tmpl)
	}
	return nil
}
