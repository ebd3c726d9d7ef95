package manifest

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/wasmforge/forge/errors"
)

// Filename is the manifest looked up in a project directory.
const Filename = "forge.json"

var nameRE = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidName reports whether name is usable as a module or bundle name:
// lowercase ASCII letters, digits, '-' and '_', starting with a letter,
// at most 64 bytes.
func ValidName(name string) bool {
	return len(name) <= 64 && nameRE.MatchString(name)
}

// Manifest describes one extension module: where its artifact lives,
// what it exports, and what the host grants it at load time.
type Manifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version,omitempty"`
	Entry        string            `json:"entry"`
	Exports      []string          `json:"exports,omitempty"`
	AllowedHosts []string          `json:"allowed_hosts,omitempty"`
	AllowedPaths map[string]string `json:"allowed_paths,omitempty"`
	Config       map[string]string `json:"config,omitempty"`
	Bundles      []string          `json:"bundles,omitempty"`
	TimeoutMS    uint64            `json:"timeout_ms,omitempty"`
}

// Load reads and validates a manifest. path may be the manifest file
// itself or a project directory containing one.
func Load(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, Filename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound(errors.PhaseManifest, "manifest", path)
		}
		return nil, errors.IO(errors.PhaseManifest, "read "+path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.PhaseManifest, errors.KindInvalidData).
			Value(path).
			Cause(err).
			Detail("decode manifest").
			Build()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest as indented JSON. path may be the target file
// or an existing directory, in which case Filename is appended.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, Filename)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInternal, err, "encode manifest")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IO(errors.PhaseManifest, "write "+path, err)
	}
	return nil
}

// Validate checks structural requirements; it does not touch the
// filesystem, so a manifest whose entry has not been built yet still
// validates.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.InvalidData(errors.PhaseManifest, []string{"name"}, "required")
	}
	if !ValidName(m.Name) {
		return errors.New(errors.PhaseManifest, errors.KindInvalidData).
			Path("name").
			Value(m.Name).
			Detail("must start with a lowercase letter and contain only [a-z0-9_-]").
			Build()
	}
	if m.Entry == "" {
		return errors.InvalidData(errors.PhaseManifest, []string{"entry"}, "required")
	}
	for _, b := range m.Bundles {
		if !ValidName(b) {
			return errors.New(errors.PhaseManifest, errors.KindInvalidData).
				Path("bundles").
				Value(b).
				Detail("invalid bundle name").
				Build()
		}
	}
	if _, err := m.Signatures(); err != nil {
		return err
	}
	return nil
}

// EntryPath resolves the artifact location against the directory the
// manifest was loaded from. Absolute entries pass through unchanged.
func (m *Manifest) EntryPath(baseDir string) string {
	if filepath.IsAbs(m.Entry) {
		return m.Entry
	}
	return filepath.Join(baseDir, m.Entry)
}
