// Package registry keeps deployed extension modules in a local store:
// artifacts and their manifests live under a content directory, and a
// sqlite index records name, version and digest so releases can be
// listed and resolved without touching the artifacts.
package registry

import (
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	forge "github.com/wasmforge/forge"
	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

// Latest resolves to the most recently deployed release of a module.
const Latest = "latest"

var versionRE = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]*$`)

// Release is one deployed version of an extension module.
type Release struct {
	ID        string
	Name      string
	Version   string
	Digest    string
	Size      int64
	Artifact  string // artifact path inside the store
	Manifest  string // stored manifest path, loadable by the host
	CreatedAt time.Time
}

// Ref renders the release as name@version.
func (r *Release) Ref() string {
	return r.Name + "@" + r.Version
}

// Registry is a local deployment store. It is safe for concurrent use.
type Registry struct {
	db    *sql.DB
	store string
	mu    sync.RWMutex
}

// Open opens or creates the registry index at indexPath and its
// artifact store under storeDir.
func Open(indexPath, storeDir string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, errors.IO(errors.PhaseRegistry, "create index directory", err)
	}
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, errors.IO(errors.PhaseRegistry, "create store directory", err)
	}

	db, err := sql.Open("sqlite", indexPath)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "open index")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindIO, err, "open index")
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "apply schema")
	}

	return &Registry{db: db, store: storeDir}, nil
}

// Close releases the index database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Deploy copies the project's built artifact into the store and
// records the release. The project must have been built first; the
// same name and version cannot be deployed twice.
func (r *Registry) Deploy(dir string) (*Release, error) {
	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	if m.Version == "" || !versionRE.MatchString(m.Version) {
		return nil, errors.InvalidInput(errors.PhaseDeploy,
			"manifest version must be a plain version string like 0.1.0")
	}

	src := m.EntryPath(dir)
	info, err := os.Stat(src)
	if err != nil {
		return nil, errors.New(errors.PhaseDeploy, errors.KindNotFound).
			Path(m.Name).
			Cause(err).
			Detail("entry artifact missing, build the project first").
			Build()
	}
	if err := forge.CheckWasmFile(src); err != nil {
		return nil, errors.New(errors.PhaseDeploy, errors.KindInvalidData).
			Path(src).
			Cause(err).
			Detail("entry artifact is not a wasm module").
			Build()
	}

	digest, err := forge.DigestFile(src)
	if err != nil {
		return nil, errors.IO(errors.PhaseDeploy, "digest artifact", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var one int
	err = r.db.QueryRow(
		`SELECT 1 FROM releases WHERE name = ? AND version = ?`,
		m.Name, m.Version,
	).Scan(&one)
	switch {
	case err == nil:
		return nil, errors.Conflict(errors.PhaseDeploy, m.Name+"@"+m.Version+" is already deployed")
	case err != sql.ErrNoRows:
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "query release")
	}

	destDir := filepath.Join(r.store, m.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.IO(errors.PhaseRegistry, "create module store", err)
	}

	artifact := filepath.Join(destDir, m.Version+".wasm")
	if err := copyFile(src, artifact); err != nil {
		return nil, errors.IO(errors.PhaseRegistry, "store artifact", err)
	}

	// The stored manifest points at the stored artifact so the host
	// can load a release directly from the store.
	stored := *m
	stored.Entry = m.Version + ".wasm"
	manifestPath := filepath.Join(destDir, m.Version+".json")
	if err := stored.Save(manifestPath); err != nil {
		return nil, err
	}

	rel := &Release{
		ID:        uuid.New().String(),
		Name:      m.Name,
		Version:   m.Version,
		Digest:    digest,
		Size:      info.Size(),
		Artifact:  artifact,
		Manifest:  manifestPath,
		CreatedAt: time.Now().UTC(),
	}

	// created_at is stored as unix nanoseconds so latest-resolution
	// orders correctly regardless of how the driver formats times.
	_, err = r.db.Exec(`
		INSERT INTO releases (id, name, version, digest, size, artifact, manifest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rel.ID, rel.Name, rel.Version, rel.Digest, rel.Size, rel.Artifact, rel.Manifest, rel.CreatedAt.UnixNano())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "record release")
	}

	return rel, nil
}

// Resolve finds a deployed release. An empty version or Latest picks
// the most recent deployment of the module.
func (r *Registry) Resolve(name, version string) (*Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var row *sql.Row
	if version == "" || version == Latest {
		row = r.db.QueryRow(`
			SELECT id, name, version, digest, size, artifact, manifest, created_at
			FROM releases WHERE name = ?
			ORDER BY created_at DESC, version DESC LIMIT 1
		`, name)
	} else {
		row = r.db.QueryRow(`
			SELECT id, name, version, digest, size, artifact, manifest, created_at
			FROM releases WHERE name = ? AND version = ?
		`, name, version)
	}

	rel, err := scanRelease(row)
	if err == sql.ErrNoRows {
		ref := name
		if version != "" {
			ref += "@" + version
		}
		return nil, errors.NotFound(errors.PhaseRegistry, "release", ref)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "resolve release")
	}
	return rel, nil
}

// List returns every deployed release, newest first within a module.
func (r *Registry) List() ([]*Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.Query(`
		SELECT id, name, version, digest, size, artifact, manifest, created_at
		FROM releases ORDER BY name ASC, created_at DESC
	`)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "list releases")
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "scan release")
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "list releases")
	}
	return releases, nil
}

// Remove deletes a release from the index and the store.
func (r *Registry) Remove(name, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`DELETE FROM releases WHERE name = ? AND version = ?`, name, version)
	if err != nil {
		return errors.Wrap(errors.PhaseRegistry, errors.KindInternal, err, "delete release")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.NotFound(errors.PhaseRegistry, "release", name+"@"+version)
	}

	destDir := filepath.Join(r.store, name)
	os.Remove(filepath.Join(destDir, version+".wasm"))
	os.Remove(filepath.Join(destDir, version+".json"))
	os.Remove(destDir) // only succeeds once the module has no releases left
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRelease(row rowScanner) (*Release, error) {
	rel := &Release{}
	var createdAt int64
	err := row.Scan(&rel.ID, &rel.Name, &rel.Version, &rel.Digest,
		&rel.Size, &rel.Artifact, &rel.Manifest, &createdAt)
	if err != nil {
		return nil, err
	}
	rel.CreatedAt = time.Unix(0, createdAt).UTC()
	return rel, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
