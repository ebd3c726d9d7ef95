package host

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	extism "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

// DefaultCallTimeout bounds a single guest call when neither the host
// option nor the manifest sets a budget.
const DefaultCallTimeout = 30 * time.Second

// Host loads extension modules and owns the bundles they may import.
type Host struct {
	logger  *zap.Logger
	bundles map[string]Bundle
	timeout time.Duration
}

// Option configures a Host.
type Option func(*Host) error

// WithLogger sets the host logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) error {
		h.logger = l
		return nil
	}
}

// WithCallTimeout sets the default per-call budget applied when a
// manifest does not carry its own timeout_ms.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Host) error {
		h.timeout = d
		return nil
	}
}

// WithBundle registers an additional bundle. Names must be unique.
func WithBundle(b Bundle) Option {
	return func(h *Host) error {
		return h.register(b)
	}
}

// WithKV registers the "kv" bundle backed by a bbolt database at path.
// The database is created on first use and closed with the host.
func WithKV(path string) Option {
	return func(h *Host) error {
		b, err := openKVBundle(path, h)
		if err != nil {
			return err
		}
		return h.register(b)
	}
}

// New creates a Host with the built-in "sample" and "market" bundles
// registered.
func New(opts ...Option) (*Host, error) {
	h := &Host{
		logger:  zap.NewNop(),
		bundles: make(map[string]Bundle),
		timeout: DefaultCallTimeout,
	}
	if err := h.register(sampleBundle(h)); err != nil {
		return nil, err
	}
	if err := h.register(marketBundle(h)); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}

func (h *Host) register(b Bundle) error {
	name := b.Name()
	if !manifest.ValidName(name) {
		return errors.Registration(hostNamespace, name, errors.InvalidInput(errors.PhaseHost, "invalid bundle name"))
	}
	if _, dup := h.bundles[name]; dup {
		return errors.New(errors.PhaseHost, errors.KindConflict).
			Value(name).
			Detail("bundle already registered").
			Build()
	}
	h.bundles[name] = b
	return nil
}

// Bundles returns the registered bundle names, sorted.
func (h *Host) Bundles() []string {
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases resources held by bundles, such as the kv database.
func (h *Host) Close() error {
	var firstErr error
	for _, b := range h.bundles {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Source names an extension module to load. Exactly one of Path or
// Data must be set. A Path may point at a project directory or
// manifest, in which case the manifest's entry is loaded with its
// grants, or directly at a .wasm artifact.
type Source struct {
	Path string
	Data []byte
	Name string
}

// Load resolves src, builds the plugin with the granted bundles, and
// returns a ready Extension.
func (h *Host) Load(ctx context.Context, src Source) (*Extension, error) {
	m, wasm, err := h.resolve(src)
	if err != nil {
		return nil, err
	}

	fns, err := h.grantedFunctions(m)
	if err != nil {
		return nil, err
	}

	timeout := uint64(h.timeout / time.Millisecond)
	if m.TimeoutMS > 0 {
		timeout = m.TimeoutMS
	}

	em := extism.Manifest{
		Wasm:         []extism.Wasm{wasm},
		AllowedHosts: m.AllowedHosts,
		AllowedPaths: m.AllowedPaths,
		Config:       m.Config,
		Timeout:      timeout,
	}

	cfg := extism.PluginConfig{
		ModuleConfig: wazero.NewModuleConfig().WithStartFunctions(),
		EnableWasi:   true,
		LogLevel:     extism.LogLevelInfo,
	}

	plugin, err := extism.NewPlugin(ctx, em, cfg, fns)
	if err != nil {
		return nil, errors.Load("create plugin for "+m.Name, err)
	}

	logger := h.logger.With(zap.String("extension", m.Name))
	plugin.SetLogger(func(level extism.LogLevel, msg string) {
		switch level {
		case extism.LogLevelError:
			logger.Error(msg)
		case extism.LogLevelWarn:
			logger.Warn(msg)
		case extism.LogLevelInfo:
			logger.Info(msg)
		default:
			logger.Debug(msg)
		}
	})

	logger.Debug("extension loaded",
		zap.Strings("bundles", m.Bundles),
		zap.Uint64("timeout_ms", timeout))

	return &Extension{
		plugin:   plugin,
		manifest: m,
		logger:   logger,
	}, nil
}

// resolve turns a Source into a manifest plus the wasm reference the
// plugin is built from.
func (h *Host) resolve(src Source) (*manifest.Manifest, extism.Wasm, error) {
	if src.Data != nil {
		name := src.Name
		if name == "" {
			name = "module"
		}
		m := &manifest.Manifest{Name: name, Entry: name + ".wasm"}
		return m, extism.WasmData{Data: src.Data, Name: name}, nil
	}

	if src.Path == "" {
		return nil, nil, errors.InvalidInput(errors.PhaseLoad, "source needs a path or data")
	}

	if strings.HasSuffix(src.Path, ".wasm") {
		name := src.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(src.Path), ".wasm")
		}
		m := &manifest.Manifest{Name: name, Entry: src.Path}
		return m, extism.WasmFile{Path: src.Path}, nil
	}

	m, err := manifest.Load(src.Path)
	if err != nil {
		return nil, nil, err
	}

	baseDir := src.Path
	if info, statErr := os.Stat(src.Path); statErr == nil && !info.IsDir() {
		baseDir = filepath.Dir(src.Path)
	}
	entry := m.EntryPath(baseDir)
	if _, err := os.Stat(entry); err != nil {
		return nil, nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Value(entry).
			Cause(err).
			Detail("entry artifact missing, build the project first").
			Build()
	}

	// Relative host paths in allowed_paths are granted relative to the
	// project, not the process working directory.
	if len(m.AllowedPaths) > 0 {
		paths := make(map[string]string, len(m.AllowedPaths))
		for hostPath, guestPath := range m.AllowedPaths {
			if !filepath.IsAbs(hostPath) {
				hostPath = filepath.Join(baseDir, hostPath)
			}
			paths[hostPath] = guestPath
		}
		m.AllowedPaths = paths
	}
	return m, extism.WasmFile{Path: entry}, nil
}

// grantedFunctions collects host functions for every bundle the
// manifest asks for. Unknown bundle names fail the load.
func (h *Host) grantedFunctions(m *manifest.Manifest) ([]extism.HostFunction, error) {
	var fns []extism.HostFunction
	for _, name := range m.Bundles {
		b, ok := h.bundles[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "bundle", name)
		}
		fns = append(fns, b.Functions()...)
	}
	return fns, nil
}
