package host

import (
	"sort"

	extism "github.com/extism/go-sdk"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

// Extension is one loaded module. It is not safe for concurrent use:
// calls share a single plugin instance and its memory. Wrap it in a
// Session when several goroutines need it.
type Extension struct {
	plugin   *extism.Plugin
	manifest *manifest.Manifest
	logger   *zap.Logger
}

// Name returns the module name from the manifest.
func (e *Extension) Name() string {
	return e.manifest.Name
}

// Manifest returns the manifest the extension was loaded with.
func (e *Extension) Manifest() *manifest.Manifest {
	return e.manifest
}

// Has reports whether the module exports a function with this name.
func (e *Extension) Has(name string) bool {
	return e.plugin.FunctionExists(name)
}

// Exports returns the declared export names from the manifest, sorted.
// Modules loaded straight from a .wasm artifact declare nothing; use
// Inspect for the raw export table.
func (e *Extension) Exports() []string {
	sigs, err := e.manifest.Signatures()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(sigs))
	for name := range sigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes an exported function with input and returns its output.
// The call is bounded by the manifest timeout, or the host default when
// the manifest carries none.
func (e *Extension) Call(name string, input []byte) ([]byte, error) {
	if !e.plugin.FunctionExists(name) {
		return nil, errors.NotFound(errors.PhaseCall, "function", name)
	}

	status, out, err := e.plugin.Call(name, input)
	if err != nil {
		e.logger.Debug("call failed",
			zap.String("function", name),
			zap.Uint32("status", status),
			zap.Error(err))
		return nil, errors.New(errors.PhaseCall, errors.KindExec).
			Path(e.manifest.Name, name).
			Value(status).
			Cause(err).
			Detail("extension call failed").
			Build()
	}

	e.logger.Debug("call",
		zap.String("function", name),
		zap.Int("input_bytes", len(input)),
		zap.Int("output_bytes", len(out)))
	return out, nil
}

// CallString is Call with string input and output.
func (e *Extension) CallString(name, input string) (string, error) {
	var in []byte
	if input != "" {
		in = []byte(input)
	}
	out, err := e.Call(name, in)
	return string(out), err
}

// Close releases the underlying plugin instance.
func (e *Extension) Close() error {
	e.plugin.Close()
	return nil
}
