package host

import (
	"bytes"
	"context"
	"os"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	forge "github.com/wasmforge/forge"
	"github.com/wasmforge/forge/errors"
)

// Component binaries share the wasm magic but carry version 0x0d,
// layer 1 in the preamble.
var componentPreamble = []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}

// ExportInfo describes one exported function in raw wasm terms.
type ExportInfo struct {
	Name    string
	Params  []string
	Results []string
}

// ImportInfo names one function the module expects from its host.
type ImportInfo struct {
	Module string
	Name   string
}

// Report is the result of inspecting a wasm artifact.
type Report struct {
	Digest  string
	Size    int
	Exports []ExportInfo
	Imports []ImportInfo
}

// Inspect compiles the artifact without instantiating it and reports
// its export and import surface. Invalid wasm fails compilation.
func Inspect(ctx context.Context, wasm []byte) (*Report, error) {
	if bytes.HasPrefix(wasm, componentPreamble) {
		return nil, errors.New(errors.PhaseInspect, errors.KindUnsupported).
			Detail("component binary, expected a core wasm module").
			Build()
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInspect, errors.KindInvalidData, err, "compile module")
	}
	defer compiled.Close(ctx)

	report := &Report{
		Digest: forge.Digest(wasm),
		Size:   len(wasm),
	}

	for name, def := range compiled.ExportedFunctions() {
		report.Exports = append(report.Exports, ExportInfo{
			Name:    name,
			Params:  typeNames(def.ParamTypes()),
			Results: typeNames(def.ResultTypes()),
		})
	}
	sort.Slice(report.Exports, func(i, j int) bool {
		return report.Exports[i].Name < report.Exports[j].Name
	})

	for _, def := range compiled.ImportedFunctions() {
		module, name, ok := def.Import()
		if !ok {
			continue
		}
		report.Imports = append(report.Imports, ImportInfo{Module: module, Name: name})
	}
	sort.Slice(report.Imports, func(i, j int) bool {
		a, b := report.Imports[i], report.Imports[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		return a.Name < b.Name
	})

	return report, nil
}

// InspectFile reads and inspects a wasm artifact on disk.
func InspectFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseInspect, "read "+path, err)
	}
	return Inspect(ctx, data)
}

func typeNames(types []api.ValueType) []string {
	if len(types) == 0 {
		return nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return names
}
