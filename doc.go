// Package forge provides a toolkit for building, running, and distributing
// WebAssembly extension modules.
//
// An extension module is a compiled WASM component loaded by a host runtime
// to provide native functionality. forge covers the whole loop around such
// modules: scaffolding a guest project, driving the external guest compiler,
// loading the artifact into an embedded host, calling its exports, and
// deploying versioned artifacts into a local registry.
//
// # Architecture Overview
//
// The toolkit is organized into several packages with distinct
// responsibilities:
//
//	forge/               Root package with artifact digest helpers
//	├── manifest/        forge.json parsing and WIT export signatures
//	├── sample/          Native reference implementation of the demo extension
//	├── market/          Market-data helpers exposed as a host bundle
//	├── host/            Extension loading and calls (extism on wazero)
//	├── scaffold/        `forge new` project generation
//	├── builder/         External compiler invocation and artifact digests
//	├── watcher/         Rebuild-on-change support for `forge develop`
//	├── registry/        `forge deploy` artifact store and sqlite index
//	├── config/          Environment configuration
//	├── errors/          Structured error types
//	└── cmd/forge/       The CLI: new, develop, deploy, run, inspect, list
//
// # Quick Start
//
// Load and call an extension:
//
//	h, err := host.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	ext, err := h.Load(ctx, host.Source{Path: "sample.wasm"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ext.Close()
//
//	out, err := ext.Call("greeting", nil)
//	fmt.Println(string(out)) // "✨ Hello, world!"
//
// # Host Bundles
//
// Extensions may import native host functions grouped into bundles. The
// built-in bundles are "sample" (greeting, tac), "market" (count_lines,
// parse_supply_level, grid_key), and "kv" (kv_read, kv_write backed by a
// bbolt store). Bundles are selected per extension in its manifest.
//
// # Guest ABI
//
// Extensions follow the extism plugin conventions: exported functions take
// no core parameters, return an i32 status, and exchange input/output
// through the extism kernel. Host bundle functions live in the
// "extism:host/user" namespace.
//
// # Thread Safety
//
// Host values are safe for concurrent use. A loaded Extension is NOT
// goroutine-safe and should be used by a single goroutine, or access must
// be synchronized.
package forge
