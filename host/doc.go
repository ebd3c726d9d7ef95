// Package host loads and runs extension modules. It wraps the Extism
// SDK: a Host owns the registered bundles and default call budget, and
// hands out one Extension per loaded module.
//
// Basic usage:
//
//	h, err := host.New(host.WithLogger(logger))
//	if err != nil { ... }
//	defer h.Close()
//
//	ext, err := h.Load(ctx, host.Source{Path: "greeter/"})
//	if err != nil { ... }
//	defer ext.Close()
//
//	out, err := ext.Call("greeting", nil)
//
// # Bundles
//
// A Bundle is a named group of host functions registered under the
// "extism:host/user" namespace. Extensions opt in per bundle through
// their manifest; nothing is importable unless the manifest asks for
// it. The built-in bundles are "sample" (greeting, tac) and "market"
// (count_lines, parse_supply_level, grid_key). WithKV adds a "kv"
// bundle backed by a bbolt database.
//
// # Thread safety
//
// A Host is safe for concurrent use. An Extension is not: it wraps a
// single plugin instance with one memory. Use a Session to share one
// extension between goroutines, or load one Extension per goroutine.
package host
