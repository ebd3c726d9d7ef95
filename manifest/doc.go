// Package manifest reads and writes forge.json, the descriptor every
// extension project carries. The manifest names the module, points at
// its wasm artifact, declares the exported functions in WIT signature
// form, and lists what the host should grant at load time: reachable
// hosts, mapped paths, config values, and host bundles.
//
// Declared exports are parsed with go.bytecodealliance.org/wit so the
// inspect tooling can show typed signatures next to the raw wasm ones.
package manifest
