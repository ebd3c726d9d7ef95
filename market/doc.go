// Package market holds the trade-telemetry helpers exposed to guests
// through the "market" host bundle: newline counting over large files,
// supply-level parsing, and stellar grid bucketing.
//
// The functions are plain Go and usable without a runtime; the bundle
// wraps them so extensions can call them across the guest boundary with
// integer and float ABI shapes instead of strings only.
package market
