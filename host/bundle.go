package host

import (
	"context"
	"math"

	extism "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/market"
	"github.com/wasmforge/forge/sample"
)

// hostNamespace is the import module extensions link host functions
// from. It matches the Extism PDK convention.
const hostNamespace = "extism:host/user"

// Bundle is a named group of host functions offered to extensions.
// Manifests opt in by bundle name. A bundle holding resources may also
// implement io.Closer; the host closes it on shutdown.
type Bundle interface {
	Name() string
	Functions() []extism.HostFunction
}

// FuncBundle is a Bundle assembled from a fixed function list.
type FuncBundle struct {
	name string
	fns  []extism.HostFunction
}

// NewBundle builds a bundle from host functions, typically created
// with StackFunc.
func NewBundle(name string, fns ...extism.HostFunction) *FuncBundle {
	return &FuncBundle{name: name, fns: fns}
}

func (b *FuncBundle) Name() string { return b.name }

func (b *FuncBundle) Functions() []extism.HostFunction { return b.fns }

// StackFunc builds a host function in the user namespace. Strings and
// byte blobs cross the boundary as extism.ValueTypePTR offsets; numeric values
// ride the stack words directly.
func StackFunc(name string, fn func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64), params, results []api.ValueType) extism.HostFunction {
	hf := extism.NewHostFunctionWithStack(name, fn, params, results)
	hf.SetNamespace(hostNamespace)
	return hf
}

// sampleBundle exposes the demo pair. Stack functions have no error
// channel, so tac reports read failures as empty output plus a host
// log line; guests that need the error should read the file themselves
// through an allowed path.
func sampleBundle(h *Host) Bundle {
	greeting := StackFunc("greeting",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			stack[0] = writeGuest(h, p, "greeting", []byte(sample.Greeting()))
		},
		[]api.ValueType{}, []api.ValueType{extism.ValueTypePTR})

	tac := StackFunc("tac",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			path, err := p.ReadString(stack[0])
			if err != nil {
				h.logger.Warn("tac: read argument", zap.Error(err))
				stack[0] = 0
				return
			}
			out, err := sample.Tac(path)
			if err != nil {
				h.logger.Warn("tac", zap.String("path", path), zap.Error(err))
			}
			stack[0] = writeGuest(h, p, "tac", []byte(out))
		},
		[]api.ValueType{extism.ValueTypePTR}, []api.ValueType{extism.ValueTypePTR})

	return NewBundle("sample", greeting, tac)
}

// marketBundle exposes the telemetry helpers with numeric ABIs.
//
//	count_lines(path ptr) -> i64          newline count, -1 on error
//	parse_supply_level(reading ptr) -> i64  units in the high 32 bits,
//	        level in the low 32, both sign-preserved; parseFailed on error
//	grid_key(x f64, y f64, z f64) -> i64  the packed grid cell key
func marketBundle(h *Host) Bundle {
	countLines := StackFunc("count_lines",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			path, err := p.ReadString(stack[0])
			if err != nil {
				h.logger.Warn("count_lines: read argument", zap.Error(err))
				stack[0] = ^uint64(0)
				return
			}
			n, err := market.CountLines(path)
			if err != nil {
				h.logger.Warn("count_lines", zap.String("path", path), zap.Error(err))
				stack[0] = ^uint64(0)
				return
			}
			stack[0] = uint64(int64(n))
		},
		[]api.ValueType{extism.ValueTypePTR}, []api.ValueType{api.ValueTypeI64})

	parseSupply := StackFunc("parse_supply_level",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			reading, err := p.ReadString(stack[0])
			if err != nil {
				h.logger.Warn("parse_supply_level: read argument", zap.Error(err))
				stack[0] = parseFailed
				return
			}
			units, level, err := market.ParseSupplyLevel(reading)
			if err != nil {
				h.logger.Warn("parse_supply_level", zap.String("reading", reading), zap.Error(err))
				stack[0] = parseFailed
				return
			}
			stack[0] = PackSupply(units, level)
		},
		[]api.ValueType{extism.ValueTypePTR}, []api.ValueType{api.ValueTypeI64})

	gridKey := StackFunc("grid_key",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			x := math.Float64frombits(stack[0])
			y := math.Float64frombits(stack[1])
			z := math.Float64frombits(stack[2])
			stack[0] = market.GridKey(x, y, z)
		},
		[]api.ValueType{api.ValueTypeF64, api.ValueTypeF64, api.ValueTypeF64},
		[]api.ValueType{api.ValueTypeI64})

	return NewBundle("market", countLines, parseSupply, gridKey)
}

// parseFailed marks an unparseable supply reading. Both halves carry
// math.MinInt32, a pair no valid reading produces.
const parseFailed = uint64(math.MinInt32&0xffffffff)<<32 | uint64(math.MinInt32&0xffffffff)

// PackSupply packs a parsed supply reading for the guest boundary:
// units in the high 32 bits, level in the low 32.
func PackSupply(units, level int32) uint64 {
	return uint64(uint32(units))<<32 | uint64(uint32(level))
}

// UnpackSupply splits a packed supply reading.
func UnpackSupply(v uint64) (units, level int32) {
	return int32(uint32(v >> 32)), int32(uint32(v))
}

func writeGuest(h *Host, p *extism.CurrentPlugin, fn string, data []byte) uint64 {
	off, err := p.WriteBytes(data)
	if err != nil {
		h.logger.Warn(fn+": write result", zap.Error(err))
		return 0
	}
	return off
}
