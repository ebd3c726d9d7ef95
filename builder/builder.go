// Package builder turns guest projects into wasm artifacts by invoking
// an external compiler, TinyGo by default. The toolkit never parses or
// reinterprets compiler output; failures surface verbatim.
package builder

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	forge "github.com/wasmforge/forge"
	"github.com/wasmforge/forge/errors"
	"github.com/wasmforge/forge/manifest"
)

// Builder compiles guest projects.
type Builder struct {
	tool   string
	target string
	logger *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithTool overrides the compiler binary. The default is "tinygo",
// resolved through PATH.
func WithTool(tool string) Option {
	return func(b *Builder) { b.tool = tool }
}

// WithTarget overrides the -target value passed to the compiler.
func WithTarget(target string) Option {
	return func(b *Builder) { b.target = target }
}

// WithLogger sets the build logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		tool:   "tinygo",
		target: "wasip1",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result describes a completed build.
type Result struct {
	Artifact string
	Digest   string
	Size     int64
	Duration time.Duration
}

// Build compiles the project at dir into the artifact its manifest
// names, creating the output directory as needed. Compiler failures
// come back as *errors.ToolError with captured stderr.
func (b *Builder) Build(ctx context.Context, dir string) (*Result, error) {
	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}

	out := m.EntryPath(dir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, errors.IO(errors.PhaseBuild, "create output directory", err)
	}

	args := []string{"build", "-o", out, "-target", b.target, "-no-debug", "."}
	cmd := exec.CommandContext(ctx, b.tool, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	b.logger.Debug("build start",
		zap.String("module", m.Name),
		zap.String("tool", b.tool),
		zap.Strings("args", args))

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, &errors.ToolError{
			Err:    err,
			Tool:   b.tool,
			Args:   args,
			Stderr: stderr.String(),
		}
	}
	elapsed := time.Since(start)

	info, err := os.Stat(out)
	if err != nil {
		return nil, errors.IO(errors.PhaseBuild, "stat artifact "+out, err)
	}
	if err := forge.CheckWasmFile(out); err != nil {
		return nil, errors.New(errors.PhaseBuild, errors.KindInvalidData).
			Path(out).
			Cause(err).
			Detail("compiler produced an invalid artifact").
			Build()
	}
	digest, err := forge.DigestFile(out)
	if err != nil {
		return nil, errors.IO(errors.PhaseBuild, "digest artifact", err)
	}

	b.logger.Info("build complete",
		zap.String("module", m.Name),
		zap.String("artifact", out),
		zap.Int64("bytes", info.Size()),
		zap.String("digest", digest),
		zap.Duration("elapsed", elapsed))

	return &Result{
		Artifact: out,
		Digest:   digest,
		Size:     info.Size(),
		Duration: elapsed,
	}, nil
}
