package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/wasmforge/forge/builder"
	"github.com/wasmforge/forge/config"
	"github.com/wasmforge/forge/host"
	"github.com/wasmforge/forge/manifest"
	"github.com/wasmforge/forge/watcher"
)

func newDevelopCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "develop [DIR]",
		Short: "Rebuild and reload a project on every save",
		Long: `Develop watches the project tree and rebuilds the wasm artifact
whenever a source file changes, reloading it into a live host. On a
terminal it opens an interactive UI for calling the module's exports;
otherwise it logs each rebuild to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dir, err := projectDir(args)
			if err != nil {
				return err
			}
			if _, err := manifest.Load(dir); err != nil {
				return err
			}

			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				return developPlain(cmd.Context(), cfg, logger, dir)
			}
			return developTUI(cmd.Context(), cfg, logger, dir)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "log rebuilds instead of opening the interactive UI")
	return cmd
}

// devEnv bundles everything a develop loop needs: a host with a
// reloadable session, a builder, and a watcher feeding change batches
// into events.
type devEnv struct {
	cfg     config.Config
	logger  *zap.Logger
	dir     string
	h       *host.Host
	session *host.Session
	build   *builder.Builder
	w       *watcher.Watcher
	events  chan []watcher.Event

	closeOnce sync.Once
}

func newDevEnv(cfg config.Config, logger *zap.Logger, dir string) (*devEnv, error) {
	h, err := host.New(
		host.WithLogger(logger),
		host.WithCallTimeout(cfg.CallTimeout),
		host.WithKV(cfg.KVPath()),
	)
	if err != nil {
		return nil, err
	}

	env := &devEnv{
		cfg:    cfg,
		logger: logger,
		dir:    dir,
		h:      h,
		build: builder.New(
			builder.WithTool(cfg.Builder),
			builder.WithTarget(cfg.Target),
			builder.WithLogger(logger),
		),
		events: make(chan []watcher.Event, 16),
	}
	env.session = h.NewSession(host.Source{Path: dir})

	wcfg := watcher.DefaultConfig()
	if cfg.WatchDebounce > 0 {
		wcfg.Debounce = cfg.WatchDebounce
	}
	w, err := watcher.New(wcfg, logger, func(batch []watcher.Event) {
		// Never block the watcher; a dropped batch just means the
		// next save triggers the rebuild.
		select {
		case env.events <- batch:
		default:
		}
	})
	if err != nil {
		h.Close()
		return nil, err
	}
	if err := w.Watch(dir); err != nil {
		w.Stop()
		h.Close()
		return nil, err
	}
	env.w = w
	return env, nil
}

// rebuild compiles the project and swaps the artifact into the session.
func (e *devEnv) rebuild(ctx context.Context) (*builder.Result, error) {
	res, err := e.build.Build(ctx, e.dir)
	if err != nil {
		return nil, err
	}
	if err := e.session.Reload(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (e *devEnv) close() {
	e.closeOnce.Do(func() {
		e.w.Stop()
		e.session.Close()
		e.h.Close()
	})
}

func developPlain(ctx context.Context, cfg config.Config, logger *zap.Logger, dir string) error {
	env, err := newDevEnv(cfg, logger, dir)
	if err != nil {
		return err
	}
	defer env.close()

	env.w.Start(ctx)

	report := func(buildCtx context.Context) {
		res, err := env.rebuild(buildCtx)
		if err != nil {
			fmt.Printf("build failed: %v\n", err)
			return
		}
		fmt.Printf("rebuilt %s (%s, %s) gen %d exports [%s]\n",
			filepath.Base(res.Artifact),
			shortDigest(res.Digest),
			formatSize(res.Size),
			env.session.Generation(),
			strings.Join(env.session.Exports(), " "))
	}

	fmt.Printf("Watching %s (ctrl-c to stop)\n", dir)
	report(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case batch := <-env.events:
				fmt.Printf("%d change(s) detected\n", len(batch))
				report(gctx)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return env.w.Stop()
	})
	return g.Wait()
}
