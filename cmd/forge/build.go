package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/builder"
)

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build [DIR]",
		Short: "Compile a project to its wasm artifact",
		Args:  cobra.MaximumNArgs(1),
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

			b := builder.New(
				builder.WithTool(cfg.Builder),
				builder.WithTarget(cfg.Target),
				builder.WithLogger(logger),
			)
			res, err := b.Build(cmd.Context(), dir)
			if err != nil {
				return err
			}

			fmt.Printf("Built %s\n", res.Artifact)
			fmt.Printf("  digest  %s\n", res.Digest)
			fmt.Printf("  size    %s\n", formatSize(res.Size))
			fmt.Printf("  took    %s\n", res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
