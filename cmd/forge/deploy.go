package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/builder"
	"github.com/wasmforge/forge/registry"
)

func newDeployCommand() *cobra.Command {
	var skipBuild bool

	cmd := &cobra.Command{
		Use:   "deploy [DIR]",
		Short: "Build a project and record the release in the local store",
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

			if !skipBuild {
				b := builder.New(
					builder.WithTool(cfg.Builder),
					builder.WithTarget(cfg.Target),
					builder.WithLogger(logger),
				)
				if _, err := b.Build(cmd.Context(), dir); err != nil {
					return err
				}
			}

			reg, err := registry.Open(cfg.IndexPath(), cfg.StorePath())
			if err != nil {
				return err
			}
			defer reg.Close()

			rel, err := reg.Deploy(dir)
			if err != nil {
				return err
			}

			fmt.Printf("Deployed %s\n", rel.Ref())
			fmt.Printf("  digest  %s\n", rel.Digest)
			fmt.Printf("  size    %s\n", formatSize(rel.Size))
			fmt.Printf("\nRun it with: forge run %s\n", rel.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "deploy the existing artifact without rebuilding")
	return cmd
}
