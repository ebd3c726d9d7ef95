// Command forge scaffolds, builds, runs and deploys wasm extension
// modules.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	forge "github.com/wasmforge/forge"
	"github.com/wasmforge/forge/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "forge",
		Short:   "Build and run wasm extension modules",
		Version: forge.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
		},
	}

	cobra.EnableCommandSorting = false

	root.AddCommand(
		newNewCommand(),
		newBuildCommand(),
		newDevelopCommand(),
		newRunCommand(),
		newInspectCommand(),
		newDeployCommand(),
		newListCommand(),
		newRemoveCommand(),
	)
	return root
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// projectDir resolves the optional positional project argument,
// defaulting to the current directory.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	return filepath.Abs(dir)
}
