package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/config"
	"github.com/wasmforge/forge/host"
	"github.com/wasmforge/forge/manifest"
	"github.com/wasmforge/forge/registry"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect TARGET",
		Short: "Show the digest, exports and imports of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			path, err := artifactPath(cfg, args[0])
			if err != nil {
				return err
			}

			report, err := host.InspectFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			fmt.Println(path)
			fmt.Printf("  digest  %s\n", report.Digest)
			fmt.Printf("  size    %s\n", formatSize(int64(report.Size)))

			fmt.Printf("\nExports (%d):\n", len(report.Exports))
			for _, exp := range report.Exports {
				line := "  " + exp.Name + "(" + strings.Join(exp.Params, ", ") + ")"
				if len(exp.Results) > 0 {
					line += " -> " + strings.Join(exp.Results, ", ")
				}
				fmt.Println(line)
			}

			fmt.Printf("\nImports (%d):\n", len(report.Imports))
			for _, imp := range report.Imports {
				fmt.Printf("  %s.%s\n", imp.Module, imp.Name)
			}
			return nil
		},
	}
}

// artifactPath locates the wasm artifact a target refers to: the file
// itself, a project's built entry, or a deployed release's stored copy.
func artifactPath(cfg config.Config, target string) (string, error) {
	if info, err := os.Stat(target); err == nil {
		abs, err := filepath.Abs(target)
		if err != nil {
			return "", err
		}
		if !info.IsDir() && strings.HasSuffix(abs, ".wasm") {
			return abs, nil
		}

		m, err := manifest.Load(abs)
		if err != nil {
			return "", err
		}
		base := abs
		if !info.IsDir() {
			base = filepath.Dir(abs)
		}
		return m.EntryPath(base), nil
	}

	name, version := splitRef(target)
	reg, err := registry.Open(cfg.IndexPath(), cfg.StorePath())
	if err != nil {
		return "", err
	}
	defer reg.Close()

	rel, err := reg.Resolve(name, version)
	if err != nil {
		return "", err
	}
	return rel.Artifact, nil
}
