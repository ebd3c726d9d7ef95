package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/config"
	"github.com/wasmforge/forge/host"
	"github.com/wasmforge/forge/registry"
)

func newRunCommand() *cobra.Command {
	var (
		input     string
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "run TARGET [FUNCTION]",
		Short: "Call a function of an extension module",
		Long: `Run loads an extension module and calls one exported function.

TARGET is a project directory, a .wasm artifact, or a deployed release
reference like greeter or greeter@0.1.0. When the module exports
exactly one function, FUNCTION can be omitted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			src, err := resolveSource(cfg, args[0])
			if err != nil {
				return err
			}

			h, err := host.New(
				host.WithLogger(logger),
				host.WithCallTimeout(cfg.CallTimeout),
				host.WithKV(cfg.KVPath()),
			)
			if err != nil {
				return err
			}
			defer h.Close()

			ext, err := h.Load(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer ext.Close()

			fn, err := pickFunction(ext, args)
			if err != nil {
				return err
			}

			data := []byte(input)
			if inputFile != "" {
				data, err = os.ReadFile(inputFile)
				if err != nil {
					return err
				}
			}

			out, err := ext.Call(fn, data)
			if err != nil {
				return err
			}
			if len(out) > 0 {
				os.Stdout.Write(out)
				if out[len(out)-1] != '\n' {
					fmt.Println()
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input passed to the function")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "file whose contents are passed as input")
	return cmd
}

func pickFunction(ext *host.Extension, args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	exports := ext.Exports()
	if len(exports) == 1 {
		return exports[0], nil
	}
	return "", fmt.Errorf("%s exports %d functions, name one of: %s",
		ext.Name(), len(exports), strings.Join(exports, ", "))
}

// resolveSource turns a target argument into a loadable source. A path
// that exists on disk wins; anything else is treated as a deployed
// release reference.
func resolveSource(cfg config.Config, target string) (host.Source, error) {
	if _, err := os.Stat(target); err == nil {
		abs, err := filepath.Abs(target)
		if err != nil {
			return host.Source{}, err
		}
		return host.Source{Path: abs}, nil
	}

	name, version := splitRef(target)
	reg, err := registry.Open(cfg.IndexPath(), cfg.StorePath())
	if err != nil {
		return host.Source{}, err
	}
	defer reg.Close()

	rel, err := reg.Resolve(name, version)
	if err != nil {
		return host.Source{}, err
	}
	return host.Source{Path: rel.Manifest}, nil
}

func splitRef(ref string) (name, version string) {
	if i := strings.LastIndex(ref, "@"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}
