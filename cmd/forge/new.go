package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/scaffold"
)

func newNewCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Scaffold an extension module project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, err := scaffold.Create(dir, name)
			if err != nil {
				return err
			}

			fmt.Printf("Created %s in %s\n\n", name, path)
			fmt.Printf("Next steps:\n")
			fmt.Printf("  cd %s\n", path)
			fmt.Printf("  forge develop\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "parent directory for the new project")
	return cmd
}
