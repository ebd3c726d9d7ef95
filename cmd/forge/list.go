package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wasmforge/forge/registry"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List deployed extension modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			reg, err := registry.Open(cfg.IndexPath(), cfg.StorePath())
			if err != nil {
				return err
			}
			defer reg.Close()

			releases, err := reg.List()
			if err != nil {
				return err
			}
			if len(releases) == 0 {
				fmt.Println("No modules deployed.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tDIGEST\tSIZE\tDEPLOYED")
			for _, rel := range releases {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rel.Name,
					rel.Version,
					shortDigest(rel.Digest),
					formatSize(rel.Size),
					rel.CreatedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			return tw.Flush()
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME@VERSION",
		Short: "Remove a deployed release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			name, version := splitRef(args[0])
			if version == "" {
				return fmt.Errorf("remove needs an explicit version, like %s@0.1.0", name)
			}

			reg, err := registry.Open(cfg.IndexPath(), cfg.StorePath())
			if err != nil {
				return err
			}
			defer reg.Close()

			if err := reg.Remove(name, version); err != nil {
				return err
			}
			fmt.Printf("Removed %s@%s\n", name, version)
			return nil
		},
	}
}

// shortDigest trims sha256:<hex> to a 12 character prefix for tables.
func shortDigest(digest string) string {
	hex := strings.TrimPrefix(digest, "sha256:")
	if len(hex) > 12 {
		hex = hex[:12]
	}
	return hex
}
