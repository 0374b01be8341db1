package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/hydrate"
	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
)

func newCacheCmd(e *env, root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the bundle cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List cached bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			entries, err := hydrate.ListBundles(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				e.output.PrintWarning("No bundles in %s", cfg.OutputDir)
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Key.String(),
					cli.FormatSize(entry.Size),
					entry.ModTime.Format(time.DateTime),
				})
			}
			return e.output.PrintTable([]string{"Key", "Size", "Modified"}, rows)
		},
	})
	return cmd
}
