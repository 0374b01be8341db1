package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
	"github.com/3-lines-studio/hydrate/internal/core"
)

func newBuildCmd(e *env, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Render every configured page once so its bundle is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.open(e)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			cfg := app.Config()
			e.output.PrintHeader("hydrate build")
			report := cli.NewBuildReport(e.output, cfg.OutputDir)

			for _, page := range cfg.Pages {
				res := cli.PageResult{Path: page.Path, File: page.File}
				start := time.Now()

				key, err := app.Key(page.File, page.Props)
				if err == nil {
					res.Bundle = core.BundleFileName(key)
					_, err = app.Render(cmd.Context(), page.File, page.Props)
				}
				res.Duration = time.Since(start)
				res.Err = err
				report.Add(res)
			}

			report.Render()
			if report.HasFailures() {
				return errReported
			}
			return nil
		},
	}
}
