package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/hydrate/internal/core"
)

func newDoctorCmd(e *env, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the bun runtime, directories and page files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			o := e.output
			o.PrintHeader("hydrate doctor")
			failed := 0

			if path, err := e.lookPath("bun"); err != nil {
				o.PrintError("bun not found on PATH")
				failed++
			} else {
				o.PrintSuccess("bun: %s", path)
			}

			if err := checkWritable(cfg.OutputDir); err != nil {
				o.PrintError("output dir %s: %v", cfg.OutputDir, err)
				failed++
			} else {
				o.PrintSuccess("output dir: %s", cfg.OutputDir)
			}

			if info, err := os.Stat(cfg.PublicDir); err != nil || !info.IsDir() {
				o.PrintWarning("public dir %s is missing", cfg.PublicDir)
			} else {
				o.PrintSuccess("public dir: %s", cfg.PublicDir)
			}

			for _, page := range cfg.Pages {
				file := core.ResolveSourcePath(cfg.WorkDir, page.File)
				if _, err := os.Stat(file); err != nil {
					o.PrintError("page %s: %s not found", page.Path, page.File)
					failed++
					continue
				}
				o.PrintSuccess("page %s: %s", page.Path, page.File)
			}

			if failed > 0 {
				o.PrintError("%d checks failed", failed)
				return errReported
			}
			o.PrintDone("All checks passed")
			return nil
		},
	}
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".hydrate-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
