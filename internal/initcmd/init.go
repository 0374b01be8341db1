// Package initcmd scaffolds a new project with a config file, one page and
// the package.json bun needs to render it.
package initcmd

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
	"github.com/3-lines-studio/hydrate/internal/adapters/templating"
)

//go:embed all:starter
var starterFS embed.FS

func Run(out *cli.Output, projectDir string) error {
	out.PrintHeader("hydrate init")

	if _, err := os.Stat(projectDir); err == nil {
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("directory '%s' already exists and is not empty", projectDir)
		}
	}

	starter, err := fs.Sub(starterFS, "starter")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	data := map[string]any{"name": ProjectName(projectDir)}
	templater := templating.New()
	created := 0

	err = fs.WalkDir(starter, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(projectDir, path), 0755)
		}

		content, err := fs.ReadFile(starter, path)
		if err != nil {
			return fmt.Errorf("failed to read starter file %s: %w", path, err)
		}

		target, isTemplate := strings.CutSuffix(path, ".tmpl")
		if isTemplate {
			if content, err = templater.Template(path, content, data); err != nil {
				return err
			}
		}

		targetPath := filepath.Join(projectDir, target)
		if err := os.WriteFile(targetPath, content, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", targetPath, err)
		}

		if isTemplate {
			out.PrintFile(targetPath + " (generated)")
		} else {
			out.PrintFile(targetPath)
		}
		created++
		return nil
	})
	if err != nil {
		return err
	}

	out.PrintSuccess("Created %d files", created)
	out.PrintStep("", "Next steps:")
	out.PrintStep("", "  cd %s", projectDir)
	out.PrintStep("", "  bun install")
	out.PrintStep("", "  hydrate serve")
	return nil
}

// ProjectName derives the package name from the project directory.
func ProjectName(projectDir string) string {
	base := filepath.Base(projectDir)
	if base == "." || base == "/" || base == "" {
		return "myapp"
	}
	return base
}
