package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
	"github.com/3-lines-studio/hydrate/internal/config"
)

func TestRun(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "myapp")
	var out bytes.Buffer

	if err := Run(cli.NewWriterOutput(&out, &out), projectDir); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, file := range []string{"hydrate.yaml", "package.json", ".gitignore", "pages/home.jsx", "public/.gitkeep"} {
		if _, err := os.Stat(filepath.Join(projectDir, file)); err != nil {
			t.Errorf("Expected file %s to be created: %v", file, err)
		}
	}

	pkg, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(pkg), `"name": "myapp"`) {
		t.Errorf("package.json doesn't carry the project name:\n%s", pkg)
	}

	page, err := os.ReadFile(filepath.Join(projectDir, "pages", "home.jsx"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Hello from {name}") {
		t.Errorf("page was modified:\n%s", page)
	}

	if !strings.Contains(out.String(), "Created 5 files") {
		t.Errorf("Expected summary, got\n%s", out.String())
	}
}

func TestRunGeneratesValidConfig(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "shop")
	var out bytes.Buffer

	if err := Run(cli.NewWriterOutput(&out, &out), projectDir); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cfg, err := config.ParseFile(filepath.Join(projectDir, "hydrate.yaml"))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if err := cfg.SetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("generated config is invalid: %v", err)
	}
	if len(cfg.Pages) != 1 || cfg.Pages[0].Props["name"] != "shop" {
		t.Errorf("unexpected pages %+v", cfg.Pages)
	}
}

func TestRunDirectoryNotEmpty(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectDir, "existing.txt"), []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Run(cli.NewWriterOutput(&out, &out), projectDir); err == nil {
		t.Error("Run() expected error for non-empty directory, got nil")
	}
}

func TestProjectName(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"myapp", "myapp"},
		{"/path/to/shop", "shop"},
		{".", "myapp"},
		{"/", "myapp"},
	}
	for _, tt := range tests {
		if got := ProjectName(tt.dir); got != tt.want {
			t.Errorf("ProjectName(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}
