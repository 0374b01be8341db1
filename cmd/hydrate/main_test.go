package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/3-lines-studio/hydrate"
	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
	"github.com/3-lines-studio/hydrate/internal/logging"
)

type greetingPage struct{}

func (greetingPage) RenderStatic(_ context.Context, props map[string]any) (string, error) {
	return fmt.Sprintf("<p>Hello %v</p>", props["name"]), nil
}

type pageLoader struct{}

func (pageLoader) Load(_ context.Context, path string) (hydrate.Component, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot find module %s", path)
	}
	return greetingPage{}, nil
}

type bundleCompiler struct{}

func (bundleCompiler) Compile(_ context.Context, job hydrate.CompileJob, done func(error)) {
	done(job.FS.WriteFile(job.Outfile, []byte("// hydrate bundle\n"), 0644))
}

const testConfig = `workdir: .
pages:
  - path: /
    file: pages/home.jsx
`

type harness struct {
	dir    string
	config string
	out    bytes.Buffer
	errOut bytes.Buffer
	env    *env
}

func newHarness(t *testing.T, config string) *harness {
	t.Helper()
	t.Setenv("HYDRATE_ENV", "")
	t.Setenv("NODE_ENV", "")

	h := &harness{dir: t.TempDir()}
	if err := os.MkdirAll(filepath.Join(h.dir, "pages"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, "pages", "home.jsx"), []byte("export default () => <p>Home</p>;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	h.config = filepath.Join(h.dir, "hydrate.yaml")
	if err := os.WriteFile(h.config, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	h.env = &env{
		output: cli.NewWriterOutput(&h.out, &h.errOut),
		stdout: &h.out,
		options: []hydrate.Option{
			hydrate.WithLoader(pageLoader{}),
			hydrate.WithCompiler(bundleCompiler{}),
			hydrate.WithLogger(logging.NewNop()),
		},
		lookPath: func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(h.env)
	cmd.SetArgs(append(args, "--config", h.config))
	return cmd.ExecuteContext(context.Background())
}

func TestRenderCommand(t *testing.T) {
	h := newHarness(t, testConfig)

	if err := h.run("render", "pages/home.jsx", "--props", `{"name":"World"}`); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := h.out.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("Expected a document, got %s", out)
	}
	if !strings.Contains(out, `<p>Hello World</p>`) {
		t.Errorf("Expected rendered props, got %s", out)
	}
	if !strings.Contains(out, `src="/49d319c21773723060be388e79b48083.js?ssrid=default"`) {
		t.Errorf("Expected script reference, got %s", out)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "dist", "49d319c21773723060be388e79b48083.js")); err != nil {
		t.Errorf("Expected bundle on disk: %v", err)
	}
}

func TestRenderCommandInvalidProps(t *testing.T) {
	h := newHarness(t, testConfig)

	err := h.run("render", "pages/home.jsx", "--props", `[1, 2]`)
	if err == nil || !strings.Contains(err.Error(), "invalid --props") {
		t.Errorf("Expected invalid props error, got %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	h := newHarness(t, testConfig+`  - path: /missing
    file: pages/missing.jsx
`)

	err := h.run("build")
	if !errors.Is(err, errReported) {
		t.Fatalf("Expected reported failure, got %v", err)
	}

	if !strings.Contains(h.out.String(), "✓ / f5ec8f71fe602d19e5efb3e397a9d067.js") {
		t.Errorf("Expected built page in report, got\n%s", h.out.String())
	}
	if !strings.Contains(h.errOut.String(), "cannot find module") {
		t.Errorf("Expected failure details, got\n%s", h.errOut.String())
	}
}

func TestCacheListCommand(t *testing.T) {
	h := newHarness(t, testConfig)

	if err := h.run("cache", "ls"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(h.out.String(), "No bundles in") {
		t.Errorf("Expected empty cache notice, got %s", h.out.String())
	}

	if err := h.run("build"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	h.out.Reset()

	if err := h.run("cache", "ls"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"f5ec8f71fe602d19e5efb3e397a9d067", "18 B"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in listing, got\n%s", want, out)
		}
	}
}

func TestDoctorCommand(t *testing.T) {
	h := newHarness(t, testConfig)

	if err := h.run("doctor"); err != nil {
		t.Fatalf("Unexpected error: %v\n%s", err, h.errOut.String())
	}
	out := h.out.String()
	if !strings.Contains(out, "public dir") || !strings.Contains(out, "All checks passed") {
		t.Errorf("Expected passing checks with a public dir warning, got\n%s", out)
	}
}

func TestDoctorCommandMissingBun(t *testing.T) {
	h := newHarness(t, testConfig)
	h.env.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	if err := h.run("doctor"); !errors.Is(err, errReported) {
		t.Fatalf("Expected reported failure, got %v", err)
	}
	if !strings.Contains(h.errOut.String(), "bun not found on PATH") {
		t.Errorf("Expected bun check failure, got\n%s", h.errOut.String())
	}
}

func TestInitCommand(t *testing.T) {
	h := newHarness(t, testConfig)
	dir := filepath.Join(h.dir, "site")

	if err := h.run("init", dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "hydrate.yaml")); err != nil {
		t.Errorf("Expected scaffolded config: %v", err)
	}
}

func TestServerShutdownEndsReloadStreams(t *testing.T) {
	h := newHarness(t, testConfig)

	cfg, err := (&rootOptions{configFile: h.config}).loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	app, err := hydrate.New(*cfg, h.env.options...)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Close() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, newServer(app.Handler()), ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/reload/events")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil || line != "event: ready\n" {
		t.Fatalf("Expected ready event, got %q (%v)", line, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected shutdown not to wait on the open reload stream")
	}
}
