package hydrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

type greetingPage struct{}

func (greetingPage) RenderStatic(_ context.Context, props map[string]any) (string, error) {
	return fmt.Sprintf("<p>Hello %v</p>", props["name"]), nil
}

type pageLoader struct{}

func (pageLoader) Load(_ context.Context, path string) (Component, error) {
	if filepath.Base(path) != "home.jsx" {
		return nil, fmt.Errorf("cannot find module %s", path)
	}
	return greetingPage{}, nil
}

type bundleCompiler struct {
	calls atomic.Int32
}

func (c *bundleCompiler) Compile(_ context.Context, job CompileJob, done func(error)) {
	c.calls.Add(1)
	done(job.FS.WriteFile(job.Outfile, []byte("// hydrate bundle\n"), 0644))
}

func newTestApp(t *testing.T, compiler Compiler) (*Hydrate, string) {
	t.Helper()
	return newTestAppWithPages(t, compiler, []Page{{Path: "/", File: "pages/home.jsx"}})
}

func newTestAppWithPages(t *testing.T, compiler Compiler, pages []Page) (*Hydrate, string) {
	t.Helper()

	workDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workDir, "pages"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "pages", "home.jsx"), []byte("export default ({ name }) => <p>Hello {name}</p>;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	app, err := New(Config{
		WorkDir: workDir,
		Pages:   pages,
	},
		WithLoader(pageLoader{}),
		WithCompiler(compiler),
		WithLogger(logging.NewNop()),
	)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app, workDir
}

func TestRenderDocument(t *testing.T) {
	compiler := &bundleCompiler{}
	app, workDir := newTestApp(t, compiler)

	html, err := app.Render(context.Background(), "pages/home.jsx", map[string]any{"name": "World"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	snaps.MatchSnapshot(t, html)

	bundle := filepath.Join(workDir, "dist", "49d319c21773723060be388e79b48083.js")
	if _, err := os.Stat(bundle); err != nil {
		t.Errorf("Expected bundle at %s: %v", bundle, err)
	}
}

func TestRenderUsesCache(t *testing.T) {
	compiler := &bundleCompiler{}
	app, _ := newTestApp(t, compiler)
	ctx := context.Background()

	for range 3 {
		if _, err := app.Render(ctx, "pages/home.jsx", map[string]any{"name": "World"}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if _, err := app.Render(ctx, "pages/home.jsx", map[string]any{"name": "Moon"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := compiler.calls.Load(); got != 2 {
		t.Errorf("Expected one build per distinct props, got %d", got)
	}

	bundles, err := app.Bundles(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(bundles) != 2 {
		t.Errorf("Expected 2 bundles, got %d", len(bundles))
	}
}

func TestRenderLoadError(t *testing.T) {
	app, _ := newTestApp(t, &bundleCompiler{})

	_, err := app.Render(context.Background(), "pages/missing.jsx", nil)
	if err == nil || !strings.Contains(err.Error(), "cannot find module") {
		t.Errorf("Expected load error, got %v", err)
	}
}

func TestRenderBuildFailure(t *testing.T) {
	failing := compilerFunc(func(_ context.Context, _ CompileJob, done func(error)) {
		done(errors.New("Could not resolve \"react\""))
	})
	app, _ := newTestApp(t, failing)

	_, err := app.Render(context.Background(), "pages/home.jsx", nil)
	var buildErr *BuildFailedError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Expected BuildFailedError, got %v", err)
	}
}

type compilerFunc func(ctx context.Context, job CompileJob, done func(error))

func (f compilerFunc) Compile(ctx context.Context, job CompileJob, done func(error)) {
	f(ctx, job, done)
}

func TestHandlerServesPageAndBundle(t *testing.T) {
	app, _ := newTestApp(t, &bundleCompiler{})
	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	body := get(t, ts.URL+"/?name=World", http.StatusOK)
	if !strings.Contains(body, "<p>Hello World</p>") {
		t.Errorf("Expected rendered page, got %s", body)
	}

	bundle := get(t, ts.URL+"/49d319c21773723060be388e79b48083.js", http.StatusOK)
	if bundle != "// hydrate bundle\n" {
		t.Errorf("Expected bundle contents, got %q", bundle)
	}

	get(t, ts.URL+core.ReloadScriptSrc, http.StatusOK)
}

var hydrationScript = regexp.MustCompile(`id="react-ssr-script" src="([^"]+)"`)

func TestHandlerServesBundleForNestedPage(t *testing.T) {
	app, _ := newTestAppWithPages(t, &bundleCompiler{}, []Page{
		{Path: "/blog/post", File: "pages/home.jsx", Props: map[string]any{"name": "Blog"}},
	})
	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	pageURL, err := url.Parse(ts.URL + "/blog/post")
	if err != nil {
		t.Fatal(err)
	}
	body := get(t, pageURL.String(), http.StatusOK)

	m := hydrationScript.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("Expected a hydration script in %s", body)
	}
	src, err := url.Parse(m[1])
	if err != nil {
		t.Fatal(err)
	}

	// Resolve src the way a browser on /blog/post would.
	resp, err := http.Get(pageURL.ResolveReference(src).String())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected bundle at %s, got %d", src, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Expected a script, got %s", ct)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{
		WorkDir: t.TempDir(),
		Pages:   []Page{{Path: "about", File: ""}},
	}, WithLoader(pageLoader{}), WithLogger(logging.NewNop()))
	if err == nil {
		t.Fatal("Expected invalid config error")
	}
}

func get(t *testing.T, url string, status int) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("failed to get %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != status {
		t.Errorf("expected status %d, got %d for %s", status, resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
