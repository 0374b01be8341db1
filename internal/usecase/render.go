package usecase

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/3-lines-studio/hydrate/internal/adapters/fs"
	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
	"github.com/3-lines-studio/hydrate/internal/metrics"
)

//go:embed client_entry_template.txt
var clientEntryTemplate string

const (
	defaultBuildTimeout = 60 * time.Second
	doctype             = "<!DOCTYPE html>"
)

type RenderConfig struct {
	WorkDir      string
	OutputDir    string
	SourceDir    string
	// ScriptBase is prepended to the bundle file name in the document.
	ScriptBase   string
	BuildTimeout time.Duration
	Production   bool
}

type RenderDeps struct {
	Loader    ComponentLoader
	Document  DocumentTemplate
	Cache     BundleCache
	Templater SourceTemplater
	Compiler  Compiler
	// NewFS returns the filesystem for one build. Defaults to a fresh
	// in-memory overlay over the work directory.
	NewFS func(root string) BuildFS
}

// RenderService renders pages and makes sure the hydration bundle a page
// references is in the cache before its HTML is handed out.
type RenderService struct {
	deps   RenderDeps
	cfg    RenderConfig
	builds singleflight.Group
}

func NewRenderService(deps RenderDeps, cfg RenderConfig) *RenderService {
	if deps.NewFS == nil {
		deps.NewFS = func(root string) BuildFS { return fs.NewOverlay(root) }
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = defaultBuildTimeout
	}
	return &RenderService{deps: deps, cfg: cfg}
}

// Render returns the document for file rendered with props. On a cache miss
// it blocks until the bundle has been built and stored. Concurrent renders
// that share a cache key share one build.
func (s *RenderService) Render(ctx context.Context, file string, props map[string]any) (string, error) {
	log := logging.FromContext(ctx).With("file", file)
	s.enter(log, core.StateInit)

	key, err := s.deps.Cache.Key(file, props)
	if err != nil {
		return "", err
	}
	log = log.With("key", key.String())

	html, err := s.renderHTML(ctx, file, props, key)
	if err != nil {
		return "", err
	}
	s.enter(log, core.StateHTMLRendered)

	ok, err := s.deps.Cache.Exists(ctx, key)
	if err != nil {
		return "", &core.BuildFailedError{Key: key, Err: err}
	}
	if ok {
		s.enter(log, core.StateCacheHit)
		return html, nil
	}

	ch := s.builds.DoChan(string(key), func() (any, error) {
		return nil, s.build(log, key, file, props)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return html, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *RenderService) renderHTML(ctx context.Context, file string, props map[string]any, key core.CacheKey) (string, error) {
	page, err := s.deps.Loader.Load(ctx, core.ResolveSourcePath(s.cfg.WorkDir, file))
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", file, err)
	}

	doc, err := s.deps.Document.Wrap(ctx, page, props, s.cfg.ScriptBase+core.BundleFileName(key))
	if err != nil {
		return "", err
	}
	return doctype + doc, nil
}

// build runs detached from the caller that started it, so a caller giving up
// does not fail the build for the others waiting on it.
func (s *RenderService) build(log *logging.Logger, key core.CacheKey, file string, props map[string]any) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BuildTimeout)
	defer cancel()
	ctx = logging.WithContext(ctx, log)

	// Another build for key may have finished between the lookup and here.
	if ok, err := s.deps.Cache.Exists(ctx, key); err == nil && ok {
		s.enter(log, core.StateCacheHit)
		return nil
	}

	metrics.BuildCount.Inc()
	metrics.BuildsInFlight.Inc()
	defer metrics.BuildsInFlight.Dec()
	start := time.Now()

	buildFS := s.deps.NewFS(s.cfg.WorkDir)
	job, err := s.stage(buildFS, key, file, props)
	if err != nil {
		return s.fail(log, key, "stage", err)
	}
	s.enter(log, core.StateBuildStaged)

	done := make(chan error, 1)
	s.enter(log, core.StateBuildPolling)
	go s.deps.Compiler.Compile(ctx, job, func(err error) {
		select {
		case done <- err:
		default:
		}
	})

	select {
	case err := <-done:
		if err != nil {
			return s.fail(log, key, "compile", err)
		}
	case <-ctx.Done():
		s.enter(log, core.StateBuildHung)
		return s.fail(log, key, "timeout", core.ErrBuildTimeout)
	}

	bundle, ok := buildFS.Staged(job.Outfile)
	if !ok {
		return s.fail(log, key, "missing_artifact", core.ErrMissingArtifact)
	}
	if err := s.deps.Cache.Store(ctx, key, bundle); err != nil {
		return s.fail(log, key, "store", err)
	}

	elapsed := time.Since(start)
	metrics.BuildDuration.Observe(elapsed.Seconds())
	s.enter(log, core.StateBuildComplete)
	log.Infof("built %s (%d bytes) in %s", s.deps.Cache.Location(key), len(bundle), elapsed.Round(time.Millisecond))
	return nil
}

// stage writes the entry harness and the templated page module into the
// build filesystem.
func (s *RenderService) stage(buildFS BuildFS, key core.CacheKey, file string, props map[string]any) (CompileJob, error) {
	if props == nil {
		props = map[string]any{}
	}

	source := core.ResolveSourcePath(s.cfg.WorkDir, file)
	paths := core.SyntheticSourcePaths(s.cfg.WorkDir, s.cfg.SourceDir, source)

	raw, err := buildFS.ReadFile(source)
	if err != nil {
		return CompileJob{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	page, err := s.deps.Templater.Template(source, raw, props)
	if err != nil {
		return CompileJob{}, fmt.Errorf("failed to template %s: %w", file, err)
	}

	pageImport, err := core.ComponentImportPath(paths.Entry, paths.Page)
	if err != nil {
		return CompileJob{}, err
	}
	entry, err := s.deps.Templater.Template("entry", []byte(clientEntryTemplate), map[string]any{
		"page":  pageImport,
		"props": props,
	})
	if err != nil {
		return CompileJob{}, fmt.Errorf("failed to template entry: %w", err)
	}

	if err := buildFS.MkdirAll(filepath.Dir(paths.Entry), 0755); err != nil {
		return CompileJob{}, err
	}
	if err := buildFS.WriteFile(paths.Entry, entry, 0644); err != nil {
		return CompileJob{}, err
	}
	if err := buildFS.WriteFile(paths.Page, page, 0644); err != nil {
		return CompileJob{}, err
	}

	return CompileJob{
		FS:          buildFS,
		Entry:       paths.Entry,
		Outfile:     filepath.Join(s.cfg.OutputDir, core.BundleFileName(key)),
		Production:  s.cfg.Production,
		ResolveDirs: map[string]string{paths.Page: filepath.Dir(source)},
	}, nil
}

func (s *RenderService) fail(log *logging.Logger, key core.CacheKey, kind string, err error) error {
	metrics.BuildFailed.WithLabelValues(kind).Inc()
	log.Warnf("build failed (%s): %v", kind, err)
	return &core.BuildFailedError{Key: key, Err: err}
}

func (s *RenderService) enter(log *logging.Logger, state core.RenderState) {
	metrics.RenderStates.WithLabelValues(state.String()).Inc()
	if state.Terminal() {
		log.Debugf("render finished in %s", state)
		return
	}
	log.Debugf("render state %s", state)
}
