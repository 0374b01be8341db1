// Package hydrate renders component pages to HTML on the server and makes
// sure the client bundle that hydrates each page exists before the page is
// returned. Bundles are built on demand and cached by the hash of the
// environment, the page file and its props.
package hydrate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/3-lines-studio/hydrate/internal/adapters/esbuild"
	httpadapter "github.com/3-lines-studio/hydrate/internal/adapters/http"
	"github.com/3-lines-studio/hydrate/internal/adapters/process"
	"github.com/3-lines-studio/hydrate/internal/adapters/store"
	"github.com/3-lines-studio/hydrate/internal/adapters/templating"
	"github.com/3-lines-studio/hydrate/internal/cache"
	"github.com/3-lines-studio/hydrate/internal/config"
	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
	"github.com/3-lines-studio/hydrate/internal/usecase"
)

type (
	Config = config.Config
	Page   = config.Page

	Component        = usecase.Component
	ComponentLoader  = usecase.ComponentLoader
	StyleSheet       = usecase.StyleSheet
	StyleSheets      = usecase.StyleSheets
	DocumentTemplate = usecase.DocumentTemplate
	SourceTemplater  = usecase.SourceTemplater
	Compiler         = usecase.Compiler
	CompileJob       = usecase.CompileJob
	BundleStore      = store.BundleStore
	BundleEntry      = cache.Entry
	Logger           = logging.Logger

	CacheKey          = core.CacheKey
	AdapterID         = core.AdapterID
	HashingError      = core.HashingError
	BuildFailedError  = core.BuildFailedError
	RenderFailedError = core.RenderFailedError
)

var (
	ErrBuildTimeout    = core.ErrBuildTimeout
	ErrMissingArtifact = core.ErrMissingArtifact
	ErrInvalidScript   = core.ErrInvalidScript
)

// LoadConfig reads a YAML config file, applies HYDRATE_* environment
// overrides and defaults, and validates the result. An empty filename loads
// defaults only.
func LoadConfig(filename string) (*Config, error) {
	return config.Load(filename)
}

type options struct {
	loader    ComponentLoader
	sheets    StyleSheets
	compiler  Compiler
	store     BundleStore
	templater SourceTemplater
	document  DocumentTemplate
	logger    *Logger
}

type Option func(*options)

// WithLoader replaces the bun renderer as the way pages are loaded. No bun
// process is started when a loader is given.
func WithLoader(l ComponentLoader) Option {
	return func(o *options) { o.loader = l }
}

func WithStyleSheets(s StyleSheets) Option {
	return func(o *options) { o.sheets = s }
}

func WithCompiler(c Compiler) Option {
	return func(o *options) { o.compiler = c }
}

func WithStore(s BundleStore) Option {
	return func(o *options) { o.store = s }
}

func WithTemplater(t SourceTemplater) Option {
	return func(o *options) { o.templater = t }
}

func WithDocument(d DocumentTemplate) Option {
	return func(o *options) { o.document = d }
}

func WithLogger(l *Logger) Option {
	return func(o *options) { o.logger = l }
}

type Hydrate struct {
	cfg      Config
	log      *logging.Logger
	renderer *process.Renderer
	cache    *cache.Cache
	service  *usecase.RenderService
	reload   *httpadapter.Reload
}

func New(cfg Config, opts ...Option) (*Hydrate, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = logging.New(logging.Config{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
		if err != nil {
			return nil, err
		}
	}

	h := &Hydrate{cfg: cfg, log: log}

	st := o.store
	if st == nil {
		var err error
		if st, err = newStore(cfg); err != nil {
			return nil, err
		}
	}

	c, err := cache.New(cfg.Environment, st, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	h.cache = c

	loader := o.loader
	if loader == nil {
		r, err := process.NewRenderer(process.Options{WorkDir: cfg.WorkDir, Production: cfg.IsProduction()})
		if err != nil {
			return nil, err
		}
		h.renderer = r
		loader = r
	}

	sheets := o.sheets
	if sheets == nil {
		if s, ok := loader.(StyleSheets); ok {
			sheets = s
		} else {
			sheets = noStyleSheets{}
		}
	}

	document := o.document
	if document == nil {
		document = usecase.NewDocumentAssembler(sheets, usecase.DocumentOptions{
			Production:        cfg.IsProduction(),
			LegacyScriptQuery: cfg.LegacyScriptQuery,
		})
	}

	templater := o.templater
	if templater == nil {
		templater = templating.New()
	}

	compiler := o.compiler
	if compiler == nil {
		compiler = esbuild.New()
	}

	h.service = usecase.NewRenderService(usecase.RenderDeps{
		Loader:    loader,
		Document:  document,
		Cache:     c,
		Templater: templater,
		Compiler:  compiler,
	}, usecase.RenderConfig{
		WorkDir:      cfg.WorkDir,
		OutputDir:    cfg.OutputDir,
		SourceDir:    cfg.SourceDir,
		ScriptBase:   cfg.ScriptBase,
		BuildTimeout: cfg.BuildTimeout.Duration(),
		Production:   cfg.IsProduction(),
	})

	if !cfg.IsProduction() {
		h.reload = httpadapter.NewReload()
	}

	log.Debugf("hydrate ready (env %s, output %s)", cfg.Environment, cfg.OutputDir)
	return h, nil
}

func newStore(cfg Config) (BundleStore, error) {
	if s3 := cfg.Storage.AmazonS3; s3 != nil {
		return store.NewS3Store(context.Background(), *s3)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return store.NewDiskStore(cfg.OutputDir), nil
}

// Render returns the HTML document for file rendered with props. On a cache
// miss it returns only once the page's bundle has been built and stored.
func (h *Hydrate) Render(ctx context.Context, file string, props map[string]any) (string, error) {
	return h.service.Render(logging.WithContext(ctx, h.log), file, props)
}

// Handler serves the configured pages, the bundles and public files, the
// metrics endpoint and, outside production, the reload endpoints.
func (h *Hydrate) Handler() http.Handler {
	return httpadapter.NewHandler(httpadapter.Options{
		Renderer:   h.service,
		Pages:      h.cfg.Pages,
		OutputDir:  h.cfg.OutputDir,
		PublicDir:  h.cfg.PublicDir,
		Production: h.cfg.IsProduction(),
		Reload:     h.reload,
		Logger:     h.log,
	})
}

// Reload tells connected development browsers to reload. It is a no-op in
// production.
func (h *Hydrate) Reload() {
	if h.reload != nil {
		h.reload.Notify()
	}
}

func (h *Hydrate) Config() Config {
	return h.cfg
}

// Key returns the cache key a render of file with props is stored under.
func (h *Hydrate) Key(file string, props map[string]any) (CacheKey, error) {
	return h.cache.Key(file, props)
}

// Bundles lists the bundles in the cache.
func (h *Hydrate) Bundles(ctx context.Context) ([]BundleEntry, error) {
	return h.cache.List(ctx)
}

// ListBundles lists the bundles in the store cfg points at without starting
// a renderer.
func ListBundles(ctx context.Context, cfg Config) ([]BundleEntry, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.Environment, st, 1)
	if err != nil {
		return nil, err
	}
	return c.List(ctx)
}

// Close stops the bun renderer if New started one.
func (h *Hydrate) Close() error {
	if h.renderer != nil {
		return h.renderer.Stop()
	}
	return nil
}

var errNoStyleSheets = errors.New("no style sheets configured for this loader")

type noStyleSheets struct{}

func (noStyleSheets) NewSheet(context.Context, core.AdapterID) (StyleSheet, error) {
	return nil, errNoStyleSheets
}
