package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/3-lines-studio/hydrate/internal/config"
	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
)

type Options struct {
	Renderer   PageRenderer
	Pages      []config.Page
	OutputDir  string
	PublicDir  string
	Production bool
	// Reload is only mounted outside production.
	Reload *Reload
	Logger *logging.Logger
}

// NewHandler routes configured pages, the metrics endpoint, the development
// reload endpoints and, for everything else, static files.
func NewHandler(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	mux := http.NewServeMux()
	for _, page := range opts.Pages {
		mux.Handle("GET "+routePattern(page.Path), NewPageHandler(opts.Renderer, page, !opts.Production, log))
	}

	mux.Handle("GET /metrics", promhttp.Handler())

	if !opts.Production && opts.Reload != nil {
		mux.HandleFunc("GET "+core.ReloadScriptSrc, opts.Reload.ServeScript)
		mux.HandleFunc("GET /reload/events", opts.Reload.ServeEvents)
	}

	mux.Handle("GET /", NewAssetHandler(StaticFS(opts.OutputDir, opts.PublicDir)))
	return mux
}

func routePattern(path string) string {
	path = core.NormalizePath(path)
	if path == "/" {
		return "/{$}"
	}
	return path
}
