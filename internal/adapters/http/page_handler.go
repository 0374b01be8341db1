package http

import (
	"bytes"
	"context"
	"errors"
	"html"
	"maps"
	"net/http"

	"github.com/3-lines-studio/hydrate/internal/config"
	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
)

type PageRenderer interface {
	Render(ctx context.Context, file string, props map[string]any) (string, error)
}

type PageHandler struct {
	renderer PageRenderer
	page     config.Page
	isDev    bool
	log      *logging.Logger
}

func NewPageHandler(renderer PageRenderer, page config.Page, isDev bool, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &PageHandler{
		renderer: renderer,
		page:     page,
		isDev:    isDev,
		log:      log,
	}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := logging.WithContext(req.Context(), h.log.With("path", req.URL.Path))

	doc, err := h.renderer.Render(ctx, h.page.File, h.props(req))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.log.Errorf("failed to render %s: %v", h.page.File, err)
		h.serveError(w, err)
		return
	}

	h.serveHTML(w, doc)
}

// props layers query parameters over the configured props. A parameter
// given once is a string, repeated parameters are a list.
func (h *PageHandler) props(req *http.Request) map[string]any {
	props := make(map[string]any, len(h.page.Props))
	maps.Copy(props, h.page.Props)

	for k, v := range req.URL.Query() {
		if len(v) == 1 {
			props[k] = v[0]
		} else {
			props[k] = v
		}
	}
	return props
}

func (h *PageHandler) serveHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *PageHandler) serveError(w http.ResponseWriter, err error) {
	data := core.ErrorData{
		Message: err.Error(),
		IsDev:   h.isDev,
	}

	status := http.StatusInternalServerError
	var hashErr *core.HashingError
	if errors.As(err, &hashErr) {
		status = http.StatusBadRequest
	}

	var buf bytes.Buffer
	if err := core.ErrorTemplate.Execute(&buf, data); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<!doctype html><html><body><pre>" + html.EscapeString(data.Message) + "</pre></body></html>"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
