package usecase

import (
	"context"
	"maps"
	"time"

	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
	"github.com/3-lines-studio/hydrate/internal/metrics"
)

// sealTimeout bounds the release of a style sheet after the request that
// owned it has gone away.
const sealTimeout = 5 * time.Second

type DocumentOptions struct {
	Production        bool
	LegacyScriptQuery bool
}

// DocumentAssembler renders a page, detects the style library it was built
// with and assembles the final document around it.
type DocumentAssembler struct {
	sheets StyleSheets
	opts   DocumentOptions
}

func NewDocumentAssembler(sheets StyleSheets, opts DocumentOptions) *DocumentAssembler {
	return &DocumentAssembler{sheets: sheets, opts: opts}
}

func (a *DocumentAssembler) Wrap(ctx context.Context, page Component, props map[string]any, script string) (string, error) {
	// Rendered once to sniff the style library, then discarded.
	markup, err := page.RenderStatic(ctx, props)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterDefault, Err: err}
	}

	adapter := core.DetectAdapter(markup)
	withHTML := core.HasDocument(markup)

	src, err := core.HydrationScriptURL(script, adapter, a.opts.LegacyScriptQuery)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: adapter, Err: err}
	}
	scripts := core.ScriptTags{Src: src, Reload: !a.opts.Production}

	metrics.DocumentAdapters.WithLabelValues(string(adapter)).Inc()
	logging.FromContext(ctx).Debugf("assembling document with adapter %s (with html: %v)", adapter, withHTML)

	switch adapter {
	case core.AdapterMaterialUI:
		return a.wrapMaterialUI(ctx, page, props, withHTML, scripts)
	case core.AdapterStyledComponents:
		return a.wrapStyledComponents(ctx, page, props, withHTML, scripts)
	default:
		// Emotion has no assembly of its own and is handled like any
		// unstyled page.
		return a.wrapDefault(ctx, page, props, markup, withHTML, scripts)
	}
}

func (a *DocumentAssembler) wrapMaterialUI(ctx context.Context, page Component, props map[string]any, withHTML bool, scripts core.ScriptTags) (_ string, err error) {
	sheet, err := a.sheets.NewSheet(ctx, core.AdapterMaterialUI)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterMaterialUI, Err: err}
	}
	defer release(ctx, sheet, core.AdapterMaterialUI, &err)

	renderProps := props
	if withHTML {
		renderProps = withScript(props, scripts.Src)
	}

	markup, err := sheet.Collect(ctx, page, renderProps)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterMaterialUI, Err: err}
	}
	styles, err := sheet.StyleTags(ctx)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterMaterialUI, Err: err}
	}

	if !withHTML {
		return core.MinimalDocument(styles, markup, scripts), nil
	}

	ex, err := core.ExtractDocument(markup)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterMaterialUI, Err: err}
	}
	ex.Styles = styles
	ex.Adapter = core.AdapterMaterialUI
	return core.AssembleDocument(ex, scripts), nil
}

// wrapStyledComponents returns an empty document for pages that render their
// own <html>; only bare pages are assembled.
func (a *DocumentAssembler) wrapStyledComponents(ctx context.Context, page Component, props map[string]any, withHTML bool, scripts core.ScriptTags) (_ string, err error) {
	if withHTML {
		logging.FromContext(ctx).Warnf("styled-components page renders its own document, nothing assembled")
		return "", nil
	}

	sheet, err := a.sheets.NewSheet(ctx, core.AdapterStyledComponents)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterStyledComponents, Err: err}
	}
	defer release(ctx, sheet, core.AdapterStyledComponents, &err)

	markup, err := sheet.Collect(ctx, page, props)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterStyledComponents, Err: err}
	}
	styles, err := sheet.StyleTags(ctx)
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterStyledComponents, Err: err}
	}

	return core.MinimalDocument(styles, markup, scripts), nil
}

func (a *DocumentAssembler) wrapDefault(ctx context.Context, page Component, props map[string]any, markup string, withHTML bool, scripts core.ScriptTags) (string, error) {
	if !withHTML {
		return core.MinimalDocument("", markup, scripts), nil
	}

	// The page renders its own document and places the script itself.
	doc, err := page.RenderStatic(ctx, withScript(props, scripts.Src))
	if err != nil {
		return "", &core.RenderFailedError{Adapter: core.AdapterDefault, Err: err}
	}
	return doc, nil
}

// release seals sheet even when ctx is already done, so the renderer drops
// it whether or not the render succeeded.
func release(ctx context.Context, sheet StyleSheet, adapter core.AdapterID, err *error) {
	sealCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sealTimeout)
	defer cancel()

	if sealErr := sheet.Seal(sealCtx); sealErr != nil {
		if *err == nil {
			*err = &core.RenderFailedError{Adapter: adapter, Err: sealErr}
			return
		}
		logging.FromContext(ctx).Warnf("failed to seal %s style sheet: %v", adapter, sealErr)
	}
}

func withScript(props map[string]any, src string) map[string]any {
	out := make(map[string]any, len(props)+1)
	maps.Copy(out, props)
	out["script"] = src
	return out
}
