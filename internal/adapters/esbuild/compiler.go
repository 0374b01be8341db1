// Package esbuild bundles hydration entries in process. Sources staged in
// the build filesystem are served to esbuild by a plugin, everything else is
// resolved from disk, and output is written back to the build filesystem.
package esbuild

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/3-lines-studio/hydrate/internal/logging"
	"github.com/3-lines-studio/hydrate/internal/usecase"
)

const overlayNamespace = "hydrate-overlay"

var resolveExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".mjs"}

var loaders = map[string]api.Loader{
	".js":   api.LoaderJS,
	".mjs":  api.LoaderJS,
	".jsx":  api.LoaderJSX,
	".ts":   api.LoaderTS,
	".tsx":  api.LoaderTSX,
	".css":  api.LoaderCSS,
	".json": api.LoaderJSON,
}

type Compiler struct{}

func New() *Compiler {
	return &Compiler{}
}

func (c *Compiler) Compile(ctx context.Context, job usecase.CompileJob, done func(error)) {
	done(c.compile(ctx, job))
}

func (c *Compiler) compile(ctx context.Context, job usecase.CompileJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buildCtx, ctxErr := api.Context(buildOptions(job))
	if ctxErr != nil {
		return formatErrors("invalid build options", ctxErr.Errors)
	}
	defer buildCtx.Dispose()

	stop := context.AfterFunc(ctx, buildCtx.Cancel)
	defer stop()

	result := buildCtx.Rebuild()
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return formatErrors("bundle failed", result.Errors)
	}

	log := logging.FromContext(ctx)
	for _, w := range result.Warnings {
		log.Debugf("esbuild: %s", w.Text)
	}

	for _, out := range result.OutputFiles {
		if err := job.FS.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return err
		}
		if err := job.FS.WriteFile(out.Path, out.Contents, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
	}
	return nil
}

func buildOptions(job usecase.CompileJob) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:   []string{job.Entry},
		Outfile:       job.Outfile,
		AbsWorkingDir: job.FS.Root(),
		Bundle:        true,
		Write:         false,
		Format:        api.FormatIIFE,
		Platform:      api.PlatformBrowser,
		Target:        api.ES2020,
		JSX:           api.JSXAutomatic,
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{overlayPlugin(job)},
		Define: map[string]string{
			"process.env.NODE_ENV": `"development"`,
		},
		Sourcemap: api.SourceMapInline,
	}

	if job.Production {
		opts.Define["process.env.NODE_ENV"] = `"production"`
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
		opts.Sourcemap = api.SourceMapNone
	}
	return opts
}

func overlayPlugin(job usecase.CompileJob) api.Plugin {
	return api.Plugin{
		Name: "overlay",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				path, ok := resolveStaged(job.FS, args.Path, args.ResolveDir)
				if !ok {
					// Not staged, let esbuild resolve it from disk.
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: path, Namespace: overlayNamespace}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: overlayNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				data, ok := job.FS.Staged(args.Path)
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("%s is no longer staged", args.Path)
				}

				contents := string(data)
				resolveDir, ok := job.ResolveDirs[args.Path]
				if !ok {
					resolveDir = filepath.Dir(args.Path)
				}
				return api.OnLoadResult{
					Contents:   &contents,
					ResolveDir: resolveDir,
					Loader:     loaderFor(args.Path),
				}, nil
			})
		},
	}
}

func resolveStaged(fsys usecase.BuildFS, importPath, resolveDir string) (string, bool) {
	var base string
	switch {
	case filepath.IsAbs(importPath):
		base = filepath.Clean(importPath)
	case strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../"):
		if resolveDir == "" {
			return "", false
		}
		base = filepath.Join(resolveDir, importPath)
	default:
		return "", false
	}

	if _, ok := fsys.Staged(base); ok {
		return base, true
	}
	for _, ext := range resolveExtensions {
		if _, ok := fsys.Staged(base + ext); ok {
			return base + ext, true
		}
	}
	return "", false
}

func loaderFor(path string) api.Loader {
	if l, ok := loaders[filepath.Ext(path)]; ok {
		return l
	}
	return api.LoaderJS
}

func formatErrors(prefix string, msgs []api.Message) error {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, m := range msgs {
		fmt.Fprintf(&sb, "\n  - %s", m.Text)
		if m.Location != nil {
			fmt.Fprintf(&sb, " (%s:%d:%d)", m.Location.File, m.Location.Line, m.Location.Column)
		}
	}
	return errors.New(sb.String())
}
