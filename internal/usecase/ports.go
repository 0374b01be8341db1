package usecase

import (
	"context"

	"github.com/3-lines-studio/hydrate/internal/adapters/fs"
	"github.com/3-lines-studio/hydrate/internal/core"
)

// Component is a loaded page that can be rendered to static markup.
type Component interface {
	RenderStatic(ctx context.Context, props map[string]any) (string, error)
}

type ComponentLoader interface {
	Load(ctx context.Context, path string) (Component, error)
}

// StyleSheet collects the styles a CSS-in-JS library emits while a component
// renders. A sheet must be sealed once the document is assembled.
type StyleSheet interface {
	Collect(ctx context.Context, c Component, props map[string]any) (string, error)
	StyleTags(ctx context.Context) (string, error)
	Seal(ctx context.Context) error
}

type StyleSheets interface {
	NewSheet(ctx context.Context, adapter core.AdapterID) (StyleSheet, error)
}

// DocumentTemplate wraps a rendered page in a complete HTML document that
// loads the hydration script.
type DocumentTemplate interface {
	Wrap(ctx context.Context, page Component, props map[string]any, script string) (string, error)
}

// SourceTemplater injects props into a source file.
type SourceTemplater interface {
	Template(name string, src []byte, data map[string]any) ([]byte, error)
}

// BuildFS is the filesystem a compiler reads sources from and writes its
// output to.
type BuildFS interface {
	FileSystem
	Root() string
	Staged(path string) ([]byte, bool)
}

type CompileJob struct {
	FS         BuildFS
	Entry      string
	Outfile    string
	Production bool
	// ResolveDirs maps a staged source to the directory its relative
	// imports resolve from, when that differs from where it was staged.
	ResolveDirs map[string]string
}

// Compiler bundles job.Entry into job.Outfile on job.FS and calls done
// exactly once with the outcome.
type Compiler interface {
	Compile(ctx context.Context, job CompileJob, done func(error))
}

// BundleCache persists built bundles by cache key.
type BundleCache interface {
	Key(filePath string, props map[string]any) (core.CacheKey, error)
	Exists(ctx context.Context, key core.CacheKey) (bool, error)
	Store(ctx context.Context, key core.CacheKey, data []byte) error
	Location(key core.CacheKey) string
}

type FileSystem = fs.FileSystem
