package core

import (
	"errors"
	"fmt"
	"html/template"
)

var (
	ErrBuildTimeout    = errors.New("build did not complete before the timeout")
	ErrMissingArtifact = errors.New("compiler finished without producing the bundle")
	ErrInvalidScript   = errors.New("invalid hydration script reference")
)

// HashingError aborts a render before any output is produced.
type HashingError struct {
	File string
	Err  error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("failed to hash props for %s: %v", e.File, e.Err)
}

func (e *HashingError) Unwrap() error {
	return e.Err
}

// BuildFailedError is returned when the hydration bundle for Key could not
// be produced or persisted.
type BuildFailedError struct {
	Key CacheKey
	Err error
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("build %s failed: %v", e.Key, e.Err)
}

func (e *BuildFailedError) Unwrap() error {
	return e.Err
}

// RenderFailedError carries the style adapter that was assembling the
// document when rendering failed.
type RenderFailedError struct {
	Adapter AdapterID
	Err     error
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("render failed (adapter %s): %v", e.Adapter, e.Err)
}

func (e *RenderFailedError) Unwrap() error {
	return e.Err
}

type ErrorData struct {
	Message string
	IsDev   bool
}

var ErrorTemplate = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Error</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 0 20px; }
        h1 { color: #e74c3c; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>Internal Server Error</h1>
    {{if .IsDev}}
    <pre>{{.Message}}</pre>
    {{else}}
    <p>An error occurred while processing your request.</p>
    {{end}}
</body>
</html>`))
