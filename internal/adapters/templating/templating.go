// Package templating injects props into page sources before they are
// bundled. Actions are delimited by <% and %> so they do not collide with
// JSX braces.
package templating

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

const (
	LeftDelim  = "<%"
	RightDelim = "%>"
)

type Templater struct{}

func New() *Templater {
	return &Templater{}
}

// Template executes src with data. A source without any action is returned
// unchanged.
func (t *Templater) Template(name string, src []byte, data map[string]any) ([]byte, error) {
	if !bytes.Contains(src, []byte(LeftDelim)) {
		return src, nil
	}

	tmpl, err := template.New(name).
		Delims(LeftDelim, RightDelim).
		Funcs(funcMap()).
		Option("missingkey=error").
		Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"json": toJSON,
	}
}

func toJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
