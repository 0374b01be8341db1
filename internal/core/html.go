package core

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleExtraction is the parsed shape of a rendered document plus the style
// markup collected while rendering it.
type StyleExtraction struct {
	Head      string
	Body      string
	RootAttrs []html.Attribute
	BodyAttrs []html.Attribute
	Styles    string
	Adapter   AdapterID
}

// ScriptTags renders the hydration script tag and, outside production, the
// development reload tag.
type ScriptTags struct {
	Src    string
	Reload bool
}

func (s ScriptTags) String() string {
	var sb strings.Builder
	// Src is validated by HydrationScriptURL and written verbatim.
	fmt.Fprintf(&sb, `<script id="%s" src="%s"></script>`, ScriptElementID, s.Src)
	if s.Reload {
		fmt.Fprintf(&sb, `<script src="%s"></script>`, ReloadScriptSrc)
	}
	return sb.String()
}

// MinimalDocument wraps content in the root container of a generated
// document. The head is only emitted when there is something to put in it.
func MinimalDocument(head, content string, scripts ScriptTags) string {
	var sb strings.Builder
	sb.WriteString("<html>")
	if head != "" {
		sb.WriteString("<head>")
		sb.WriteString(head)
		sb.WriteString("</head>")
	}
	fmt.Fprintf(&sb, `<body><div id="%s">`, RootElementID)
	sb.WriteString(content)
	sb.WriteString("</div>")
	sb.WriteString(scripts.String())
	sb.WriteString("</body></html>")
	return sb.String()
}

// ExtractDocument splits a complete document into the attributes of its
// <html> and <body> elements and the inner markup of <head> and <body>.
func ExtractDocument(markup string) (StyleExtraction, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return StyleExtraction{}, fmt.Errorf("failed to parse document: %w", err)
	}

	var ex StyleExtraction
	htmlNode := findElement(root, atom.Html)
	if htmlNode == nil {
		return StyleExtraction{}, fmt.Errorf("document has no html element")
	}
	ex.RootAttrs = htmlNode.Attr

	if head := findElement(htmlNode, atom.Head); head != nil {
		if ex.Head, err = renderChildren(head); err != nil {
			return StyleExtraction{}, err
		}
	}
	if body := findElement(htmlNode, atom.Body); body != nil {
		ex.BodyAttrs = body.Attr
		if ex.Body, err = renderChildren(body); err != nil {
			return StyleExtraction{}, err
		}
	}

	return ex, nil
}

// AssembleDocument re-emits an extracted document with the collected styles
// appended to the head and the script tags appended to the body.
func AssembleDocument(ex StyleExtraction, scripts ScriptTags) string {
	var sb strings.Builder
	sb.WriteString("<html")
	writeAttrs(&sb, ex.RootAttrs)
	sb.WriteString("><head>")
	sb.WriteString(ex.Head)
	sb.WriteString(ex.Styles)
	sb.WriteString("</head><body")
	writeAttrs(&sb, ex.BodyAttrs)
	sb.WriteString(">")
	sb.WriteString(ex.Body)
	sb.WriteString(scripts.String())
	sb.WriteString("</body></html>")
	return sb.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func renderChildren(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("failed to render %s contents: %w", n.Data, err)
		}
	}
	return sb.String(), nil
}

func writeAttrs(sb *strings.Builder, attrs []html.Attribute) {
	for _, a := range attrs {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		fmt.Fprintf(sb, ` %s="%s"`, name, html.EscapeString(a.Val))
	}
}
