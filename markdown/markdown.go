// Package markdown renders post and book bodies to sanitized HTML and exposes
// the result as templ components.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// engine and policy are safe for concurrent use once built.
var (
	engine = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Raw HTML in the source is kept here and filtered by policy below.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("loading", "decoding").OnElements("img")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render converts markdown src to sanitized HTML. Empty input yields "".
func Render(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := engine.Convert([]byte(src), &buf); err != nil {
		// goldmark only fails on writer errors, which bytes.Buffer never returns.
		return Preformatted(src)
	}
	return policy.Sanitize(buf.String())
}

// Preformatted escapes plain text and keeps its line breaks.
func Preformatted(src string) string {
	if src == "" {
		return ""
	}
	return `<pre class="whitespace-pre-wrap">` + html.EscapeString(src) + `</pre>`
}

// Component writes already rendered HTML verbatim.
func Component(rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// Markdown returns a templ.Component that renders md as sanitized HTML.
func Markdown(md string) templ.Component {
	return Component(Render(md))
}
