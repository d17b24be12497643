// Package markdown turns user-supplied descriptions into sanitized HTML.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts markdown to HTML restricted to an allow-list of tags.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewRenderer builds a GFM renderer whose output keeps only paragraphs, links,
// lists, emphasis, blockquotes and code.
func NewRenderer() *Renderer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "a", "ul", "ol", "li", "strong", "em", "blockquote", "code", "pre")
	policy.AllowAttrs("href", "target", "rel").OnElements("a")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// Render returns safe HTML for src. Conversion errors degrade to the escaped
// source text.
func (r *Renderer) Render(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// PlainText renders src and strips every tag, collapsing whitespace. It is
// used for excerpts and meta descriptions.
func (r *Renderer) PlainText(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return strings.Join(strings.Fields(src), " ")
	}
	text := html.UnescapeString(r.strict.Sanitize(buf.String()))
	return strings.Join(strings.Fields(text), " ")
}

var defaultRenderer = NewRenderer()

// Render uses a shared renderer; goldmark and bluemonday are safe for
// concurrent use.
func Render(src string) template.HTML {
	return defaultRenderer.Render(src)
}

// PlainText uses the shared renderer.
func PlainText(src string) string {
	return defaultRenderer.PlainText(src)
}
