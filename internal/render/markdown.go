// Package render turns stored markdown into sanitized HTML and plain-text
// excerpts.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			extension.Linkify,
			extension.Strikethrough,
			extension.Table,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// raw HTML is allowed through and cleaned by ugc below
			html.WithUnsafe(),
		),
	)

	ugc    = newUGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// Markdown converts markdown to sanitized HTML
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return ugc.Sanitize(buf.String()), nil
}

// PlainText strips all markup from rendered HTML and collapses whitespace
func PlainText(renderedHTML string) string {
	text := stdhtml.UnescapeString(strict.Sanitize(renderedHTML))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt shortens text to at most n runes, cutting at a word boundary
// when one is available.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// Summary returns the description when set, otherwise an excerpt of the
// rendered markdown body.
func Summary(description, markdown string, n int) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	rendered, err := Markdown(markdown)
	if err != nil {
		return ""
	}
	return Excerpt(PlainText(rendered), n)
}
