// Package content turns editor output into the HTML stored on a post.
package content

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
	)
	richTextPolicy = newRichTextPolicy()
	textPolicy     = bluemonday.StrictPolicy()
)

// 富文本编辑器会输出对齐、颜色等内联样式，在 UGC 策略基础上放开这些属性。
func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("p", "span", "div", "h1", "h2", "h3", "h4", "h5", "h6", "td", "th", "img", "li")
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	p.AllowStyles("color", "background-color").Globally()
	p.AllowStyles("width", "height").OnElements("img")
	p.AllowAttrs("width", "height").OnElements("img")
	return p
}

// Normalize converts submitted editor content into sanitised HTML.
// Unknown formats are treated as HTML.
func Normalize(format, raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := markdownEngine.Convert([]byte(raw), &buf); err != nil {
			return "", err
		}
		return strings.TrimSpace(richTextPolicy.Sanitize(buf.String())), nil
	default:
		return strings.TrimSpace(richTextPolicy.Sanitize(raw)), nil
	}
}

// Render returns stored content for unescaped output on the detail page.
func Render(stored string) template.HTML {
	return template.HTML(richTextPolicy.Sanitize(stored))
}

// Excerpt strips markup and shortens the text to at most limit runes.
func Excerpt(stored string, limit int) string {
	text := html.UnescapeString(textPolicy.Sanitize(stored))
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
