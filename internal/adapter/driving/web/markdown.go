package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	messageRenderer  goldmark.Markdown
	messageSanitizer *bluemonday.Policy
)

func init() {
	// Assistant replies are model output: render GFM with hard wraps, then
	// sanitize, since raw HTML passes through the renderer.
	messageRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
	)

	messageSanitizer = bluemonday.UGCPolicy()
	messageSanitizer.RequireNoFollowOnLinks(true)
	messageSanitizer.AddTargetBlankToFullyQualifiedLinks(true)
}

// RenderMarkdown converts a conversation message to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := messageRenderer.Convert([]byte(src), &buf); err != nil {
		return messageSanitizer.Sanitize(src)
	}

	return messageSanitizer.Sanitize(buf.String())
}
