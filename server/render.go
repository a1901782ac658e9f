package server

import (
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderMarkdown converts a markdown report into sanitized HTML.
func RenderMarkdown(source string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	unsafe := markdown.ToHTML([]byte(source), p, renderer)
	return bluemonday.UGCPolicy().SanitizeBytes(unsafe)
}
