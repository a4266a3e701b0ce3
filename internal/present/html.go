package present

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/lawdesk/matterflow/internal/matter"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle("github")),
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderSummaryHTML renders the case summary document as HTML for review
// in a browser.
func RenderSummaryHTML(brief *matter.CaseBrief) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Summary(brief)), &buf); err != nil {
		return nil, fmt.Errorf("rendering summary: %w", err)
	}
	return buf.Bytes(), nil
}
