package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/parleyhq/parley/internal/core"
)

// HTMLExporter exports debates as a standalone HTML page. The body is the
// Markdown render converted with goldmark, so both formats always agree on
// content.
type HTMLExporter struct{}

// Export writes the debate as HTML.
func (e *HTMLExporter) Export(state *core.DebateState, w io.Writer) error {
	var md bytes.Buffer
	if err := (&MarkdownExporter{}).Export(state, &md); err != nil {
		return err
	}

	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := converter.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlShell, html.EscapeString(state.Topic), body.String()); err != nil {
		return err
	}
	return nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return "html"
}

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 820px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; line-height: 1.6; }
  h1 { border-bottom: 2px solid #e0e0e0; padding-bottom: .4rem; }
  h4 { margin-bottom: .3rem; }
  blockquote { border-left: 3px solid #888; margin-left: 0; padding-left: 1rem; color: #444; }
  table { border-collapse: collapse; margin: 1rem 0; }
  th, td { border: 1px solid #ccc; padding: .3rem .8rem; text-align: left; }
  hr { border: none; border-top: 1px solid #e0e0e0; margin: 1.5rem 0; }
  code { background: #f4f4f4; padding: .1rem .3rem; border-radius: 3px; }
</style>
</head>
<body>
%s
</body>
</html>
`
