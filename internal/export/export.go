// Package export renders finished debates to shareable formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parleyhq/parley/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// Exporter defines the interface for exporting debates.
type Exporter interface {
	Export(state *core.DebateState, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	case FormatHTML:
		return &HTMLExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(state *core.DebateState, ext string) string {
	// Sanitize topic for filename
	topic := state.Topic
	if len(topic) > 50 {
		topic = topic[:50]
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	timestamp := state.CreatedAt.Format("20060102")
	return fmt.Sprintf("debate_%s_%s.%s", timestamp, topic, ext)
}

// formatPanelist renders a panelist with its backing provider.
func formatPanelist(p core.Panelist) string {
	backend := p.Provider
	if p.Model != "" {
		backend = fmt.Sprintf("%s/%s", p.Provider, p.Model)
	}
	return fmt.Sprintf("%s (%s)", p.Name, backend)
}

// consensusLabel renders the consensus outcome for headers.
func consensusLabel(reached bool) string {
	if reached {
		return "Consensus Reached"
	}
	return "No Consensus"
}
