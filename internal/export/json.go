package export

import (
	"encoding/json"
	"io"

	"github.com/parleyhq/parley/internal/core"
)

// JSONExporter exports debates to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Debate *core.DebateState `json:"debate"`
}

// Export writes the debate as JSON.
func (e *JSONExporter) Export(state *core.DebateState, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Debate: state})
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
