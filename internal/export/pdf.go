package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/parleyhq/parley/internal/core"
)

// panelColors cycles per-panelist header fills.
var panelColors = [][3]int{
	{200, 230, 255}, // light blue
	{200, 255, 200}, // light green
	{255, 230, 200}, // light orange
	{235, 215, 255}, // light purple
	{255, 250, 200}, // light yellow
}

// PDFExporter exports debates to PDF format.
type PDFExporter struct{}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(state *core.DebateState, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(state.Topic), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Thread:", shortID(state.ThreadID))
	e.addMetadataRow(pdf, "Mode:", string(state.DebateMode))
	e.addMetadataRow(pdf, "Stances:", string(state.StanceMode))
	e.addMetadataRow(pdf, "Rounds:", fmt.Sprintf("%d of %d", state.DebateRoundNum, state.MaxRounds))
	e.addMetadataRow(pdf, "Outcome:", consensusLabel(state.ConsensusReached))
	e.addMetadataRow(pdf, "Created:", state.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	pdf.Ln(5)

	// Panel section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Panel")
	pdf.Ln(8)

	for i, p := range state.Panel {
		color := panelColors[i%len(panelColors)]
		e.addPanelistBox(pdf, state, p, color[0], color[1], color[2])
		pdf.Ln(3)
	}
	pdf.Ln(5)

	// Debate content
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate")
	pdf.Ln(8)

	if len(state.History) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No rounds recorded.")
		pdf.Ln(6)
	}

	colorFor := make(map[string][3]int, len(state.Panel))
	for i, p := range state.Panel {
		colorFor[p.Name] = panelColors[i%len(panelColors)]
	}

	for _, round := range state.History {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, fmt.Sprintf("Round %d", round.RoundNumber+1))
		pdf.Ln(7)

		if round.UserMessage != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, "Moderator: "+e.sanitizeText(round.UserMessage), "", "", false)
			pdf.Ln(2)
		}

		for _, p := range state.Panel {
			response, ok := round.PanelResponses[p.Name]
			if !ok {
				continue
			}

			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			color := colorFor[p.Name]
			pdf.SetFillColor(color[0], color[1], color[2])
			pdf.SetFont("Arial", "B", 10)
			header := p.Name
			if score, ok := round.Scores[p.Name]; ok {
				header = fmt.Sprintf("%s  (round %+d, total %d)", p.Name, score.RoundTotal, score.Cumulative)
			}
			pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(response), "", "", false)
			pdf.Ln(4)
		}
	}

	// Summary
	if state.Summary != "" {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Summary")
		pdf.Ln(8)

		if state.ConsensusReached {
			pdf.SetFillColor(200, 255, 200) // light green
		} else {
			pdf.SetFillColor(255, 200, 200) // light red
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, consensusLabel(state.ConsensusReached), "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, e.sanitizeText(state.Summary), "", "", false)
		pdf.Ln(3)
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from parley", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// Helper to add a panelist box
func (e *PDFExporter) addPanelistBox(pdf *gofpdf.Fpdf, state *core.DebateState, p core.Panelist, r, g, b int) {
	pdf.SetFillColor(r, g, b)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, p.Name, "", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	pdf.Cell(25, 5, "Provider:")
	pdf.Cell(0, 5, p.Provider)
	pdf.Ln(5)
	if p.Model != "" {
		pdf.Cell(25, 5, "Model:")
		pdf.Cell(0, 5, p.Model)
		pdf.Ln(5)
	}
	if p.Persona != "" {
		pdf.Cell(25, 5, "Persona:")
		pdf.Cell(0, 5, p.Persona)
		pdf.Ln(5)
	}
	if role := state.AssignedRoles[p.Name]; role != nil {
		pdf.Cell(25, 5, "Role:")
		pdf.Cell(0, 5, string(role.Role))
		pdf.Ln(5)
	}
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	replacer := strings.NewReplacer(
		"‘", "'", // Left single quote
		"’", "'", // Right single quote
		"“", "\"", // Left double quote
		"”", "\"", // Right double quote
		"–", "-", // En dash
		"—", "--", // Em dash
		"…", "...", // Ellipsis
		"•", "*", // Bullet
		" ", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}

// shortID truncates a thread ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
