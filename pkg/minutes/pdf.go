// ABOUTME: PDF export for meeting minutes
// ABOUTME: Lays out sections with gofpdf and an optional Unicode font
package minutes

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFOptions controls PDF rendering
type PDFOptions struct {
	// FontPath is a UTF-8 TrueType font (e.g. NanumGothic.ttf). Without it the
	// core Helvetica font is used and characters outside Latin-1 cannot render.
	FontPath string

	// FontBytes takes precedence over FontPath when set
	FontBytes []byte
}

const pdfFontFamily = "minutes"

// PDF renders the minutes as an A4 document
func PDF(m MeetingData, opts PDFOptions) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	pdf.SetCatalogSort(true)
	pdf.SetTitle(m.Title, true)
	pdf.SetCreator("STEK Minutes", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	switch {
	case len(opts.FontBytes) > 0:
		pdf.AddUTF8FontFromBytes(pdfFontFamily, "", opts.FontBytes)
		family = pdfFontFamily
		tr = func(s string) string { return s }
	case opts.FontPath != "":
		pdf.AddUTF8Font(pdfFontFamily, "", opts.FontPath)
		family = pdfFontFamily
		tr = func(s string) string { return s }
	}
	if pdf.Err() {
		return nil, fmt.Errorf("failed to load pdf font: %w", pdf.Error())
	}

	// UTF-8 fonts are registered with a single style
	style := func(s string) string {
		if family == pdfFontFamily {
			return ""
		}
		return s
	}

	pdf.AddPage()
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentWidth := width - left - right

	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont(family, style("B"), 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(contentWidth, 8, tr(text), "B", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	body := func(text string) {
		pdf.SetFont(family, "", 11)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(contentWidth, 6, tr(text), "", "L", false)
	}

	pdf.SetFont(family, style("B"), 20)
	pdf.MultiCell(contentWidth, 10, tr(m.Title), "", "C", false)
	pdf.Ln(2)

	pdf.SetFont(family, style("B"), 11)
	pdf.MultiCell(contentWidth, 6, tr("Date: "+m.Date), "", "L", false)
	pdf.SetFont(family, style("I"), 11)
	pdf.MultiCell(contentWidth, 6, tr("Participants: "+strings.Join(m.Participants, ", ")), "", "L", false)

	heading("Summary")
	body(m.Summary)

	heading("Discussion")
	for _, d := range m.Discussion {
		pdf.SetFont(family, style("B"), 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(contentWidth, 6, tr(d.Topic), "", "L", false)
		body(d.Content)
		pdf.Ln(1)
	}

	heading("Decisions")
	for _, d := range m.Decisions {
		body("- " + d)
	}

	heading("Action Items")
	for _, a := range m.ActionItems {
		body("- " + a.String())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
