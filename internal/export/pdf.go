// Package export renders a simplification result as a printable reading
// sheet.
package export

import (
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gosimplify/internal/highlight"
)

// Sheet is the content of one reading sheet.
type Sheet struct {
	Title    string
	Text     string
	Keywords []string
}

// WritePDF renders the sheet: the title, a keyword line and the text with
// every keyword occurrence in bold. Wide spacing and a large font follow
// common dyslexia-friendly layout advice. Core fonts only cover cp1252, so
// characters outside it are replaced by the translator.
func WritePDF(w io.Writer, s Sheet) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "Simplified text"
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(s.Keywords) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Write(7, tr("Keywords: "))
		pdf.SetFont("Helvetica", "", 12)
		pdf.Write(7, tr(strings.Join(s.Keywords, ", ")))
		pdf.Ln(12)
	}

	const lineHeight = 8.5
	for _, para := range strings.Split(s.Text, "\n") {
		if strings.TrimSpace(para) == "" {
			pdf.Ln(lineHeight / 2)
			continue
		}
		for _, seg := range highlight.Segments(para, s.Keywords) {
			style := ""
			if seg.Marked {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 14)
			pdf.Write(lineHeight, tr(seg.Text))
		}
		pdf.Ln(lineHeight + 2)
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
