package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
)

const (
	pdfFont      = "Helvetica"
	pdfRowHeight = 6.0
	pdfMargin    = 10.0
)

// pdfWidths are the column widths in mm for an A4 landscape page. The
// critical column is shown as row highlighting instead of text.
var pdfWidths = []float64{16, 62, 26, 13, 20, 11, 28, 24, 22, 19, 19, 17}

// PDFExporter writes an A4 landscape table with a title and localized
// headers. Critical tasks are highlighted.
type PDFExporter struct{}

func (PDFExporter) Export(w io.Writer, tasks []domain.ScheduledTask, opts Options) error {
	opts.defaults()

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreationDate(opts.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headers := header(opts.Lang)[:len(pdfWidths)]
	_, pageHeight := pdf.GetPageSize()

	tableHeader := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(60, 60, 60)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range headers {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 8)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 9)
	pdf.CellFormat(0, 6, opts.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	tableHeader()

	for _, t := range tasks {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfMargin {
			pdf.AddPage()
			tableHeader()
		}

		fill := t.Critical
		if fill {
			pdf.SetFillColor(255, 221, 221)
		}
		for i, cell := range row(t, opts.Lang)[:len(pdfWidths)] {
			align := "L"
			if i == 3 || i == 4 || i == 5 || i == 11 {
				align = "R"
			}
			text := fit(pdf, tr, cell, pdfWidths[i]-2)
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, text, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(tasks) == 0 {
		pdf.CellFormat(0, pdfRowHeight, tr(i18n.T(opts.Lang, "no-data")), "1", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("could not render PDF: %w", err)
	}
	return nil
}

// fit translates text to the font encoding and truncates it to width,
// marking the cut with "..".
func fit(pdf *fpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if out := tr(text); pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"..")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "..")
}
