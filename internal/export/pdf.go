// PDF rendering of the report model.
//
// Layout follows the printed report: a filled header band with the
// configured title, the quote and description, then one block per report
// entry — category headers on run changes, a score disc tinted with the
// tier color, and the three recommendation texts with the active tier in
// black and the inactive tiers grayed out.
package export

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/report"
)

const (
	pdfMargin     = 10.0
	pdfFooterRoom = 15.0
	blockEstimate = 40.0 // rough per-entry height used for page-break checks
)

// ReportPDF renders the report into a PDF document and returns its bytes.
// Returns an error only when the underlying writer fails; an empty report
// renders the header alone.
func ReportPDF(rep report.Report, settings domain.Settings) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	pageW, pageH := doc.GetPageSize()
	usable := pageW - 2*pdfMargin
	y := 20.0

	// Header band.
	hr, hg, hb := hexToRGB(settings.HeaderColor)
	doc.SetFillColor(hr, hg, hb)
	doc.Rect(pdfMargin, y, usable, 20, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 16)
	doc.Text(pageW/2-doc.GetStringWidth(settings.Title)/2, y+13, settings.Title)
	y += 30

	// Quote, centered.
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 11)
	doc.Text(pageW/2-doc.GetStringWidth(settings.Quote)/2, y, settings.Quote)
	y += 10

	// Description, wrapped.
	doc.SetFont("Helvetica", "", 10)
	for _, line := range doc.SplitText(settings.Description, usable) {
		doc.Text(pdfMargin, y, line)
		y += 5
	}
	y += 5

	writeBlock := func(label, text string, active bool) {
		if text == "" {
			return
		}
		gray := 180
		if active {
			gray = 0
		}
		doc.SetFont("Helvetica", "B", 9)
		doc.SetTextColor(gray, gray, gray)
		doc.Text(pdfMargin, y, label+":")
		y += 5

		doc.SetFont("Helvetica", "", 9)
		for _, line := range doc.SplitText(text, usable) {
			if y+6 > pageH-pdfFooterRoom {
				doc.AddPage()
				y = 20
			}
			doc.Text(pdfMargin, y, line)
			y += 5
		}
		y += 2
	}

	for _, row := range report.Rows(rep) {
		if y+blockEstimate > pageH-20 {
			doc.AddPage()
			y = 20
		}

		if row.Header != "" {
			doc.SetFont("Helvetica", "B", 12)
			doc.SetTextColor(50, 50, 50)
			doc.Text(pdfMargin, y, row.Header)
			y += 8
		}

		e := row.Entry
		doc.SetFont("Helvetica", "B", 10)
		doc.SetTextColor(0, 0, 0)
		doc.Text(pdfMargin, y, e.Field.Label)
		y += 6

		// Score disc tinted with the shared tier color.
		cr, cg, cb := hexToRGB(report.TierColor(e.Tier, settings.Colors))
		doc.SetDrawColor(0, 0, 0)
		doc.SetFillColor(cr, cg, cb)
		discX := pdfMargin + 5
		doc.Circle(discX, y+5, 4, "FD")
		doc.SetTextColor(255, 255, 255)
		doc.SetFont("Helvetica", "", 8)
		num := strconv.Itoa(e.Score)
		doc.Text(discX-doc.GetStringWidth(num)/2, y+6, num)
		y += 12

		writeBlock("HIGH", e.Field.High, e.Tier == report.TierHigh)
		writeBlock("NORMAL", e.Field.Normal, e.Tier == report.TierNormal)
		writeBlock("LOW", e.Field.Low, e.Tier == report.TierLow)
		y += 4
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
