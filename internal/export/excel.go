// Spreadsheet rendering of the report model: one row per entry with the
// field label, its category ("Uncategorized" for the empty sentinel), the
// score, and the active tier's recommendation with embedded line breaks
// flattened to spaces.
package export

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/report"
)

// maxSheetNameLen is the spreadsheet format's hard sheet-name limit.
const maxSheetNameLen = 31

// ReportXLSX renders the report into an XLSX workbook and returns its bytes.
func ReportXLSX(rep report.Report, settings domain.Settings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(settings.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"Field", "Category", "Score", "Recommendation"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, e := range rep {
		category := e.Field.Category
		if category == "" {
			category = "Uncategorized"
		}
		row := []any{
			e.Field.Label,
			category,
			e.Score,
			strings.ReplaceAll(e.Recommendation(), "\n", " "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetName derives a legal sheet name from the configured report title.
func sheetName(title string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "Report"
	}
	// Characters the format forbids in sheet names.
	for _, bad := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		name = strings.ReplaceAll(name, bad, " ")
	}
	// The limit is 31 characters, not bytes; slicing bytes could cut a
	// multibyte title mid-rune.
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return strings.TrimSpace(name)
}
