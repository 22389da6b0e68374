package export

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/report"
)

func TestHexToRGB(t *testing.T) {
	type rgb struct{ r, g, b int }
	cases := map[string]rgb{
		"#ffffff": {255, 255, 255},
		"ffffff":  {255, 255, 255},
		"#000000": {0, 0, 0},
		"#16A34A": {22, 163, 74},
		"#fff":    {0, 0, 0}, // short form unsupported, falls back to black
		"":        {0, 0, 0},
		"garbage": {0, 0, 0},
	}
	for in, want := range cases {
		r, g, b := hexToRGB(in)
		if r != want.r || g != want.g || b != want.b {
			t.Errorf("hexToRGB(%q) = (%d,%d,%d); want (%d,%d,%d)", in, r, g, b, want.r, want.g, want.b)
		}
	}
}

func sampleSettings() domain.Settings {
	return domain.Settings{
		Title:         "Genomics Diet Report",
		Quote:         "Eat well.",
		Description:   "A summary of your results.",
		HeaderColor:   "#1f2937",
		HighThreshold: 8,
		Colors:        domain.TierColors{Low: "#dc2626", Medium: "#eab308", High: "#16a34a"},
	}
}

func sampleReport() report.Report {
	fields := []domain.Field{
		{ID: "iron", Label: "Iron", Category: "Minerals", High: "h1", Normal: "n1", Low: "l1"},
		{ID: "mood", Label: "Mood", Category: "", High: "h2", Normal: "n2", Low: "l2"},
	}
	return report.Generate(fields, map[string]string{"iron": "9", "mood": "3"}, 8)
}

func TestReportPDF(t *testing.T) {
	out, err := ReportPDF(sampleReport(), sampleSettings())
	if err != nil {
		t.Fatalf("ReportPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with PDF magic: %q", out[:8])
	}
}

func TestReportPDF_EmptyReport(t *testing.T) {
	out, err := ReportPDF(nil, sampleSettings())
	if err != nil {
		t.Fatalf("ReportPDF on empty report: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("empty report should still render the header")
	}
}

func TestReportXLSX(t *testing.T) {
	out, err := ReportXLSX(sampleReport(), sampleSettings())
	if err != nil {
		t.Fatalf("ReportXLSX: %v", err)
	}
	// XLSX is a ZIP container.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatalf("output does not start with ZIP magic: %q", out[:4])
	}
}

func TestSheetName(t *testing.T) {
	cases := map[string]string{
		"Genomics Diet Report": "Genomics Diet Report",
		"":                     "Report",
		"   ":                  "Report",
		"A/B:C*D?":             "A B C D",
	}
	for in, want := range cases {
		if got := sheetName(in); got != want {
			t.Errorf("sheetName(%q) = %q; want %q", in, got, want)
		}
	}

	long := strings.Repeat("x", 50)
	if got := sheetName(long); len(got) > maxSheetNameLen {
		t.Errorf("sheetName did not cap length: %d", len(got))
	}
}

func TestSheetName_MultibyteTitleTruncatesOnRunes(t *testing.T) {
	// 40 three-byte runes: a byte-based cap at 31 would end mid-rune.
	long := strings.Repeat("栄", 40)
	got := sheetName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxSheetNameLen {
		t.Fatalf("rune count = %d; want %d", n, maxSheetNameLen)
	}
}

func TestReportXLSX_MultibyteTitle(t *testing.T) {
	settings := sampleSettings()
	settings.Title = strings.Repeat("栄養", 20)
	out, err := ReportXLSX(sampleReport(), settings)
	if err != nil {
		t.Fatalf("ReportXLSX with multibyte title: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatalf("output does not start with ZIP magic: %q", out[:4])
	}
}
