// Package report implements the tiering engine: the pure transformation
// from (field catalog, raw per-field scores, high threshold) into the
// ordered report model that every consumer — the JSON API, the PDF
// renderer, and the spreadsheet exporter — traverses read-only.
//
// The engine performs no sorting and no grouping; output order equals the
// catalog order at generation time. Category grouping is a presentation
// concern handled by Rows, which detects contiguous runs of equal category
// names. The package does no I/O and no logging.
package report

import (
	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/score"
)

// Tier classifies a score relative to the configured thresholds.
type Tier string

// The three tiers. NormalFloor is the fixed lower bound of the NORMAL tier;
// it is an independent constant, not derived from the high threshold, so a
// threshold at or below 4 makes the HIGH tier swallow would-be NORMAL
// scores.
const (
	TierHigh   Tier = "HIGH"
	TierNormal Tier = "NORMAL"
	TierLow    Tier = "LOW"

	NormalFloor = 4
)

// Entry is one line of a generated report: an immutable snapshot of the
// field at generation time, the parsed score, and the derived tier.
type Entry struct {
	Field domain.Field `json:"field"`
	Score int          `json:"score"`
	Tier  Tier         `json:"tier"`
}

// Report is the ordered report model. Order is identical to the field
// catalog order at generation time.
type Report []Entry

// Classify maps a score to its tier: score >= highThreshold is HIGH,
// otherwise score >= NormalFloor is NORMAL, otherwise LOW.
func Classify(n, highThreshold int) Tier {
	switch {
	case n >= highThreshold:
		return TierHigh
	case n >= NormalFloor:
		return TierNormal
	default:
		return TierLow
	}
}

// Generate produces the report model. Per field, in catalog order, the raw
// score is looked up by field id and parsed; a value that fails the score
// validator is skipped silently — it contributes no entry. Skipping is the
// documented policy for unanswered or malformed fields, not an error.
func Generate(fields []domain.Field, scores map[string]string, highThreshold int) Report {
	out := make(Report, 0, len(fields))
	for _, f := range fields {
		raw := scores[f.ID]
		if !score.IsValid(raw) {
			continue
		}
		n, _ := score.Parse(raw)
		out = append(out, Entry{Field: f, Score: n, Tier: Classify(n, highThreshold)})
	}
	return out
}

// Recommendation returns the recommendation text of the entry's active tier.
func (e Entry) Recommendation() string {
	switch e.Tier {
	case TierHigh:
		return e.Field.High
	case TierNormal:
		return e.Field.Normal
	default:
		return e.Field.Low
	}
}

// TierColor is the single shared tier-to-badge-color mapping used by every
// consumer. HIGH maps to colors.High, NORMAL to colors.Medium, LOW to
// colors.Low.
func TierColor(t Tier, colors domain.TierColors) string {
	switch t {
	case TierHigh:
		return colors.High
	case TierNormal:
		return colors.Medium
	default:
		return colors.Low
	}
}

// Row pairs a report entry with the category header to emit directly above
// it, if any. Header is "" for rows that continue the current run.
type Row struct {
	// Header is the category name to render before this entry, or "".
	Header string `json:"header,omitempty"`
	Entry  Entry  `json:"entry"`
}

// Rows applies the presentation-layer run detection: a header is emitted
// whenever an entry's non-empty category differs from the last emitted
// header. Entries with an empty category never emit a header and never
// reset the run, so a field continuing its category after an uncategorized
// interloper does not repeat the header.
func Rows(r Report) []Row {
	rows := make([]Row, 0, len(r))
	current := ""
	for _, e := range r {
		row := Row{Entry: e}
		if c := e.Field.Category; c != "" && c != current {
			current = c
			row.Header = c
		}
		rows = append(rows, row)
	}
	return rows
}
