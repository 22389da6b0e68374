// Package score implements the score input collector: normalization of raw
// user-typed values and the range validation applied both while typing and
// at submit time. It is independent of the configuration aggregate beyond
// needing the list of field ids.
package score

import (
	"strconv"
	"strings"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// Valid score bounds. Per-field Min/Max overrides are a documented extension
// point; the baseline validator applies the fixed 1–10 policy.
const (
	Min = 1
	Max = 10
)

// RangeErrorMessage is the per-field validation message surfaced at submit
// time.
const RangeErrorMessage = "Score must be between 1 and 10"

// Normalize strips every non-digit rune from a raw input value. Partially
// typed input stays stable ("7a" becomes "7", "abc" becomes "").
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse converts a raw score value to an integer. ok is false when the value
// does not parse as a base-10 integer at all.
func Parse(raw string) (n int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil
}

// IsValid reports whether raw parses as an integer within [Min, Max].
func IsValid(raw string) bool {
	n, ok := Parse(raw)
	return ok && n >= Min && n <= Max
}

// Validate re-validates every field against the submitted raw scores and
// returns the complete per-field error mapping. All failures are reported
// together, not just the first; an empty map means the submission is valid.
func Validate(fields []domain.Field, scores map[string]string) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		if !IsValid(scores[f.ID]) {
			errs[f.ID] = RangeErrorMessage
		}
	}
	return errs
}
