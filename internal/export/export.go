// Package export renders the report model into downloadable documents. Both
// renderers traverse the report read-only and share the tier-to-color
// mapping with the on-screen consumer, so a score is badged identically in
// every output format.
package export

import (
	"regexp"
	"strconv"
)

// hexRE matches 6-digit hex colors with an optional leading '#'.
var hexRE = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)

// hexToRGB converts a hex color to its RGB components, falling back to
// black for anything unparseable.
func hexToRGB(hex string) (r, g, b int) {
	m := hexRE.FindStringSubmatch(hex)
	if m == nil {
		return 0, 0, 0
	}
	parse := func(s string) int {
		n, _ := strconv.ParseInt(s, 16, 32)
		return int(n)
	}
	return parse(m[1]), parse(m[2]), parse(m[3])
}
