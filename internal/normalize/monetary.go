// Package normalize converts raw spreadsheet cells into typed values.
// Every function here is total: bad input degrades to a documented default
// instead of an error so one dirty cell never blocks a batch.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

const (
	unitOku = "億" // hundred-million marker; values carrying it are already in target units
	unitYen = "円"

	// manToOku converts 万円 (ten-thousand yen) amounts into 億円.
	manToOku = 10000
)

// ParseMonetary converts a box-office revenue cell into hundred-million yen.
//
//   - "" and "-" yield 0
//   - grouping commas are dropped ("1,234" → 1234)
//   - values carrying 億 are returned unscaled ("46.2億" → 46.2)
//   - bare numerals are 万円 and divided by 10,000 ("462000" → 46.2)
//   - anything unparseable yields 0
func ParseMonetary(raw string) float64 {
	s := strings.TrimSpace(width.Fold.String(raw))
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	if strings.Contains(s, unitOku) {
		s = strings.ReplaceAll(s, unitOku, "")
		s = strings.TrimSuffix(strings.TrimSpace(s), unitYen)
		v, ok := parseFinite(s)
		if !ok {
			return 0
		}
		return v
	}

	v, ok := parseFinite(s)
	if !ok {
		return 0
	}
	return v / manToOku
}

// ParseAmount parses a revenue column that is already expressed in the
// target unit (the movie master's 興収(億円) column). A trailing 億 or 億円
// is tolerated. Returns false for blank or unparseable input.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(width.Fold.String(raw))
	if IsBlank(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, unitYen)
	s = strings.TrimSuffix(strings.TrimSpace(s), unitOku)
	return parseFinite(strings.TrimSpace(s))
}

// parseFinite parses a float and rejects NaN and ±Inf, which strconv
// happily accepts as words.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
