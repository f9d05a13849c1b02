package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// blankTokens are cell values that spreadsheet exports use for "missing".
var blankTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"NaN":  true,
	"None": true,
	"null": true,
	"NULL": true,
}

// IsBlank reports whether a cell should be treated as missing.
func IsBlank(s string) bool {
	return blankTokens[strings.TrimSpace(s)]
}

// Clean trims a text cell and maps missing markers to "".
func Clean(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if IsBlank(s) {
		return ""
	}
	return s
}

// OptionalInt parses an integer cell, accepting float renderings such as
// "2020.0". Returns nil when missing or unparseable.
func OptionalInt(s string) *int {
	v, ok := parseIntLenient(s)
	if !ok {
		return nil
	}
	return &v
}

// IntOr parses an integer cell, returning def if parsing fails or the cell is empty.
func IntOr(s string, def int) int {
	v, ok := parseIntLenient(s)
	if !ok {
		return def
	}
	return v
}

// ExternalID canonicalises a movie id cell: "7", "7.0" and " 7 " all become "7".
// Non-numeric ids are kept verbatim after trimming. Missing ids return "".
func ExternalID(s string) string {
	s = Clean(width.Fold.String(s))
	if s == "" {
		return ""
	}
	if v, ok := parseIntLenient(s); ok {
		return strconv.Itoa(v)
	}
	return s
}

// PostCount parses a trend observation. Only strictly positive counts are
// valid; fractional values are truncated.
func PostCount(s string) (int, bool) {
	s = strings.ReplaceAll(Clean(width.Fold.String(s)), ",", "")
	if s == "" {
		return 0, false
	}
	v, ok := parseFinite(s)
	if !ok || v < 1 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func parseIntLenient(s string) (int, bool) {
	s = strings.ReplaceAll(Clean(width.Fold.String(s)), ",", "")
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := parseFinite(s)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

var dateRe = regexp.MustCompile(`^(\d{4})\s*[/\-.年]\s*(\d{1,2})\s*[/\-.月]\s*(\d{1,2})\s*日?`)

// Date normalises a date cell to YYYY/MM/DD. It accepts /, -, . and 年月日
// separators, unpadded months and days, and a trailing time component.
func Date(s string) (string, bool) {
	m := dateRe.FindStringSubmatch(Clean(width.Fold.String(s)))
	if m == nil {
		return "", false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return "", false
	}
	return fmt.Sprintf("%04d/%02d/%02d", y, mo, d), true
}
