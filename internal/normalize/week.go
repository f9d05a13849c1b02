package normalize

import (
	"regexp"
	"strconv"

	"golang.org/x/text/width"
)

// WeekSentinel is returned for labels that carry no week number so they
// sort after every real week.
const WeekSentinel = 999

// weekPatterns are tried in order; the first capture group is the ordinal.
var weekPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*週`),
	regexp.MustCompile(`(\d+)\s*週目`),
	regexp.MustCompile(`(?i)week\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*週`),
	regexp.MustCompile(`(\d+)`),
}

// WeekOrdinal extracts the week number from a free-text week label such as
// "第3週", "3週目", "Week 12" or "12". Unparseable labels map to WeekSentinel.
func WeekOrdinal(label string) int {
	s := width.Fold.String(label)
	for _, re := range weekPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n
	}
	return WeekSentinel
}
