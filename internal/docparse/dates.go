package docparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	taxYearLabelRe = regexp.MustCompile(`(?i)(?:tax\s+year|for\s+(?:the\s+)?(?:calendar|fiscal|tax)\s+year(?:\s+beginning)?|year\s+ended?(?:\s+december\s+31)?)\D{0,12}((?:19|20)\d{2})`)
	bareYearRe     = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

	dateSlashRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	dateISORe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dateLongRe  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s+((?:19|20)\d{2})\b`)
)

// ExtractTaxYear finds the tax year a document reports on. Labeled years
// ("Tax Year 2023", "For calendar year 2023") win; otherwise the first
// plausible bare year in the leading lines is used.
func ExtractTaxYear(text string) (int, bool) {
	if m := taxYearLabelRe.FindStringSubmatch(text); m != nil {
		if y, ok := plausibleYear(m[1]); ok {
			return y, true
		}
	}

	// Form headers carry the year near the top of the page.
	head := text
	if len(head) > 600 {
		head = head[:600]
	}
	for _, m := range bareYearRe.FindAllStringSubmatch(head, -1) {
		if y, ok := plausibleYear(m[1]); ok {
			return y, true
		}
	}
	return 0, false
}

func plausibleYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	max := time.Now().Year() + 1
	if y < 1990 || y > max {
		return 0, false
	}
	return y, true
}

// ExtractDate parses the first recognizable date in the text.
func ExtractDate(text string) (time.Time, bool) {
	if m := dateISORe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("2006-01-02", m[0]); err == nil {
			return d, true
		}
	}
	if m := dateSlashRe.FindStringSubmatch(text); m != nil {
		cand := strings.ReplaceAll(m[0], "-", "/")
		for _, layout := range []string{"1/2/2006", "1/2/06"} {
			if d, err := time.Parse(layout, cand); err == nil {
				return d, true
			}
		}
	}
	if m := dateLongRe.FindStringSubmatch(text); m != nil {
		month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		if d, err := time.Parse("January 2, 2006", month+" "+m[2]+", "+m[3]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// YearPeriod returns the calendar-year reporting period for a tax year.
func YearPeriod(year int) (start, end time.Time) {
	start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	return
}
