package docparse

import (
	"regexp"
	"strings"
)

var (
	formHeaderRe = regexp.MustCompile(`(?i)\bform\s+(1040(?:-SR)?|1041|1065|1120-?S|1120|8825|4562|941|940|1098|1099(?:-[A-Z]{1,4})?|W-2)\b`)
	scheduleRe   = regexp.MustCompile(`(?i)\bschedule\s+(C|E|F|K-1)\b`)
)

// DetectFormNumbers finds IRS form and schedule identifiers in document text,
// normalized to uppercase, deduplicated, in order of first appearance.
func DetectFormNumbers(text string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(raw string) {
		f := strings.ToUpper(raw)
		// OCR keeps or drops the dash in 1120-S unpredictably.
		if f == "1120-S" {
			f = "1120S"
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}

	for _, m := range formHeaderRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range scheduleRe.FindAllStringSubmatch(text, -1) {
		add("SCHEDULE " + m[1])
	}
	return out
}

// HasForm reports whether the detected form list contains the given form.
func HasForm(forms []string, form string) bool {
	form = strings.ToUpper(form)
	for _, f := range forms {
		if f == form {
			return true
		}
	}
	return false
}
