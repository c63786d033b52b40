package docparse

import (
	"regexp"
	"strings"
)

// lookaheadWindow bounds how far past a label we search for an amount.
const lookaheadWindow = 80

// referenceNumbers are well-known IRS form and schedule numbers that show up
// as bare integers in tax documents and must never be read as dollar amounts.
var referenceNumbers = map[string]bool{
	"940":  true,
	"941":  true,
	"1040": true,
	"1041": true,
	"1065": true,
	"1098": true,
	"1099": true,
	"1120": true,
	"1125": true,
	"4562": true,
	"8825": true,
}

// LabeledAmount is the result of a label-proximity search.
type LabeledAmount struct {
	Value     float64
	Snippet   string
	CrossLine bool
}

// FindLabeledAmount searches text for a label pattern followed by a money
// token within a bounded lookahead window. The same-line window is tried for
// every label occurrence first; only if that yields nothing is the window
// allowed to cross one newline.
func FindLabeledAmount(text string, label *regexp.Regexp) (LabeledAmount, bool) {
	if la, ok := scanLabel(text, label, false); ok {
		return la, true
	}
	return scanLabel(text, label, true)
}

func scanLabel(text string, label *regexp.Regexp, crossLine bool) (LabeledAmount, bool) {
	for _, loc := range label.FindAllStringIndex(text, -1) {
		end := loc[1] + lookaheadWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[loc[1]:end]

		if i := strings.IndexByte(window, '\n'); i >= 0 {
			if !crossLine {
				window = window[:i]
			} else if j := strings.IndexByte(window[i+1:], '\n'); j >= 0 {
				window = window[:i+1+j]
			}
		}

		for _, tl := range moneyTokenRe.FindAllStringIndex(window, -1) {
			tok := window[tl[0]:tl[1]]
			v, ok := ParseMoney(tok)
			if !ok {
				continue
			}
			if isReferenceNumber(tok, window, window[:tl[0]]) {
				continue
			}
			snippet := strings.TrimSpace(text[loc[0]:loc[1]] + " " + tok)
			return LabeledAmount{Value: v, Snippet: snippet, CrossLine: crossLine}, true
		}
	}
	return LabeledAmount{}, false
}

// isReferenceNumber rejects bare integers that collide with known form and
// schedule numbers, unless the token's own shape or the surrounding window
// says it is genuinely a dollar amount.
func isReferenceNumber(tok, window, before string) bool {
	if IsMoneyShaped(tok) {
		return false
	}
	bare := strings.TrimSpace(tok)
	if !referenceNumbers[bare] {
		return false
	}
	// "Form 1065" / "Schedule 8825" is always a citation.
	b := strings.ToLower(strings.TrimSpace(before))
	if strings.HasSuffix(b, "form") || strings.HasSuffix(b, "schedule") {
		return true
	}
	// A currency symbol anywhere in the window is enough context to trust it.
	return !strings.Contains(window, "$")
}

// NormalizeLabel lowercases a label and collapses punctuation and whitespace,
// so alias dictionaries can match OCR output with uneven spacing.
func NormalizeLabel(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// MostlyNumeric reports whether a line is dominated by digits and money
// punctuation, meaning it carries values rather than a label.
func MostlyNumeric(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	numeric := 0
	letters := 0
	for _, r := range line {
		switch {
		case r >= '0' && r <= '9', r == '$', r == ',', r == '.', r == '(', r == ')', r == '-':
			numeric++
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			letters++
		}
	}
	return numeric > letters
}
