// Package docparse contains the pure text-parsing primitives used by the
// document classifiers and fact extractors: money parsing, label-proximity
// amount search, tax-year and date extraction, table splitting, and IRS form
// detection. Nothing in this package performs I/O.
package docparse

import (
	"regexp"
	"strconv"
	"strings"
)

// moneyTokenRe matches a money-shaped token: optional currency symbol,
// optional enclosing parentheses (accounting negative), digits with optional
// thousands separators and cents.
var moneyTokenRe = regexp.MustCompile(`\(?\-?\$?\s?\d[\d,]*(?:\.\d{1,2})?\)?`)

// ParseMoney parses a single money token into a signed float.
// Parenthesized and minus-prefixed forms normalize to negative values.
// Returns false for anything that is not a clean money token.
func ParseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// IsMoneyShaped reports whether a token carries explicit dollar-amount cues:
// a currency symbol, a thousands separator, or decimal cents. Bare integers
// are not money-shaped.
func IsMoneyShaped(tok string) bool {
	tok = strings.TrimSpace(tok)
	if strings.ContainsAny(tok, "$") {
		return true
	}
	if strings.Contains(tok, ",") {
		return true
	}
	if i := strings.IndexByte(tok, '.'); i >= 0 {
		frac := strings.TrimSuffix(tok[i+1:], ")")
		if len(frac) == 2 {
			return true
		}
	}
	return false
}

// FindMoneyTokens returns every money-shaped or numeric token in the text,
// in order of appearance.
func FindMoneyTokens(text string) []string {
	toks := moneyTokenRe.FindAllString(text, -1)
	for i, tok := range toks {
		toks[i] = strings.TrimSpace(tok)
	}
	return toks
}

// LastMoneyToken returns the trailing money token on a line, if any.
func LastMoneyToken(line string) (string, bool) {
	toks := moneyTokenRe.FindAllString(line, -1)
	if len(toks) == 0 {
		return "", false
	}
	return strings.TrimSpace(toks[len(toks)-1]), true
}
