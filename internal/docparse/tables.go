package docparse

import (
	"regexp"
	"strings"
)

var columnSplitRe = regexp.MustCompile(`\t+| {2,}`)

// SplitRows splits raw text into trimmed, non-empty lines.
func SplitRows(text string) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

// SplitColumns splits a table row into cells on tabs or runs of two or more
// spaces, the way fixed-width OCR table output lines up.
func SplitColumns(row string) []string {
	var cells []string
	for _, c := range columnSplitRe.Split(strings.TrimSpace(row), -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// ScoreHeader counts how many of the given vocabulary tokens appear in a
// header row. Used to pick the best candidate table for a given extractor.
func ScoreHeader(cells []string, vocabulary []string) int {
	score := 0
	for _, cell := range cells {
		norm := NormalizeLabel(cell)
		for _, v := range vocabulary {
			if strings.Contains(norm, v) {
				score++
				break
			}
		}
	}
	return score
}
