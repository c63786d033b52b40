package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRows(t *testing.T) {
	rows := SplitRows("Unit  Tenant  Rent\n\n101  Smith  1,200.00\n")
	assert.Len(t, rows, 2)
	assert.Equal(t, "Unit  Tenant  Rent", rows[0])
}

func TestSplitColumns(t *testing.T) {
	cells := SplitColumns("101\tJohn Smith   1,200.00  Occupied")
	assert.Equal(t, []string{"101", "John Smith", "1,200.00", "Occupied"}, cells)
}

func TestScoreHeader(t *testing.T) {
	vocab := []string{"unit", "tenant", "rent", "status"}
	assert.Equal(t, 3, ScoreHeader([]string{"Unit #", "Tenant Name", "Monthly Rent"}, vocab))
	assert.Equal(t, 0, ScoreHeader([]string{"Assets", "Liabilities"}, vocab))
}
