package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxReturn_BusinessReturnLines(t *testing.T) {
	text := `Form 1120 U.S. Corporation Income Tax Return
Gross receipts or sales      2,450,000
Compensation of officers     180,000
Taxable income               310,500
`
	x := NewTaxReturnExtractor()

	items := x.Extract(Input{DocumentID: "doc-1", Text: text})

	assert.InDelta(t, 2450000, findItem(t, items, FactTotalRevenue).Value, 0.001)
	assert.InDelta(t, 180000, findItem(t, items, FactOfficerCompensation).Value, 0.001)
	assert.InDelta(t, 310500, findItem(t, items, FactTaxableIncome).Value, 0.001)
}

func TestTaxReturn_ReferenceNumberGuard(t *testing.T) {
	// The bare form number after the label must not become a dollar amount.
	text := "Ordinary business income (loss) see Form 1065\nattach statement\nGross rents   $84,000.00\n"
	x := NewTaxReturnExtractor()

	items := x.Extract(Input{DocumentID: "doc-2", Text: text})

	assert.False(t, hasItem(items, FactOrdinaryBusinessIncome))
	assert.InDelta(t, 84000, findItem(t, items, FactGrossRents).Value, 0.001)
}

func TestTaxReturn_Personal1040(t *testing.T) {
	text := `Form 1040
Wages, salaries, tips        96,300.00
Adjusted gross income        104,250.00
`
	x := NewTaxReturnExtractor()

	items := x.Extract(Input{DocumentID: "doc-3", Text: text})

	assert.InDelta(t, 96300, findItem(t, items, FactW2Wages).Value, 0.001)
	assert.InDelta(t, 104250, findItem(t, items, FactAdjustedGrossIncome).Value, 0.001)
}
