package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gmsas95/dealintake/internal/classify"
)

func TestBalanceSheet_Business(t *testing.T) {
	text := `Balance Sheet as of December 31, 2024
Total Assets                 1,842,000.00
Total Liabilities              903,500.00
Total Liabilities and Equity 1,842,000.00
`
	x := NewBalanceSheetExtractor(false)

	items := x.Extract(Input{DocumentID: "doc-1", Text: text})

	assert.InDelta(t, 1842000, findItem(t, items, FactTotalAssets).Value, 0.001)
	assert.InDelta(t, 903500, findItem(t, items, FactTotalLiabilities).Value, 0.001,
		"first occurrence is the liabilities subtotal, not the equity footer")
	assert.False(t, hasItem(items, FactPFSTotalAssets))
}

func TestBalanceSheet_PFSMode(t *testing.T) {
	text := `PERSONAL FINANCIAL STATEMENT
Total Assets            2,100,000
Total Liabilities         650,000
Net Worth               1,450,000
Contingent Liabilities     75,000
`
	x := NewBalanceSheetExtractor(true)

	items := x.Extract(Input{DocumentID: "doc-2", Text: text})

	assert.InDelta(t, 2100000, findItem(t, items, FactPFSTotalAssets).Value, 0.001)
	assert.InDelta(t, 650000, findItem(t, items, FactPFSTotalLiabilities).Value, 0.001)
	assert.InDelta(t, 1450000, findItem(t, items, FactPFSNetWorth).Value, 0.001)
	assert.InDelta(t, 75000, findItem(t, items, FactPFSContingentLiability).Value, 0.001)
	assert.False(t, hasItem(items, FactTotalAssets), "PFS mode uses the PFS key space")
}

func TestPersonalIncome_W2(t *testing.T) {
	text := "W-2 Wage and Tax Statement\nWages, tips, other comp.    84,210.55\n"
	x := NewPersonalIncomeExtractor()

	items := x.Extract(Input{DocumentID: "doc-3", Text: text})

	assert.InDelta(t, 84210.55, findItem(t, items, FactW2Wages).Value, 0.001)
}

func TestForDocType_Dispatch(t *testing.T) {
	tests := []struct {
		docType  string
		wantName string
	}{
		{"IRS_PERSONAL", "tax_return"},
		{"IRS_BUSINESS", "tax_return"},
		{"K1_STATEMENT", "tax_return"},
		{"INCOME_STATEMENT", "income_statement"},
		{"BALANCE_SHEET", "balance_sheet"},
		{"PERSONAL_FINANCIAL_STATEMENT", "personal_financial_statement"},
		{"RENT_ROLL", "rent_roll"},
		{"W2", "personal_income"},
		{"PAY_STUB", "personal_income"},
	}
	for _, tt := range tests {
		x := ForDocType(classify.DocType(tt.docType))
		if assert.NotNil(t, x, tt.docType) {
			assert.Equal(t, tt.wantName, x.Name())
		}
	}

	assert.Nil(t, ForDocType(classify.DocAppraisal))
	assert.Nil(t, ForDocType(classify.DocOther))
}
