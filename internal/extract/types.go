// Package extract turns classified document text and structured-OCR payloads
// into canonical financial line items. Each extractor is specialized to one
// document family and shares a three-path strategy: structured entities
// first, then labeled-regex search over raw text, then (for income
// statements only) a generic row scan. Extractors are pure; persisting the
// resulting items is the caller's job.
package extract

import (
	"time"

	"github.com/gmsas95/dealintake/internal/classify"
	"github.com/gmsas95/dealintake/internal/structured"
)

// FactKey is the closed vocabulary of canonical financial facts.
type FactKey string

const (
	FactTotalRevenue           FactKey = "TOTAL_REVENUE"
	FactCostOfGoodsSold        FactKey = "COST_OF_GOODS_SOLD"
	FactGrossProfit            FactKey = "GROSS_PROFIT"
	FactTotalExpenses          FactKey = "TOTAL_EXPENSES"
	FactNetIncome              FactKey = "NET_INCOME"
	FactNetOperatingIncome     FactKey = "NET_OPERATING_INCOME"
	FactOfficerCompensation    FactKey = "OFFICER_COMPENSATION"
	FactDepreciation           FactKey = "DEPRECIATION"
	FactInterestExpense        FactKey = "INTEREST_EXPENSE"
	FactRentExpense            FactKey = "RENT_EXPENSE"
	FactGrossRents             FactKey = "GROSS_RENTS"
	FactOrdinaryBusinessIncome FactKey = "ORDINARY_BUSINESS_INCOME"
	FactTaxableIncome          FactKey = "TAXABLE_INCOME"
	FactTotalAssets            FactKey = "TOTAL_ASSETS"
	FactTotalLiabilities       FactKey = "TOTAL_LIABILITIES"
	FactPFSTotalAssets         FactKey = "PFS_TOTAL_ASSETS"
	FactPFSTotalLiabilities    FactKey = "PFS_TOTAL_LIABILITIES"
	FactPFSNetWorth            FactKey = "PFS_NET_WORTH"
	FactPFSAnnualIncome        FactKey = "PFS_ANNUAL_INCOME"
	FactPFSContingentLiability FactKey = "PFS_CONTINGENT_LIABILITIES"
	FactW2Wages                FactKey = "W2_WAGES"
	FactAdjustedGrossIncome    FactKey = "ADJUSTED_GROSS_INCOME"
	FactGrossPay               FactKey = "GROSS_PAY"
)

// Extraction paths recorded in provenance.
const (
	PathStructured = "structured"
	PathLabeled    = "labeled-regex"
	PathRowScan    = "row-scan"
)

// Provenance records where a fact came from.
type Provenance struct {
	DocumentID string
	Extractor  string
	Path       string
	Snippet    string
}

// LineItem is one canonical financial fact candidate. Values are signed:
// parenthetical and negative forms normalize to negative numbers.
type LineItem struct {
	Key         FactKey
	Value       float64
	Confidence  float64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Provenance  Provenance
}

// Input is everything an extractor gets to look at.
type Input struct {
	DocumentID  string
	Text        string
	Structured  *structured.Payload
	TaxYear     int
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Extractor is one document-family fact extractor.
type Extractor interface {
	Name() string
	Extract(in Input) []LineItem
}

// ForDocType picks the extractor for a document type, or nil when the family
// has no deterministic extractor.
func ForDocType(d classify.DocType) Extractor {
	switch d {
	case classify.DocIRSPersonal, classify.DocIRSBusiness, classify.DocK1:
		return NewTaxReturnExtractor()
	case classify.DocIncomeStatement:
		return NewIncomeStatementExtractor()
	case classify.DocBalanceSheet:
		return NewBalanceSheetExtractor(false)
	case classify.DocPFS:
		return NewBalanceSheetExtractor(true)
	case classify.DocRentRoll:
		return NewRentRollExtractor()
	case classify.DocW2, classify.Doc1099, classify.DocPayStub:
		return NewPersonalIncomeExtractor()
	default:
		return nil
	}
}
