package extract

// BalanceSheetExtractor covers both business balance sheets and personal
// financial statements. The two families share the same layout but feed
// different canonical keys, so the PFS flag selects the vocabulary.
type BalanceSheetExtractor struct {
	pfs bool
}

func NewBalanceSheetExtractor(pfs bool) *BalanceSheetExtractor {
	return &BalanceSheetExtractor{pfs: pfs}
}

func (x *BalanceSheetExtractor) Name() string {
	if x.pfs {
		return "personal_financial_statement"
	}
	return "balance_sheet"
}

var balanceEntityKeys = map[string]FactKey{
	"total assets":      FactTotalAssets,
	"total liabilities": FactTotalLiabilities,
}

// "Total liabilities" must come before equity lines in the pattern order;
// the first occurrence in a conventional balance sheet is the liabilities
// subtotal, not the liabilities-and-equity footer.
var balanceLabelPatterns = []labelPattern{
	{FactTotalAssets, label(`total\s+assets`), 0.80},
	{FactTotalLiabilities, label(`total\s+liabilities`), 0.78},
}

var pfsEntityKeys = map[string]FactKey{
	"total assets":           FactPFSTotalAssets,
	"total liabilities":      FactPFSTotalLiabilities,
	"net worth":              FactPFSNetWorth,
	"annual income":          FactPFSAnnualIncome,
	"contingent liabilities": FactPFSContingentLiability,
}

var pfsLabelPatterns = []labelPattern{
	{FactPFSTotalAssets, label(`total\s+assets`), 0.80},
	{FactPFSTotalLiabilities, label(`total\s+liabilities`), 0.78},
	{FactPFSNetWorth, label(`net\s+worth`), 0.80},
	{FactPFSAnnualIncome, label(`(?:total\s+)?annual\s+income|salary`), 0.72},
	{FactPFSContingentLiability, label(`(?:total\s+)?contingent\s+liabilit(?:ies|y)`), 0.75},
}

func (x *BalanceSheetExtractor) Extract(in Input) []LineItem {
	r := newRun(in, x.Name())

	entityKeys, patterns := balanceEntityKeys, balanceLabelPatterns
	if x.pfs {
		entityKeys, patterns = pfsEntityKeys, pfsLabelPatterns
	}

	r.structuredPath(entityKeys, entityKeys)
	if len(r.items) > 0 {
		return r.items
	}

	r.labeledPath(patterns)
	return r.items
}
