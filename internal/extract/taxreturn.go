package extract

// TaxReturnExtractor pulls facts from federal returns (1040/1065/1120 family)
// and K-1 statements. Return line labels are stable across years, so the
// labeled-regex path does most of the work when no structured payload exists.
type TaxReturnExtractor struct{}

func NewTaxReturnExtractor() *TaxReturnExtractor {
	return &TaxReturnExtractor{}
}

func (x *TaxReturnExtractor) Name() string { return "tax_return" }

var taxEntityKeys = map[string]FactKey{
	"gross receipts":           FactTotalRevenue,
	"gross receipts or sales":  FactTotalRevenue,
	"total income":             FactTotalRevenue,
	"gross rents":              FactGrossRents,
	"ordinary business income": FactOrdinaryBusinessIncome,
	"taxable income":           FactTaxableIncome,
	"compensation of officers": FactOfficerCompensation,
	"officer compensation":     FactOfficerCompensation,
	"depreciation":             FactDepreciation,
	"interest expense":         FactInterestExpense,
	"adjusted gross income":    FactAdjustedGrossIncome,
	"wages salaries tips":      FactW2Wages,
	"total assets":             FactTotalAssets,
}

var taxLabelPatterns = []labelPattern{
	{FactTotalRevenue, label(`gross\s+receipts\s+or\s+sales|gross\s+receipts`), 0.80},
	{FactGrossRents, label(`gross\s+rents`), 0.80},
	{FactOrdinaryBusinessIncome, label(`ordinary\s+business\s+income(?:\s*\(loss\))?`), 0.80},
	{FactTaxableIncome, label(`taxable\s+income`), 0.80},
	{FactOfficerCompensation, label(`compensation\s+of\s+officers`), 0.78},
	{FactAdjustedGrossIncome, label(`adjusted\s+gross\s+income`), 0.80},
	{FactW2Wages, label(`wages,?\s+salaries(?:,?\s+tips)?`), 0.75},
	{FactDepreciation, label(`depreciation(?:\s+(?:and|&)\s+amortization)?`), 0.72},
	{FactInterestExpense, label(`interest\s+expense`), 0.72},
	{FactRentExpense, label(`rents?\s+(?:expense|paid)`), 0.72},
	{FactTotalAssets, label(`total\s+assets`), 0.72},
}

func (x *TaxReturnExtractor) Extract(in Input) []LineItem {
	r := newRun(in, x.Name())

	r.structuredPath(taxEntityKeys, taxEntityKeys)
	if len(r.items) > 0 {
		return r.items
	}

	r.labeledPath(taxLabelPatterns)
	return r.items
}
