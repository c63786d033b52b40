package extract

import (
	"strings"

	"github.com/gmsas95/dealintake/internal/docparse"
)

// IncomeStatementExtractor pulls P&L facts. It is the only extractor with a
// generic row-scan last resort, because income statements come in the widest
// variety of home-grown layouts.
type IncomeStatementExtractor struct{}

func NewIncomeStatementExtractor() *IncomeStatementExtractor {
	return &IncomeStatementExtractor{}
}

func (x *IncomeStatementExtractor) Name() string { return "income_statement" }

var incomeEntityKeys = map[string]FactKey{
	"total revenue":      FactTotalRevenue,
	"gross revenue":      FactTotalRevenue,
	"net sales":          FactTotalRevenue,
	"cost of goods sold": FactCostOfGoodsSold,
	"gross profit":       FactGrossProfit,
	"total expenses":     FactTotalExpenses,
	"operating expenses": FactTotalExpenses,
	"net income":         FactNetIncome,
	"net profit":         FactNetIncome,
	"net operating income": FactNetOperatingIncome,
	"depreciation":         FactDepreciation,
	"interest expense":     FactInterestExpense,
	"rent expense":         FactRentExpense,
}

var incomeLabelPatterns = []labelPattern{
	{FactTotalRevenue, label(`total\s+(?:sales\s+)?revenue[s]?|total\s+sales|total\s+income|gross\s+revenue`), 0.80},
	{FactCostOfGoodsSold, label(`cost\s+of\s+goods\s+sold|total\s+cogs`), 0.80},
	{FactGrossProfit, label(`gross\s+profit`), 0.80},
	{FactTotalExpenses, label(`total\s+(?:operating\s+)?expenses`), 0.80},
	{FactNetOperatingIncome, label(`net\s+operating\s+income`), 0.80},
	{FactNetIncome, label(`net\s+(?:income|profit|earnings)(?:\s*\(loss\))?`), 0.80},
	{FactDepreciation, label(`depreciation(?:\s+(?:and|&)\s+amortization)?`), 0.75},
	{FactInterestExpense, label(`interest\s+expense`), 0.75},
	{FactRentExpense, label(`rent\s+expense`), 0.75},
}

// rowScanAliases normalizes common home-grown P&L phrasings to canonical
// keys in the generic row-scan path.
var rowScanAliases = map[string]FactKey{
	"total revenue":            FactTotalRevenue,
	"total revenues":           FactTotalRevenue,
	"total sales":              FactTotalRevenue,
	"total sales revenue":      FactTotalRevenue,
	"total income":             FactTotalRevenue,
	"revenue":                  FactTotalRevenue,
	"sales":                    FactTotalRevenue,
	"cost of goods sold":       FactCostOfGoodsSold,
	"cogs":                     FactCostOfGoodsSold,
	"cost of sales":            FactCostOfGoodsSold,
	"gross profit":             FactGrossProfit,
	"gross margin":             FactGrossProfit,
	"total expenses":           FactTotalExpenses,
	"total operating expenses": FactTotalExpenses,
	"expenses":                 FactTotalExpenses,
	"net income":               FactNetIncome,
	"net income loss":          FactNetIncome,
	"net profit":               FactNetIncome,
	"net profit loss":          FactNetIncome,
	"net earnings":             FactNetIncome,
	"bottom line":              FactNetIncome,
	"net operating income":     FactNetOperatingIncome,
	"noi":                      FactNetOperatingIncome,
	"depreciation":             FactDepreciation,
	"interest expense":         FactInterestExpense,
	"rent":                     FactRentExpense,
	"rent expense":             FactRentExpense,
}

func (x *IncomeStatementExtractor) Extract(in Input) []LineItem {
	r := newRun(in, x.Name())

	r.structuredPath(incomeEntityKeys, incomeEntityKeys)
	if len(r.items) > 0 {
		return r.items
	}

	r.labeledPath(incomeLabelPatterns)
	if len(r.items) > 0 {
		return r.items
	}

	x.rowScan(r)
	return r.items
}

// rowScan is the last resort: every line with a trailing money token is a
// candidate row. The label is the text on that line, or the previous line
// when the current one is mostly numeric. First occurrence per key wins.
func (x *IncomeStatementExtractor) rowScan(r *run) {
	rows := docparse.SplitRows(r.in.Text)
	for i, row := range rows {
		tok, ok := docparse.LastMoneyToken(row)
		if !ok {
			continue
		}
		v, ok := docparse.ParseMoney(tok)
		if !ok {
			continue
		}

		labelText := strings.TrimSpace(strings.TrimSuffix(row, tok))
		if docparse.MostlyNumeric(labelText) || labelText == "" {
			if i == 0 {
				continue
			}
			labelText = rows[i-1]
		}

		key, ok := rowScanAliases[docparse.NormalizeLabel(labelText)]
		if !ok {
			continue
		}
		r.add(key, v, 0.60, PathRowScan, strings.TrimSpace(row))
	}
}
