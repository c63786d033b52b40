package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmsas95/dealintake/internal/structured"
)

func findItem(t *testing.T, items []LineItem, key FactKey) LineItem {
	t.Helper()
	for _, it := range items {
		if it.Key == key {
			return it
		}
	}
	t.Fatalf("no line item for %s", key)
	return LineItem{}
}

func hasItem(items []LineItem, key FactKey) bool {
	for _, it := range items {
		if it.Key == key {
			return true
		}
	}
	return false
}

func TestIncomeStatement_CrossLineRecovery(t *testing.T) {
	// Labels and amounts land on separate lines, so the same-line pass
	// fails and the one-newline lookahead must recover both facts.
	text := "Total Sales Revenue\n$1,360,479.00\nNet Profit\n$204,096.14\n"
	x := NewIncomeStatementExtractor()

	items := x.Extract(Input{DocumentID: "doc-1", Text: text})

	rev := findItem(t, items, FactTotalRevenue)
	assert.InDelta(t, 1360479.00, rev.Value, 0.001)
	assert.Equal(t, PathLabeled, rev.Provenance.Path)
	assert.InDelta(t, 0.75, rev.Confidence, 0.001, "cross-line matches cost 0.05")

	ni := findItem(t, items, FactNetIncome)
	assert.InDelta(t, 204096.14, ni.Value, 0.001)
}

func TestIncomeStatement_SameLine(t *testing.T) {
	text := "Total Revenue        450,000.00\nTotal Expenses       310,250.50\nNet Income           139,749.50\n"
	x := NewIncomeStatementExtractor()

	items := x.Extract(Input{DocumentID: "doc-2", Text: text})

	assert.InDelta(t, 450000.00, findItem(t, items, FactTotalRevenue).Value, 0.001)
	assert.InDelta(t, 310250.50, findItem(t, items, FactTotalExpenses).Value, 0.001)
	assert.InDelta(t, 139749.50, findItem(t, items, FactNetIncome).Value, 0.001)
}

func TestIncomeStatement_ParentheticalLoss(t *testing.T) {
	text := "Net Income (Loss)    (25,300.00)\n"
	x := NewIncomeStatementExtractor()

	items := x.Extract(Input{DocumentID: "doc-3", Text: text})

	ni := findItem(t, items, FactNetIncome)
	assert.InDelta(t, -25300.00, ni.Value, 0.001)
}

func TestIncomeStatement_FirstMatchWins(t *testing.T) {
	text := "Net Income   100.00\nNet Income   999.00\n"
	x := NewIncomeStatementExtractor()

	items := x.Extract(Input{DocumentID: "doc-4", Text: text})

	require.Len(t, items, 1)
	assert.InDelta(t, 100.00, items[0].Value, 0.001)
}

func TestIncomeStatement_StructuredPathWins(t *testing.T) {
	amt := 777000.0
	in := Input{
		DocumentID: "doc-5",
		Text:       "Total Revenue   1.00\n",
		Structured: &structured.Payload{
			Entities: []structured.Entity{
				{Type: "total_revenue", MentionText: "$777,000", Money: &amt, Confidence: 0.93},
			},
		},
	}
	x := NewIncomeStatementExtractor()

	items := x.Extract(in)

	require.Len(t, items, 1)
	assert.Equal(t, FactTotalRevenue, items[0].Key)
	assert.InDelta(t, 777000.0, items[0].Value, 0.001)
	assert.Equal(t, PathStructured, items[0].Provenance.Path)
}

func TestIncomeStatement_RowScanPreviousLineLabel(t *testing.T) {
	// No canonical label pattern matches "Bottom Line", so the labeled path
	// yields nothing and the row scan takes over. The money row itself is
	// mostly numeric, so the label comes from the previous line.
	text := "Bottom Line\n204,096.14\n"
	x := NewIncomeStatementExtractor()

	items := x.Extract(Input{DocumentID: "doc-6", Text: text})

	ni := findItem(t, items, FactNetIncome)
	assert.InDelta(t, 204096.14, ni.Value, 0.001)
	assert.Equal(t, PathRowScan, ni.Provenance.Path)
}

func TestIncomeStatement_NoFacts(t *testing.T) {
	x := NewIncomeStatementExtractor()
	items := x.Extract(Input{DocumentID: "doc-7", Text: "narrative paragraph with no numbers"})
	assert.Empty(t, items)
}
