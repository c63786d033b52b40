package docparse

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLabeledAmount_SameLine(t *testing.T) {
	label := regexp.MustCompile(`(?i)total\s+revenue`)
	text := "Some header\nTotal Revenue ............ $1,360,479.00\nNet Income  204,096.14"

	la, ok := FindLabeledAmount(text, label)
	require.True(t, ok)
	assert.InDelta(t, 1360479.00, la.Value, 0.001)
	assert.False(t, la.CrossLine)
}

func TestFindLabeledAmount_CrossLine(t *testing.T) {
	label := regexp.MustCompile(`(?i)net\s+profit`)
	text := "Net Profit\n$204,096.14"

	la, ok := FindLabeledAmount(text, label)
	require.True(t, ok)
	assert.InDelta(t, 204096.14, la.Value, 0.001)
	assert.True(t, la.CrossLine)
}

func TestFindLabeledAmount_ReferenceNumberGuard(t *testing.T) {
	label := regexp.MustCompile(`(?i)form`)

	// Bare "1065" right after "Form" is a form number, not a dollar amount.
	_, ok := FindLabeledAmount("Form 1065", label)
	assert.False(t, ok)

	// The same digits with money shape are a real amount.
	la, ok := FindLabeledAmount("Form fee due: $1,065.00", label)
	require.True(t, ok)
	assert.InDelta(t, 1065.00, la.Value, 0.001)
}

func TestFindLabeledAmount_NoMatch(t *testing.T) {
	label := regexp.MustCompile(`(?i)gross\s+rents`)
	_, ok := FindLabeledAmount("nothing relevant here", label)
	assert.False(t, ok)
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "total operating expenses", NormalizeLabel("  Total Operating Expenses:  "))
	assert.Equal(t, "net income loss", NormalizeLabel("Net Income (Loss)"))
}

func TestMostlyNumeric(t *testing.T) {
	assert.True(t, MostlyNumeric("  $1,234.56  (789.00)"))
	assert.False(t, MostlyNumeric("Total Operating Expenses"))
	assert.False(t, MostlyNumeric(""))
}
