package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_FormAnchorWinsOverKeyword(t *testing.T) {
	rc := NewRulesClassifier()

	// Both a form anchor and a keyword anchor are present; the form anchor
	// must win on anchor-class priority, not match position.
	r := rc.Classify("rent roll schedule attached\nForm 1040 U.S. Individual Income Tax Return", "scan.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocIRSPersonal, r.DocType)
	assert.GreaterOrEqual(t, r.Confidence, 0.90)
	assert.Contains(t, r.Reason, "form anchor")
}

func TestRules_FormAnchorExtractsYearAndEntityType(t *testing.T) {
	rc := NewRulesClassifier()

	r := rc.Classify("Form 1065 U.S. Return of Partnership Income\nFor calendar year 2023", "1065.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocIRSBusiness, r.DocType)
	assert.Equal(t, 2023, r.TaxYear)
	assert.Equal(t, "PARTNERSHIP", r.EntityType)
	assert.Contains(t, r.FormNumbers, "1065")
}

func TestRules_KeywordAnchor(t *testing.T) {
	rc := NewRulesClassifier()

	r := rc.Classify("ACME PROPERTIES LLC\nRent Roll as of 06/30/2024", "doc.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocRentRoll, r.DocType)
	assert.GreaterOrEqual(t, r.Confidence, 0.70)

	r = rc.Classify("PERSONAL FINANCIAL STATEMENT\nas of December 31, 2023", "doc.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocPFS, r.DocType)
}

func TestRules_FilenameAnchorOnlyWhenTextSilent(t *testing.T) {
	rc := NewRulesClassifier()

	r := rc.Classify("illegible scan output", "2023-rent-roll-final.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocRentRoll, r.DocType)
	assert.GreaterOrEqual(t, r.Confidence, 0.60)
	assert.Less(t, r.Confidence, 0.70)

	// Text anchors beat filename anchors.
	r = rc.Classify("Balance Sheet as of year end", "2023-rent-roll-final.pdf")
	require.NotNil(t, r)
	assert.Equal(t, DocBalanceSheet, r.DocType)
}

func TestRules_NoMatchReturnsNil(t *testing.T) {
	rc := NewRulesClassifier()
	assert.Nil(t, rc.Classify("completely unrelated text", "photo.jpg"))
}

func TestRules_1099Variants(t *testing.T) {
	rc := NewRulesClassifier()

	r := rc.Classify("Form 1099-MISC Miscellaneous Income", "x.pdf")
	require.NotNil(t, r)
	assert.Equal(t, Doc1099, r.DocType)
}

func TestRules_AllResultsHaveRulesTier(t *testing.T) {
	rc := NewRulesClassifier()
	for _, in := range []struct{ text, name string }{
		{"Form 1120S", "a.pdf"},
		{"trailing 12 statement", "b.pdf"},
		{"", "w2-2023.pdf"},
	} {
		r := rc.Classify(in.text, in.name)
		require.NotNil(t, r, "input %q/%q", in.text, in.name)
		assert.Equal(t, TierRules, r.Tier)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}
