package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gmsas95/dealintake/internal/classify"
)

func TestKeysFor_BusinessReturnWithYear(t *testing.T) {
	keys := KeysFor(classify.DocIRSBusiness, 2024)
	assert.Contains(t, keys, "IRS_BUSINESS_2024")
	assert.Contains(t, keys, "IRS_BUSINESS_3Y")
}

func TestKeysFor_BusinessReturnWithoutYear(t *testing.T) {
	keys := KeysFor(classify.DocIRSBusiness, 0)
	assert.Equal(t, []string{"IRS_BUSINESS_3Y"}, keys)
}

func TestKeysFor_PFS(t *testing.T) {
	keys := KeysFor(classify.DocPFS, 0)
	assert.ElementsMatch(t, []string{"PFS_CURRENT", "PERSONAL_FINANCIAL_STATEMENT"}, keys)
}

func TestKeysFor_PersonalReturn(t *testing.T) {
	keys := KeysFor(classify.DocIRSPersonal, 2023)
	assert.Equal(t, []string{"IRS_PERSONAL_2023", "IRS_PERSONAL_3Y"}, keys)
}

func TestKeysFor_Other(t *testing.T) {
	assert.Nil(t, KeysFor(classify.DocOther, 2024))
}
