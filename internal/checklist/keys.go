// Package checklist maps classified documents to deal checklist slots and
// reconciles per-deal checklist state.
package checklist

import (
	"fmt"

	"github.com/gmsas95/dealintake/internal/classify"
)

// Legacy aggregate keys predate per-year slots; a tax return can satisfy
// either shape of requirement, so both are emitted.
const (
	keyIRSBusinessLegacy = "IRS_BUSINESS_3Y"
	keyIRSPersonalLegacy = "IRS_PERSONAL_3Y"
)

// fixedKeys maps non-tax-return types to their checklist slots.
var fixedKeys = map[classify.DocType][]string{
	classify.DocPFS:                {"PFS_CURRENT", "PERSONAL_FINANCIAL_STATEMENT"},
	classify.DocIncomeStatement:    {"INTERIM_FINANCIALS", "INCOME_STATEMENT"},
	classify.DocBalanceSheet:       {"INTERIM_FINANCIALS", "BALANCE_SHEET"},
	classify.DocRentRoll:           {"RENT_ROLL"},
	classify.DocBankStatement:      {"BANK_STATEMENTS"},
	classify.DocPayStub:            {"PAY_STUBS"},
	classify.DocDebtSchedule:       {"DEBT_SCHEDULE"},
	classify.DocPurchaseAgreement:  {"PURCHASE_AGREEMENT"},
	classify.DocLeaseAgreement:     {"LEASE_AGREEMENTS"},
	classify.DocDriversLicense:     {"BORROWER_ID"},
	classify.DocArticlesOfOrg:      {"ENTITY_DOCS"},
	classify.DocOperatingAgreement: {"ENTITY_DOCS"},
	classify.DocInsuranceBinder:    {"INSURANCE"},
	classify.DocAppraisal:          {"APPRAISAL"},
	classify.DocCreditReport:       {"CREDIT_REPORT"},
	classify.DocBusinessPlan:       {"BUSINESS_PLAN"},
}

// KeysFor returns the checklist keys a document of the given type and tax
// year can satisfy. Tax-return types get a year-specific key when the year is
// known, plus the legacy aggregate key. Unknown/OTHER types map to nothing.
func KeysFor(docType classify.DocType, taxYear int) []string {
	switch docType {
	case classify.DocIRSBusiness:
		return taxReturnKeys("IRS_BUSINESS", keyIRSBusinessLegacy, taxYear)
	case classify.DocIRSPersonal:
		return taxReturnKeys("IRS_PERSONAL", keyIRSPersonalLegacy, taxYear)
	case classify.DocW2:
		return taxReturnKeys("W2", "W2_ALL_YEARS", taxYear)
	case classify.Doc1099:
		return taxReturnKeys("FORM_1099", "FORM_1099_ALL_YEARS", taxYear)
	case classify.DocK1:
		return taxReturnKeys("K1", "K1_ALL_YEARS", taxYear)
	}
	if keys, ok := fixedKeys[docType]; ok {
		out := make([]string, len(keys))
		copy(out, keys)
		return out
	}
	return nil
}

func taxReturnKeys(prefix, legacy string, taxYear int) []string {
	if taxYear > 0 {
		return []string{fmt.Sprintf("%s_%d", prefix, taxYear), legacy}
	}
	return []string{legacy}
}
