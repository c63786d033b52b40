// Package classify decides what kind of document a file is. A deterministic
// rules classifier handles anchored matches; a four-tier engine combines the
// structured-OCR signal, the rules classifier, an LLM fallback, and a final
// best-effort fallback into one canonical result.
package classify

import (
	"encoding/json"
	"time"
)

// DocType is the closed vocabulary of known document types.
type DocType string

const (
	DocIRSPersonal        DocType = "IRS_PERSONAL"
	DocIRSBusiness        DocType = "IRS_BUSINESS"
	DocW2                 DocType = "W2"
	Doc1099               DocType = "FORM_1099"
	DocK1                 DocType = "K1_STATEMENT"
	DocIncomeStatement    DocType = "INCOME_STATEMENT"
	DocBalanceSheet       DocType = "BALANCE_SHEET"
	DocPFS                DocType = "PERSONAL_FINANCIAL_STATEMENT"
	DocRentRoll           DocType = "RENT_ROLL"
	DocBankStatement      DocType = "BANK_STATEMENT"
	DocPayStub            DocType = "PAY_STUB"
	DocDebtSchedule       DocType = "DEBT_SCHEDULE"
	DocPurchaseAgreement  DocType = "PURCHASE_AGREEMENT"
	DocLeaseAgreement     DocType = "LEASE_AGREEMENT"
	DocDriversLicense     DocType = "DRIVERS_LICENSE"
	DocArticlesOfOrg      DocType = "ARTICLES_OF_ORGANIZATION"
	DocOperatingAgreement DocType = "OPERATING_AGREEMENT"
	DocInsuranceBinder    DocType = "INSURANCE_BINDER"
	DocAppraisal          DocType = "APPRAISAL"
	DocCreditReport       DocType = "CREDIT_REPORT"
	DocBusinessPlan       DocType = "BUSINESS_PLAN"
	DocOther              DocType = "OTHER"
)

// AllDocTypes lists every known type, OTHER last.
var AllDocTypes = []DocType{
	DocIRSPersonal, DocIRSBusiness, DocW2, Doc1099, DocK1,
	DocIncomeStatement, DocBalanceSheet, DocPFS, DocRentRoll,
	DocBankStatement, DocPayStub, DocDebtSchedule, DocPurchaseAgreement,
	DocLeaseAgreement, DocDriversLicense, DocArticlesOfOrg,
	DocOperatingAgreement, DocInsuranceBinder, DocAppraisal,
	DocCreditReport, DocBusinessPlan, DocOther,
}

// ParseDocType coerces an arbitrary string to a known type; anything outside
// the vocabulary becomes OTHER.
func ParseDocType(s string) DocType {
	d := DocType(s)
	for _, known := range AllDocTypes {
		if d == known {
			return d
		}
	}
	return DocOther
}

// Tier identifies which classification stage produced a result.
type Tier string

const (
	TierStructured Tier = "structured"
	TierRules      Tier = "rules"
	TierLLM        Tier = "llm"
	TierFallback   Tier = "fallback"
)

// Thresholds for tier acceptance and anchor confidence floors.
const (
	StructuredAcceptThreshold = 0.75
	RulesAcceptThreshold      = 0.65

	FormAnchorConfidence     = 0.92
	KeywordAnchorConfidence  = 0.72
	FilenameAnchorConfidence = 0.62

	FallbackOtherConfidence = 0.10
)

// Result is the canonical classification of one document.
type Result struct {
	DocType     DocType
	Confidence  float64
	Reason      string
	Tier        Tier
	TaxYear     int
	EntityName  string
	EntityType  string
	FormNumbers []string
	Issuer      string
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Raw holds the unprocessed tier output for audit.
	Raw json.RawMessage
}

// Input is everything the engine gets to look at for one document.
type Input struct {
	Text       string
	Filename   string
	Structured *StructuredSignal
}

// StructuredSignal is the upstream structured-OCR service's own type guess.
type StructuredSignal struct {
	TypeLabel  string
	Confidence float64
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
