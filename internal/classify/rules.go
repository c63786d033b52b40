package classify

import (
	"fmt"
	"strings"

	"github.com/gmsas95/dealintake/internal/docparse"
)

// formAnchorTypes maps detected IRS form numbers to document types. A form
// anchor always beats keyword and filename anchors regardless of where it
// appears in the text.
var formAnchorTypes = map[string]DocType{
	"1040":         DocIRSPersonal,
	"1040-SR":      DocIRSPersonal,
	"1041":         DocIRSBusiness,
	"1065":         DocIRSBusiness,
	"1120":         DocIRSBusiness,
	"1120S":        DocIRSBusiness,
	"8825":         DocIRSBusiness,
	"W-2":          DocW2,
	"1099":         Doc1099,
	"SCHEDULE K-1": DocK1,
}

// formEntityTypes maps form numbers to the filing entity type.
var formEntityTypes = map[string]string{
	"1040":    "INDIVIDUAL",
	"1040-SR": "INDIVIDUAL",
	"1041":    "TRUST",
	"1065":    "PARTNERSHIP",
	"1120":    "CORPORATION",
	"1120S":   "S_CORPORATION",
}

// keywordAnchors are domain phrases tried in order when no form anchor
// matched. Order is the deterministic tie-break.
var keywordAnchors = []struct {
	phrase  string
	docType DocType
}{
	{"personal financial statement", DocPFS},
	{"statement of financial condition", DocPFS},
	{"rent roll", DocRentRoll},
	{"profit and loss", DocIncomeStatement},
	{"profit & loss", DocIncomeStatement},
	{"income statement", DocIncomeStatement},
	{"trailing 12", DocIncomeStatement},
	{"trailing twelve", DocIncomeStatement},
	{"balance sheet", DocBalanceSheet},
	{"bank statement", DocBankStatement},
	{"account statement", DocBankStatement},
	{"earnings statement", DocPayStub},
	{"pay stub", DocPayStub},
	{"debt schedule", DocDebtSchedule},
	{"purchase agreement", DocPurchaseAgreement},
	{"purchase and sale agreement", DocPurchaseAgreement},
	{"lease agreement", DocLeaseAgreement},
	{"operating agreement", DocOperatingAgreement},
	{"articles of organization", DocArticlesOfOrg},
	{"certificate of insurance", DocInsuranceBinder},
	{"insurance binder", DocInsuranceBinder},
	{"appraisal report", DocAppraisal},
	{"credit report", DocCreditReport},
	{"business plan", DocBusinessPlan},
	{"driver's license", DocDriversLicense},
	{"driver license", DocDriversLicense},
}

// filenameAnchors are filename tokens used only when the text tiers found
// nothing.
var filenameAnchors = []struct {
	token   string
	docType DocType
}{
	{"1040", DocIRSPersonal},
	{"1065", DocIRSBusiness},
	{"1120", DocIRSBusiness},
	{"rent-roll", DocRentRoll},
	{"rent_roll", DocRentRoll},
	{"rentroll", DocRentRoll},
	{"pfs", DocPFS},
	{"p&l", DocIncomeStatement},
	{"pnl", DocIncomeStatement},
	{"profit-loss", DocIncomeStatement},
	{"income-statement", DocIncomeStatement},
	{"balance-sheet", DocBalanceSheet},
	{"balance_sheet", DocBalanceSheet},
	{"w2", DocW2},
	{"w-2", DocW2},
	{"k-1", DocK1},
	{"k1", DocK1},
	{"paystub", DocPayStub},
	{"pay-stub", DocPayStub},
	{"bank-statement", DocBankStatement},
	{"debt-schedule", DocDebtSchedule},
}

// TypeForFormNumber resolves a detected form number to its document type.
// Used by the orchestrator's guardrail pass to catch classifier results that
// contradict a hard form anchor.
func TypeForFormNumber(form string) (DocType, bool) {
	if d, ok := formAnchorTypes[form]; ok {
		return d, true
	}
	if strings.HasPrefix(form, "1099") {
		return Doc1099, true
	}
	return "", false
}

// RulesClassifier is the deterministic anchor-based detector. It makes no
// network calls.
type RulesClassifier struct{}

// NewRulesClassifier creates a rules classifier.
func NewRulesClassifier() *RulesClassifier {
	return &RulesClassifier{}
}

// Classify runs the three anchor tiers in strict priority order:
// form anchors, then keyword anchors, then filename anchors. It returns nil
// when nothing matched; the caller decides the fallback.
func (rc *RulesClassifier) Classify(text, filename string) *Result {
	forms := docparse.DetectFormNumbers(text)

	if r := rc.matchFormAnchor(text, forms); r != nil {
		return r
	}
	if r := rc.matchKeywordAnchor(text, forms); r != nil {
		return r
	}
	return rc.matchFilenameAnchor(filename)
}

func (rc *RulesClassifier) matchFormAnchor(text string, forms []string) *Result {
	for _, form := range forms {
		docType, ok := formAnchorTypes[form]
		if !ok {
			// 1099 variants like 1099-MISC map to the base form.
			if strings.HasPrefix(form, "1099") {
				docType, ok = Doc1099, true
			}
		}
		if !ok {
			continue
		}

		r := &Result{
			DocType:     docType,
			Confidence:  FormAnchorConfidence,
			Reason:      fmt.Sprintf("form anchor: Form %s", form),
			Tier:        TierRules,
			FormNumbers: forms,
			EntityType:  formEntityTypes[form],
		}
		if year, ok := docparse.ExtractTaxYear(text); ok {
			r.TaxYear = year
			r.PeriodStart, r.PeriodEnd = docparse.YearPeriod(year)
		}
		return r
	}
	return nil
}

func (rc *RulesClassifier) matchKeywordAnchor(text string, forms []string) *Result {
	lower := strings.ToLower(text)
	for _, ka := range keywordAnchors {
		if !strings.Contains(lower, ka.phrase) {
			continue
		}
		r := &Result{
			DocType:     ka.docType,
			Confidence:  KeywordAnchorConfidence,
			Reason:      fmt.Sprintf("keyword anchor: %q", ka.phrase),
			Tier:        TierRules,
			FormNumbers: forms,
		}
		if year, ok := docparse.ExtractTaxYear(text); ok {
			r.TaxYear = year
			r.PeriodStart, r.PeriodEnd = docparse.YearPeriod(year)
		}
		return r
	}
	return nil
}

func (rc *RulesClassifier) matchFilenameAnchor(filename string) *Result {
	lower := strings.ToLower(filename)
	if lower == "" {
		return nil
	}
	for _, fa := range filenameAnchors {
		if !strings.Contains(lower, fa.token) {
			continue
		}
		return &Result{
			DocType:    fa.docType,
			Confidence: FilenameAnchorConfidence,
			Reason:     fmt.Sprintf("filename anchor: %q", fa.token),
			Tier:       TierRules,
		}
	}
	return nil
}
