package extract

// PersonalIncomeExtractor covers W-2s, 1099s, and pay stubs. These documents
// carry only a handful of facts, almost always box-labeled.
type PersonalIncomeExtractor struct{}

func NewPersonalIncomeExtractor() *PersonalIncomeExtractor {
	return &PersonalIncomeExtractor{}
}

func (x *PersonalIncomeExtractor) Name() string { return "personal_income" }

var personalEntityKeys = map[string]FactKey{
	"wages tips other compensation": FactW2Wages,
	"wages":                         FactW2Wages,
	"gross pay":                     FactGrossPay,
	"nonemployee compensation":      FactGrossPay,
}

var personalLabelPatterns = []labelPattern{
	{FactW2Wages, label(`wages,?\s+tips,?\s+other\s+comp(?:ensation)?\.?`), 0.82},
	{FactGrossPay, label(`(?:total\s+)?gross\s+pay|gross\s+earnings`), 0.78},
	{FactGrossPay, label(`nonemployee\s+compensation`), 0.78},
}

func (x *PersonalIncomeExtractor) Extract(in Input) []LineItem {
	r := newRun(in, x.Name())

	r.structuredPath(personalEntityKeys, personalEntityKeys)
	if len(r.items) > 0 {
		return r.items
	}

	r.labeledPath(personalLabelPatterns)
	return r.items
}
