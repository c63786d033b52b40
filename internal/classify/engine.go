package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// structuredLabelAliases maps upstream structured-OCR type labels onto the
// closed vocabulary. Labels already in the vocabulary pass through.
var structuredLabelAliases = map[string]DocType{
	"TAX_RETURN_PERSONAL":   DocIRSPersonal,
	"TAX_RETURN_INDIVIDUAL": DocIRSPersonal,
	"TAX_RETURN_BUSINESS":   DocIRSBusiness,
	"CORPORATE_TAX_RETURN":  DocIRSBusiness,
	"PROFIT_AND_LOSS":       DocIncomeStatement,
	"PROFIT_LOSS_STATEMENT": DocIncomeStatement,
	"PFS":                   DocPFS,
	"FINANCIAL_STATEMENT":   DocPFS,
	"1040":                  DocIRSPersonal,
	"1065":                  DocIRSBusiness,
	"1120":                  DocIRSBusiness,
	"W-2":                   DocW2,
	"1099":                  Doc1099,
}

// MapStructuredLabel resolves an upstream type label to a known DocType.
// Returns false when the label maps to nothing in the vocabulary.
func MapStructuredLabel(label string) (DocType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(label))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "" {
		return DocOther, false
	}
	if d := ParseDocType(norm); d != DocOther {
		return d, true
	}
	if d, ok := structuredLabelAliases[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return d, true
	}
	if d, ok := structuredLabelAliases[norm]; ok {
		return d, true
	}
	return DocOther, false
}

// Engine is the four-tier classification state machine. Strategies are
// evaluated in order and the first one that produces a result wins; the
// final fallback tier is total, so Classify never fails.
type Engine struct {
	rules    *RulesClassifier
	fallback *FallbackClassifier
	logger   *zap.Logger
}

// NewEngine creates a classification engine. The fallback classifier may be
// nil, in which case tier C is skipped entirely.
func NewEngine(rules *RulesClassifier, fallback *FallbackClassifier, logger *zap.Logger) *Engine {
	return &Engine{rules: rules, fallback: fallback, logger: logger}
}

type strategy func(ctx context.Context, in Input) *Result

// Classify runs the tiers against one document and always returns a result.
func (e *Engine) Classify(ctx context.Context, in Input) Result {
	strategies := []strategy{
		e.structuredTier,
		e.rulesTier,
		e.llmTier,
	}

	for _, s := range strategies {
		if r := s(ctx, in); r != nil {
			r.Confidence = clamp(r.Confidence)
			return *r
		}
	}

	r := e.fallbackTier(ctx, in)
	r.Confidence = clamp(r.Confidence)
	return *r
}

// structuredTier accepts the upstream structured-OCR type label when it is
// confident and maps to a known type. The rules classifier still runs, but
// only to backfill tax year, form numbers, and period; never to override
// the type.
func (e *Engine) structuredTier(_ context.Context, in Input) *Result {
	sig := in.Structured
	if sig == nil || sig.Confidence < StructuredAcceptThreshold {
		return nil
	}
	docType, ok := MapStructuredLabel(sig.TypeLabel)
	if !ok {
		return nil
	}

	r := &Result{
		DocType:    docType,
		Confidence: sig.Confidence,
		Reason:     "structured OCR signal: " + sig.TypeLabel,
		Tier:       TierStructured,
	}
	if rr := e.rules.Classify(in.Text, in.Filename); rr != nil {
		r.TaxYear = rr.TaxYear
		r.FormNumbers = rr.FormNumbers
		r.EntityType = rr.EntityType
		r.PeriodStart = rr.PeriodStart
		r.PeriodEnd = rr.PeriodEnd
	}
	return r
}

func (e *Engine) rulesTier(_ context.Context, in Input) *Result {
	r := e.rules.Classify(in.Text, in.Filename)
	if r == nil || r.Confidence < RulesAcceptThreshold {
		return nil
	}
	return r
}

func (e *Engine) llmTier(ctx context.Context, in Input) *Result {
	if e.fallback == nil {
		return nil
	}
	r, err := e.fallback.Classify(ctx, in.Text, in.Filename)
	if err != nil {
		e.logger.Warn("LLM classification tier failed, falling through",
			zap.String("filename", in.Filename),
			zap.Error(err))
		return nil
	}
	return r
}

// fallbackTier is the last line of defense: a low-confidence rules guess
// beats a bare OTHER, and OTHER at minimal confidence beats nothing. It
// never returns nil.
func (e *Engine) fallbackTier(_ context.Context, in Input) *Result {
	if r := e.rules.Classify(in.Text, in.Filename); r != nil {
		r.Tier = TierFallback
		r.Reason = "fallback: " + r.Reason
		return r
	}
	return &Result{
		DocType:    DocOther,
		Confidence: FallbackOtherConfidence,
		Reason:     "fallback: no anchors and no classifier result",
		Tier:       TierFallback,
	}
}
