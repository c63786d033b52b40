package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gmsas95/dealintake/internal/errors"
	"github.com/gmsas95/dealintake/internal/metrics"
)

// maxPromptText bounds how much document text is sent to the model.
const maxPromptText = 6000

// Completer is the chat-completion dependency of the fallback classifier.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// FallbackClassifier asks an external model to classify documents the
// structured signal and the rules classifier could not.
type FallbackClassifier struct {
	llm    Completer
	logger *zap.Logger
}

// NewFallbackClassifier creates an LLM fallback classifier.
func NewFallbackClassifier(llm Completer, logger *zap.Logger) *FallbackClassifier {
	return &FallbackClassifier{llm: llm, logger: logger}
}

// llmResponse is the fixed response schema. Every field is coerced to a safe
// default; nothing from the model is trusted verbatim.
type llmResponse struct {
	DocType     string   `json:"doc_type"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	TaxYear     int      `json:"tax_year"`
	EntityName  string   `json:"entity_name"`
	EntityType  string   `json:"entity_type"`
	FormNumbers []string `json:"form_numbers"`
	Issuer      string   `json:"issuer"`
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
}

const fallbackSystemPrompt = `You classify financial and legal documents for a commercial lending workflow.
Respond with a single JSON object and nothing else, with these fields:
doc_type, confidence (0.0-1.0), reason, tax_year, entity_name, entity_type,
form_numbers (array of strings), issuer, period_start (YYYY-MM-DD), period_end (YYYY-MM-DD).
doc_type MUST be one of: %s.
Use "OTHER" when unsure.`

// Classify sends truncated text and filename to the model and parses the
// response into a Result. Network and parse errors are returned to the
// caller, which falls through to the final tier.
func (fc *FallbackClassifier) Classify(ctx context.Context, text, filename string) (*Result, error) {
	if fc.llm == nil {
		return nil, apperrors.ErrLLMUnavailable
	}

	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	var names []string
	for _, d := range AllDocTypes {
		names = append(names, string(d))
	}
	system := fmt.Sprintf(fallbackSystemPrompt, strings.Join(names, ", "))
	user := fmt.Sprintf("Filename: %s\n\nDocument text:\n%s", filename, text)

	raw, err := fc.llm.Complete(ctx, system, user)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, "LLM_001", "classification request failed")
	}

	parsed, err := parseLLMResponse(raw)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LLMRequests.WithLabelValues("ok").Inc()

	r := &Result{
		DocType:     ParseDocType(parsed.DocType),
		Confidence:  clamp(parsed.Confidence),
		Reason:      parsed.Reason,
		Tier:        TierLLM,
		EntityName:  parsed.EntityName,
		EntityType:  parsed.EntityType,
		FormNumbers: parsed.FormNumbers,
		Issuer:      parsed.Issuer,
		Raw:         json.RawMessage(extractJSONObject(raw)),
	}
	if parsed.TaxYear >= 1990 && parsed.TaxYear <= time.Now().Year()+1 {
		r.TaxYear = parsed.TaxYear
	}
	if d, err := time.Parse("2006-01-02", parsed.PeriodStart); err == nil {
		r.PeriodStart = d
	}
	if d, err := time.Parse("2006-01-02", parsed.PeriodEnd); err == nil {
		r.PeriodEnd = d
	}
	return r, nil
}

func parseLLMResponse(raw string) (*llmResponse, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return nil, apperrors.ErrLLMBadResponse
	}
	var parsed llmResponse
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, apperrors.Wrap(err, "LLM_002", "unparseable classification response")
	}
	return &parsed, nil
}

// extractJSONObject pulls the first JSON object out of a response that may be
// wrapped in markdown fences or prose.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
