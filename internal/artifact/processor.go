package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/checklist"
	"github.com/gmsas95/dealintake/internal/classify"
	apperrors "github.com/gmsas95/dealintake/internal/errors"
	"github.com/gmsas95/dealintake/internal/extract"
	"github.com/gmsas95/dealintake/internal/ledger"
	"github.com/gmsas95/dealintake/internal/metrics"
	"github.com/gmsas95/dealintake/internal/ocr"
	"github.com/gmsas95/dealintake/internal/store"
	"github.com/gmsas95/dealintake/internal/structured"
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result summarizes one pipeline run.
type Result struct {
	Outcome      Outcome
	DocType      classify.DocType
	Confidence   float64
	Tier         classify.Tier
	Keys         []string
	AutoApplied  bool
	OCRTriggered bool
	Err          error
}

// Processor runs the fixed-order pipeline for one claimed artifact:
// manual-override check, text acquisition, classification, guardrails,
// checklist mapping, document stamping, fact extraction, reconciliation,
// and ledger emission.
type Processor struct {
	store      *store.Store
	engine     *classify.Engine
	ocr        ocr.Provider
	reconciler *checklist.Reconciler
	emitter    *ledger.Emitter
	autoMatch  float64
	logger     *zap.Logger
}

// NewProcessor wires the pipeline. The OCR provider may be nil, in which
// case text acquisition degrades to cached text or filename-only input.
func NewProcessor(s *store.Store, engine *classify.Engine, ocrProvider ocr.Provider,
	reconciler *checklist.Reconciler, emitter *ledger.Emitter, autoMatchThreshold float64,
	logger *zap.Logger) *Processor {
	return &Processor{
		store:      s,
		engine:     engine,
		ocr:        ocrProvider,
		reconciler: reconciler,
		emitter:    emitter,
		autoMatch:  autoMatchThreshold,
		logger:     logger,
	}
}

// Process runs the pipeline for a claimed artifact. It never panics; any
// unrecoverable step failure marks the artifact failed and leaves it
// retryable until the retry ceiling.
func (p *Processor) Process(ctx context.Context, a *store.Artifact) Result {
	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	doc, err := p.store.GetDocument(a.DocumentID)
	if err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrDocumentNotFound.Code, "document lookup failed"))
	}

	// Step 1: manual override short-circuits the whole pipeline.
	if doc.MatchSource == store.MatchSourceManual {
		return p.finalizeSkipped(a, doc)
	}

	// Step 2: acquire document text. Never fatal.
	text, payload, ocrTriggered := p.acquireText(ctx, a, doc)

	// Step 3: classify.
	in := classify.Input{Text: text, Filename: doc.Filename}
	if payload != nil && payload.DocTypeHint != "" {
		in.Structured = &classify.StructuredSignal{
			TypeLabel:  payload.DocTypeHint,
			Confidence: payload.DocTypeConfidence,
		}
	}
	result := p.engine.Classify(ctx, in)
	metrics.ClassificationsByTier.WithLabelValues(string(result.Tier), string(result.DocType)).Inc()

	// Step 4: form-number guardrail. A hard form anchor in the text beats
	// whatever the classifier said, and the override is always logged.
	if len(result.FormNumbers) > 0 {
		if expected, ok := classify.TypeForFormNumber(result.FormNumbers[0]); ok && expected != result.DocType {
			p.logger.Warn("form number guardrail override",
				zap.String("artifact_id", a.ID),
				zap.String("form", result.FormNumbers[0]),
				zap.String("classified", string(result.DocType)),
				zap.String("override", string(expected)))
			result.Reason = fmt.Sprintf("guardrail: form %s overrides %s; %s",
				result.FormNumbers[0], result.DocType, result.Reason)
			result.DocType = expected
		}
	}

	// Step 5: checklist mapping. Auto-apply only above the threshold.
	keys := checklist.KeysFor(result.DocType, result.TaxYear)
	autoApply := len(keys) > 0 && result.Confidence >= p.autoMatch

	// Step 6: re-check the override flag before stamping. A human may have
	// overridden the document while this run was in flight.
	doc, err = p.store.GetDocument(doc.ID)
	if err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrDocumentNotFound.Code, "document re-read failed"))
	}
	if doc.MatchSource == store.MatchSourceManual {
		return p.finalizeSkipped(a, doc)
	}

	p.stampDocument(doc, &result, keys, autoApply, ocrTriggered)
	if err := p.store.UpdateDocument(doc); err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrPersistFailed.Code, "document stamp rejected"))
	}

	if err := p.extractFacts(doc, &result, text, payload); err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrPersistFailed.Code, "fact write rejected"))
	}

	// Step 7: reconcile and recompute readiness, best-effort.
	if err := p.reconciler.Reconcile(a.DealID); err != nil {
		p.logger.Error("checklist reconcile failed", zap.String("deal_id", a.DealID), zap.Error(err))
	} else if ready, err := p.reconciler.RecomputeReadiness(a.DealID); err != nil {
		p.logger.Error("readiness recompute failed", zap.String("deal_id", a.DealID), zap.Error(err))
	} else if ready {
		p.emitter.Emit(a.DealID, a.BankID, ledger.EventDealReady, ledger.StateSuccess,
			"all required checklist items resolved", nil)
	}

	// Step 8: terminal state and ledger event.
	now := time.Now()
	a.Status = store.ArtifactMatched
	a.Error = ""
	a.CompletedAt = &now
	if err := p.store.UpdateArtifact(a); err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrPersistFailed.Code, "artifact finalize rejected"))
	}

	p.emitter.Emit(a.DealID, a.BankID, ledger.EventArtifactMatched, ledger.StateSuccess,
		fmt.Sprintf("classified as %s (%.2f)", result.DocType, result.Confidence),
		map[string]interface{}{
			"artifact_id":   a.ID,
			"document_id":   doc.ID,
			"doc_type":      result.DocType,
			"confidence":    result.Confidence,
			"tier":          result.Tier,
			"matched_keys":  keys,
			"auto_applied":  autoApply,
			"ocr_triggered": ocrTriggered,
		})
	metrics.ArtifactsProcessed.WithLabelValues(string(OutcomeMatched)).Inc()

	return Result{
		Outcome:      OutcomeMatched,
		DocType:      result.DocType,
		Confidence:   result.Confidence,
		Tier:         result.Tier,
		Keys:         keys,
		AutoApplied:  autoApply,
		OCRTriggered: ocrTriggered,
	}
}

// acquireText resolves document text: cached extraction first, then a live
// OCR call, then the filename itself as a last resort.
func (p *Processor) acquireText(ctx context.Context, a *store.Artifact, doc *store.Document) (string, *structured.Payload, bool) {
	if cached, err := p.store.GetDocumentText(doc.ID); err == nil && len(cached) > 0 {
		return string(cached), nil, false
	}

	if p.ocr == nil {
		return doc.Filename, nil, false
	}

	payload, err := p.ocr.Extract(ctx, ocr.Request{
		DocumentID:  doc.ID,
		SourceTable: doc.SourceTable,
		SourceID:    doc.SourceID,
		Filename:    doc.Filename,
	})
	if err != nil {
		p.logger.Warn("OCR unavailable, falling back to filename text",
			zap.String("artifact_id", a.ID), zap.Error(err))
		return doc.Filename, nil, true
	}

	if err := p.store.SetDocumentText(doc.ID, []byte(payload.Text)); err != nil {
		p.logger.Warn("text cache write failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return payload.Text, payload, true
}

func (p *Processor) stampDocument(doc *store.Document, result *classify.Result, keys []string, autoApply, ocrTriggered bool) {
	doc.DocType = string(result.DocType)
	doc.DocTypeConfidence = result.Confidence
	doc.Tier = string(result.Tier)
	doc.TaxYear = result.TaxYear
	doc.EntityName = result.EntityName
	doc.EntityType = result.EntityType
	doc.Issuer = result.Issuer
	doc.FormNumbers = strings.Join(result.FormNumbers, ",")
	doc.OCRTriggered = ocrTriggered
	if !result.PeriodStart.IsZero() {
		ps, pe := result.PeriodStart, result.PeriodEnd
		doc.PeriodStart, doc.PeriodEnd = &ps, &pe
	}
	if autoApply {
		doc.ChecklistKey = keys[0]
		doc.MatchSource = store.MatchSourceAuto
	}
}

func (p *Processor) extractFacts(doc *store.Document, result *classify.Result, text string, payload *structured.Payload) error {
	x := extract.ForDocType(result.DocType)
	if x == nil || text == "" {
		return nil
	}

	items := x.Extract(extract.Input{
		DocumentID:  doc.ID,
		Text:        text,
		Structured:  payload,
		TaxYear:     result.TaxYear,
		PeriodStart: result.PeriodStart,
		PeriodEnd:   result.PeriodEnd,
	})
	for _, item := range items {
		f := &store.Fact{
			DealID:     doc.DealID,
			DocumentID: doc.ID,
			Key:        string(item.Key),
			Value:      item.Value,
			Confidence: item.Confidence,
			Extractor:  item.Provenance.Extractor,
			Path:       item.Provenance.Path,
			Snippet:    item.Provenance.Snippet,
		}
		if !item.PeriodStart.IsZero() {
			ps, pe := item.PeriodStart, item.PeriodEnd
			f.PeriodStart, f.PeriodEnd = &ps, &pe
		}
		if err := p.store.UpsertFact(f); err != nil {
			return err
		}
		metrics.FactsExtracted.WithLabelValues(item.Provenance.Extractor, item.Provenance.Path).Inc()
	}
	return nil
}

// finalizeSkipped is the manual-override terminal path: the artifact is done,
// and the document's canonical fields are left exactly as the human set them.
func (p *Processor) finalizeSkipped(a *store.Artifact, doc *store.Document) Result {
	now := time.Now()
	a.Status = store.ArtifactMatched
	a.Error = ""
	a.CompletedAt = &now
	if err := p.store.UpdateArtifact(a); err != nil {
		return p.fail(a, apperrors.Wrap(err, apperrors.ErrPersistFailed.Code, "artifact finalize rejected"))
	}

	p.emitter.Emit(a.DealID, a.BankID, ledger.EventArtifactSkipped, ledger.StateSuccess,
		"manual override in place, classification skipped",
		map[string]interface{}{
			"artifact_id": a.ID,
			"document_id": doc.ID,
			"doc_type":    doc.DocType,
		})
	metrics.ArtifactsProcessed.WithLabelValues(string(OutcomeSkipped)).Inc()

	return Result{
		Outcome:    OutcomeSkipped,
		DocType:    classify.DocType(doc.DocType),
		Confidence: 1.0,
	}
}

func (p *Processor) fail(a *store.Artifact, cause error) Result {
	a.Status = store.ArtifactFailed
	a.Error = cause.Error()
	if err := p.store.UpdateArtifact(a); err != nil {
		p.logger.Error("failed to mark artifact failed",
			zap.String("artifact_id", a.ID), zap.Error(err))
	}

	p.emitter.Emit(a.DealID, a.BankID, ledger.EventArtifactFailed, ledger.StateError,
		cause.Error(),
		map[string]interface{}{
			"artifact_id": a.ID,
			"retry_count": a.RetryCount,
		})
	metrics.ArtifactsProcessed.WithLabelValues(string(OutcomeFailed)).Inc()

	p.logger.Error("artifact pipeline failed",
		zap.String("artifact_id", a.ID),
		zap.Int("retry_count", a.RetryCount),
		zap.Error(cause))
	return Result{Outcome: OutcomeFailed, Err: cause}
}
