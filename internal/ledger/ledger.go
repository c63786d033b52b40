// Package ledger emits append-only audit events consumed by dashboards.
package ledger

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/store"
)

// Event keys.
const (
	EventArtifactMatched = "artifact.matched"
	EventArtifactSkipped = "artifact.skipped"
	EventArtifactFailed  = "artifact.failed"
	EventDealReady       = "deal.ready"
)

// UI states rendered by the intake dashboard.
const (
	StateSuccess = "success"
	StateWarning = "warning"
	StateError   = "error"
)

// Emitter appends ledger events. Emission is best-effort from the caller's
// perspective; a failed append is logged and swallowed so audit problems
// never fail the pipeline they describe.
type Emitter struct {
	store  *store.Store
	logger *zap.Logger
}

func NewEmitter(s *store.Store, logger *zap.Logger) *Emitter {
	return &Emitter{store: s, logger: logger}
}

// Emit appends one event. Meta must be JSON-marshalable.
func (e *Emitter) Emit(dealID, bankID, eventKey, uiState, uiMessage string, meta map[string]interface{}) {
	var raw json.RawMessage
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			e.logger.Warn("ledger meta not serializable", zap.String("event_key", eventKey), zap.Error(err))
		} else {
			raw = b
		}
	}

	event := &store.LedgerEvent{
		DealID:    dealID,
		BankID:    bankID,
		EventKey:  eventKey,
		UIState:   uiState,
		UIMessage: uiMessage,
		Meta:      raw,
	}
	if err := e.store.AppendLedgerEvent(event); err != nil {
		e.logger.Error("ledger append failed",
			zap.String("deal_id", dealID),
			zap.String("event_key", eventKey),
			zap.Error(err))
	}
}
