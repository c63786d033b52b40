package checklist

import (
	"sync"

	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/classify"
	"github.com/gmsas95/dealintake/internal/store"
)

// Reconciler flips checklist items as matched documents arrive and recomputes
// deal readiness. Reconciliation is serialized per deal: concurrent workers
// finishing documents on the same deal must not race to flip the same item.
type Reconciler struct {
	store  *store.Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(s *store.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:  s,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (r *Reconciler) dealLock(dealID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[dealID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[dealID] = l
	}
	return l
}

// Reconcile walks the deal's checklist and flips open items to received when
// a document has been matched to their key. Satisfied, waived, and
// needs-review items are never touched.
func (r *Reconciler) Reconcile(dealID string) error {
	l := r.dealLock(dealID)
	l.Lock()
	defer l.Unlock()

	items, err := r.store.GetChecklistItems(dealID)
	if err != nil {
		return err
	}
	docs, err := r.store.ListDocuments(dealID)
	if err != nil {
		return err
	}

	byKey := make(map[string]*store.Document)
	for i := range docs {
		d := &docs[i]
		if d.ChecklistKey == "" {
			continue
		}
		for _, key := range matchedKeys(d) {
			if _, taken := byKey[key]; !taken {
				byKey[key] = d
			}
		}
	}

	for i := range items {
		item := &items[i]
		if item.Status != store.ChecklistMissing && item.Status != store.ChecklistPending {
			continue
		}
		doc, ok := byKey[item.Key]
		if !ok {
			continue
		}
		item.Status = store.ChecklistReceived
		item.DocumentID = doc.ID
		if err := r.store.UpdateChecklistItem(item); err != nil {
			return err
		}
		r.logger.Info("checklist item received",
			zap.String("deal_id", dealID),
			zap.String("key", item.Key),
			zap.String("document_id", doc.ID))
	}
	return nil
}

// matchedKeys is the full set of checklist keys a matched document can
// satisfy: the stamped key plus everything its type and year map to, so one
// tax return fills both the per-year slot and the grouped aggregate.
func matchedKeys(d *store.Document) []string {
	keys := []string{d.ChecklistKey}
	for _, k := range KeysFor(classify.DocType(d.DocType), d.TaxYear) {
		if k != d.ChecklistKey {
			keys = append(keys, k)
		}
	}
	return keys
}

// RecomputeReadiness marks a deal ready when every required checklist item
// is received, satisfied, or waived.
func (r *Reconciler) RecomputeReadiness(dealID string) (bool, error) {
	l := r.dealLock(dealID)
	l.Lock()
	defer l.Unlock()

	items, err := r.store.GetChecklistItems(dealID)
	if err != nil {
		return false, err
	}

	ready := true
	for _, item := range items {
		if !item.Required {
			continue
		}
		switch item.Status {
		case store.ChecklistReceived, store.ChecklistSatisfied, store.ChecklistWaived:
		default:
			ready = false
		}
	}

	deal, err := r.store.GetDeal(dealID)
	if err != nil {
		return false, err
	}
	if deal.Ready != ready {
		deal.Ready = ready
		if ready {
			deal.Status = "ready"
		} else if deal.Status == "ready" {
			deal.Status = "open"
		}
		if err := r.store.UpdateDeal(deal); err != nil {
			return false, err
		}
		r.logger.Info("deal readiness changed",
			zap.String("deal_id", dealID), zap.Bool("ready", ready))
	}
	return ready, nil
}
