// Package artifact implements the intake work queue and the per-artifact
// processing pipeline.
package artifact

import (
	"strings"

	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/metrics"
	"github.com/gmsas95/dealintake/internal/store"
)

// Queue enqueues and claims artifacts. Enqueue is idempotent per source
// document reference; Claim is an atomic compare-and-swap so each artifact
// has at most one active worker.
type Queue struct {
	store  *store.Store
	logger *zap.Logger
}

// NewQueue creates a queue over the given store.
func NewQueue(s *store.Store, logger *zap.Logger) *Queue {
	return &Queue{store: s, logger: logger}
}

// EnqueueResult reports what Enqueue did.
type EnqueueResult struct {
	Artifact      *store.Artifact
	AlreadyQueued bool
}

// Enqueue registers a source document for processing. If an artifact already
// exists for the same (sourceTable, sourceID) it is returned unchanged. A
// document row is created on first sight of the reference.
func (q *Queue) Enqueue(dealID, bankID, sourceTable, sourceID, filename string) (*EnqueueResult, error) {
	if existing, err := q.store.GetArtifactBySource(sourceTable, sourceID); err == nil {
		return &EnqueueResult{Artifact: existing, AlreadyQueued: true}, nil
	}

	doc, err := q.store.GetDocumentBySource(sourceTable, sourceID)
	if err != nil {
		doc = &store.Document{
			DealID:      dealID,
			BankID:      bankID,
			Filename:    filename,
			SourceTable: sourceTable,
			SourceID:    sourceID,
		}
		if err := q.store.CreateDocument(doc); err != nil {
			return nil, err
		}
	}

	a := &store.Artifact{
		DealID:      dealID,
		BankID:      bankID,
		DocumentID:  doc.ID,
		SourceTable: sourceTable,
		SourceID:    sourceID,
	}
	if err := q.store.CreateArtifact(a); err != nil {
		// A concurrent enqueue may have won the unique index race.
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			if existing, lookupErr := q.store.GetArtifactBySource(sourceTable, sourceID); lookupErr == nil {
				return &EnqueueResult{Artifact: existing, AlreadyQueued: true}, nil
			}
		}
		return nil, err
	}

	q.refreshDepth()
	q.logger.Info("artifact enqueued",
		zap.String("artifact_id", a.ID),
		zap.String("deal_id", dealID),
		zap.String("source", sourceTable+"/"+sourceID))
	return &EnqueueResult{Artifact: a}, nil
}

// ClaimNext atomically claims the oldest queued artifact, or returns nil
// when the queue is empty. Losing a claim race retries with the next
// candidate.
func (q *Queue) ClaimNext() (*store.Artifact, error) {
	for {
		a, err := q.store.OldestQueued()
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, nil
		}

		won, err := q.store.TransitionArtifact(a.ID, store.ArtifactQueued, store.ArtifactProcessing)
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}

		q.refreshDepth()
		return q.store.GetArtifact(a.ID)
	}
}

func (q *Queue) refreshDepth() {
	if n, err := q.store.CountArtifacts(store.ArtifactQueued); err == nil {
		metrics.QueueDepth.Set(float64(n))
	}
}
