package store

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artifact statuses.
const (
	ArtifactQueued     = "queued"
	ArtifactProcessing = "processing"
	ArtifactMatched    = "matched"
	ArtifactFailed     = "failed"
)

// Checklist item statuses.
const (
	ChecklistMissing     = "missing"
	ChecklistPending     = "pending"
	ChecklistReceived    = "received"
	ChecklistSatisfied   = "satisfied"
	ChecklistWaived      = "waived"
	ChecklistNeedsReview = "needs_review"
)

// Document match sources.
const (
	MatchSourceAuto   = "auto"
	MatchSourceManual = "manual"
)

// Deal represents one lending deal and owns its documents and checklist.
type Deal struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	BankID       string    `gorm:"index" json:"bank_id"`
	BorrowerName string    `json:"borrower_name"`
	EntityType   string    `json:"entity_type"`
	Status       string    `json:"status"` // open, ready, closed
	Ready        bool      `json:"ready"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Documents      []Document      `json:"documents,omitempty" gorm:"foreignKey:DealID"`
	ChecklistItems []ChecklistItem `json:"checklist_items,omitempty" gorm:"foreignKey:DealID"`
}

// Document represents one uploaded source document with its canonical
// classification fields. Once MatchSource is manual the canonical fields
// are immutable to automation.
type Document struct {
	ID                string     `gorm:"primaryKey" json:"id"`
	DealID            string     `gorm:"index" json:"deal_id"`
	BankID            string     `json:"bank_id"`
	Filename          string     `json:"filename"`
	SourceTable       string     `gorm:"uniqueIndex:idx_doc_source" json:"source_table"`
	SourceID          string     `gorm:"uniqueIndex:idx_doc_source" json:"source_id"`
	DocType           string     `json:"doc_type"`
	DocTypeConfidence float64    `json:"doc_type_confidence"`
	Tier              string     `json:"tier"`
	TaxYear           int        `json:"tax_year"`
	EntityName        string     `json:"entity_name"`
	EntityType        string     `json:"entity_type"`
	Issuer            string     `json:"issuer"`
	FormNumbers       string     `json:"form_numbers"` // comma-joined
	PeriodStart       *time.Time `json:"period_start,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	ChecklistKey      string     `json:"checklist_key"`
	MatchSource       string     `json:"match_source"` // auto, manual
	OCRTriggered      bool       `json:"ocr_triggered"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Artifact is one queued unit of processing work wrapping a source document.
type Artifact struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	DealID      string     `gorm:"index" json:"deal_id"`
	BankID      string     `json:"bank_id"`
	DocumentID  string     `gorm:"index" json:"document_id"`
	SourceTable string     `gorm:"uniqueIndex:idx_artifact_source" json:"source_table"`
	SourceID    string     `gorm:"uniqueIndex:idx_artifact_source" json:"source_id"`
	Status      string     `gorm:"index" json:"status"` // queued, processing, matched, failed
	RetryCount  int        `json:"retry_count"`
	Error       string     `json:"error,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ChecklistItem is one required/optional document slot on a deal.
type ChecklistItem struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DealID     string    `gorm:"uniqueIndex:idx_deal_key" json:"deal_id"`
	Key        string    `gorm:"uniqueIndex:idx_deal_key" json:"key"`
	Title      string    `json:"title"`
	Required   bool      `json:"required"`
	TaxYear    int       `json:"tax_year,omitempty"`
	Status     string    `json:"status"` // missing, pending, received, satisfied, waived, needs_review
	DocumentID string    `json:"document_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Fact is one canonical financial line item with provenance. Unique per
// (document, key) so extractor batch writes are idempotent.
type Fact struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	DealID      string     `gorm:"index" json:"deal_id"`
	DocumentID  string     `gorm:"uniqueIndex:idx_doc_fact" json:"document_id"`
	Key         string     `gorm:"uniqueIndex:idx_doc_fact" json:"key"`
	Value       float64    `json:"value"`
	Confidence  float64    `json:"confidence"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	Extractor   string     `json:"extractor"`
	Path        string     `json:"path"`
	Snippet     string     `json:"snippet" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LedgerEvent is one append-only audit event.
type LedgerEvent struct {
	ID        string          `gorm:"primaryKey" json:"id"`
	DealID    string          `gorm:"index" json:"deal_id"`
	BankID    string          `json:"bank_id"`
	EventKey  string          `json:"event_key"`
	UIState   string          `json:"ui_state"`
	UIMessage string          `json:"ui_message"`
	Meta      json.RawMessage `json:"meta,omitempty" gorm:"type:text"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// BeforeCreate hook for Deal
func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = generateID("deal")
	}
	if d.Status == "" {
		d.Status = "open"
	}
	return nil
}

// BeforeCreate hook for Document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = generateID("doc")
	}
	return nil
}

// BeforeCreate hook for Artifact
func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateID("art")
	}
	if a.Status == "" {
		a.Status = ArtifactQueued
	}
	return nil
}

// BeforeCreate hook for ChecklistItem
func (c *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateID("chk")
	}
	if c.Status == "" {
		c.Status = ChecklistMissing
	}
	return nil
}

// BeforeCreate hook for Fact
func (f *Fact) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateID("fact")
	}
	return nil
}

// BeforeCreate hook for LedgerEvent
func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = "evt_" + uuid.NewString()
	}
	return nil
}

// generateID creates a unique ID with nanosecond precision
func generateID(prefix string) string {
	return prefix + "_" + time.Now().Format("20060102150405") + "_" + randomString(8)
}

func randomString(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("150405.000000000")
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
