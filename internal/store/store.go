// Package store provides persistence: gorm-over-SQLite for relational state
// (deals, documents, artifacts, checklist, facts, ledger) and BadgerDB as a
// side cache for extracted document text, which is large and immutable.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gmsas95/dealintake/internal/config"
)

// Store provides unified access to SQLite and BadgerDB.
type Store struct {
	db     *gorm.DB
	badger *badger.DB
}

// New opens both databases and migrates the relational schema.
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "dealintake.db")
	}

	db, err := gorm.Open(sqlite.Open(sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{db: db, badger: badgerDB}, nil
}

// NewWithDB wraps an existing gorm handle and pairs it with an in-memory
// text cache. Used in tests with an in-memory SQLite database.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerDB, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{db: db, badger: badgerDB}, nil
}

// Migrate applies the relational schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Deal{},
		&Document{},
		&Artifact{},
		&ChecklistItem{},
		&Fact{},
		&LedgerEvent{},
	)
}

// Close closes all database connections.
func (s *Store) Close() error {
	if s.badger != nil {
		return s.badger.Close()
	}
	return nil
}

// DB returns the GORM database instance.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ==================== Deal Methods ====================

func (s *Store) CreateDeal(deal *Deal) error {
	return s.db.Create(deal).Error
}

func (s *Store) GetDeal(id string) (*Deal, error) {
	var deal Deal
	if err := s.db.First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *Store) UpdateDeal(deal *Deal) error {
	return s.db.Save(deal).Error
}

func (s *Store) ListDeals(bankID string, limit, offset int) ([]Deal, error) {
	var deals []Deal
	q := s.db.Order("updated_at DESC").Limit(limit).Offset(offset)
	if bankID != "" {
		q = q.Where("bank_id = ?", bankID)
	}
	err := q.Find(&deals).Error
	return deals, err
}

// ==================== Document Methods ====================

func (s *Store) CreateDocument(doc *Document) error {
	return s.db.Create(doc).Error
}

func (s *Store) GetDocument(id string) (*Document, error) {
	var doc Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) GetDocumentBySource(sourceTable, sourceID string) (*Document, error) {
	var doc Document
	if err := s.db.First(&doc, "source_table = ? AND source_id = ?", sourceTable, sourceID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) UpdateDocument(doc *Document) error {
	return s.db.Save(doc).Error
}

func (s *Store) ListDocuments(dealID string) ([]Document, error) {
	var docs []Document
	err := s.db.Where("deal_id = ?", dealID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// ==================== Artifact Methods ====================

func (s *Store) CreateArtifact(a *Artifact) error {
	return s.db.Create(a).Error
}

func (s *Store) GetArtifact(id string) (*Artifact, error) {
	var a Artifact
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetArtifactBySource(sourceTable, sourceID string) (*Artifact, error) {
	var a Artifact
	if err := s.db.First(&a, "source_table = ? AND source_id = ?", sourceTable, sourceID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpdateArtifact(a *Artifact) error {
	return s.db.Save(a).Error
}

// OldestQueued returns the oldest queued artifact, or nil when the queue is
// empty.
func (s *Store) OldestQueued() (*Artifact, error) {
	var a Artifact
	err := s.db.Where("status = ?", ArtifactQueued).Order("created_at ASC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TransitionArtifact moves an artifact between statuses with a conditional
// update, returning whether this caller won the transition. This is the
// compare-and-swap backing the queue's claim semantics.
func (s *Store) TransitionArtifact(id, from, to string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	if to == ArtifactProcessing {
		updates["claimed_at"] = now
	}
	res := s.db.Model(&Artifact{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountArtifacts returns how many artifacts are in the given status.
func (s *Store) CountArtifacts(status string) (int64, error) {
	var n int64
	err := s.db.Model(&Artifact{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// RequeueFailed flips failed artifacts below the retry ceiling back to
// queued, bumping their retry count. Returns how many were requeued.
func (s *Store) RequeueFailed(maxRetries int) (int64, error) {
	res := s.db.Model(&Artifact{}).
		Where("status = ? AND retry_count < ?", ArtifactFailed, maxRetries).
		Updates(map[string]interface{}{
			"status":      ArtifactQueued,
			"retry_count": gorm.Expr("retry_count + 1"),
			"error":       "",
			"updated_at":  time.Now(),
		})
	return res.RowsAffected, res.Error
}

// ==================== Checklist Methods ====================

// UpsertChecklistItem inserts an item or leaves an existing (deal, key) row
// untouched, so seeding is idempotent.
func (s *Store) UpsertChecklistItem(item *ChecklistItem) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "deal_id"}, {Name: "key"}},
		DoNothing: true,
	}).Create(item).Error
}

func (s *Store) GetChecklistItems(dealID string) ([]ChecklistItem, error) {
	var items []ChecklistItem
	err := s.db.Where("deal_id = ?", dealID).Order("key ASC").Find(&items).Error
	return items, err
}

func (s *Store) GetChecklistItem(dealID, key string) (*ChecklistItem, error) {
	var item ChecklistItem
	if err := s.db.First(&item, "deal_id = ? AND key = ?", dealID, key).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateChecklistItem(item *ChecklistItem) error {
	return s.db.Save(item).Error
}

// ==================== Fact Methods ====================

// UpsertFact writes a fact, replacing any prior value for the same
// (document, key) pair. Extractor batch writes stay idempotent.
func (s *Store) UpsertFact(f *Fact) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "confidence", "period_start", "period_end", "extractor", "path", "snippet",
		}),
	}).Create(f).Error
}

func (s *Store) GetFacts(documentID string) ([]Fact, error) {
	var facts []Fact
	err := s.db.Where("document_id = ?", documentID).Order("key ASC").Find(&facts).Error
	return facts, err
}

func (s *Store) GetDealFacts(dealID string) ([]Fact, error) {
	var facts []Fact
	err := s.db.Where("deal_id = ?", dealID).Order("document_id ASC, key ASC").Find(&facts).Error
	return facts, err
}

// DeleteFacts removes all facts for a document. Used when a manual override
// invalidates automated extraction.
func (s *Store) DeleteFacts(documentID string) error {
	return s.db.Where("document_id = ?", documentID).Delete(&Fact{}).Error
}

// ==================== Ledger Methods ====================

func (s *Store) AppendLedgerEvent(e *LedgerEvent) error {
	return s.db.Create(e).Error
}

func (s *Store) ListLedgerEvents(dealID string, limit int) ([]LedgerEvent, error) {
	var events []LedgerEvent
	err := s.db.Where("deal_id = ?", dealID).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// ==================== Text Cache Methods (BadgerDB) ====================

// SetDocumentText caches extracted text for a document.
func (s *Store) SetDocumentText(documentID string, text []byte) error {
	if s.badger == nil {
		return nil
	}
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("doctext:"+documentID), text)
	})
}

// GetDocumentText returns cached extracted text, or nil when absent.
func (s *Store) GetDocumentText(documentID string) ([]byte, error) {
	if s.badger == nil {
		return nil, nil
	}
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("doctext:" + documentID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return val, err
}
