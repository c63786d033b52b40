package checklist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gmsas95/dealintake/internal/store"
)

func newTestReconciler(t *testing.T) (*Reconciler, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	s, err := store.NewWithDB(db)
	require.NoError(t, err)
	logger, _ := zap.NewDevelopment()
	return NewReconciler(s, logger), s
}

func TestReconcile_FlipsMatchedItems(t *testing.T) {
	r, s := newTestReconciler(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, Seed(s, deal.ID))

	doc := &store.Document{
		DealID: deal.ID, SourceTable: "uploads", SourceID: "u-1",
		DocType: "IRS_BUSINESS", TaxYear: 2024, ChecklistKey: "IRS_BUSINESS_3Y",
	}
	require.NoError(t, s.CreateDocument(doc))

	require.NoError(t, r.Reconcile(deal.ID))

	item, err := s.GetChecklistItem(deal.ID, "IRS_BUSINESS_3Y")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistReceived, item.Status)
	assert.Equal(t, doc.ID, item.DocumentID)

	// Unmatched slots stay open.
	item, err = s.GetChecklistItem(deal.ID, "PFS_CURRENT")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistMissing, item.Status)
}

func TestReconcile_SatisfiesAllMappedKeys(t *testing.T) {
	r, s := newTestReconciler(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, Seed(s, deal.ID))

	// One business return stamped with its per-year key must also fill the
	// grouped three-year requirement.
	doc := &store.Document{
		DealID: deal.ID, SourceTable: "uploads", SourceID: "u-1",
		DocType: "IRS_BUSINESS", TaxYear: 2024, ChecklistKey: "IRS_BUSINESS_2024",
	}
	require.NoError(t, s.CreateDocument(doc))

	require.NoError(t, r.Reconcile(deal.ID))

	for _, key := range []string{"IRS_BUSINESS_2024", "IRS_BUSINESS_3Y"} {
		item, err := s.GetChecklistItem(deal.ID, key)
		require.NoError(t, err)
		assert.Equal(t, store.ChecklistReceived, item.Status, key)
		assert.Equal(t, doc.ID, item.DocumentID, key)
	}

	// Other years stay open.
	item, err := s.GetChecklistItem(deal.ID, "IRS_BUSINESS_2023")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistMissing, item.Status)
}

func TestReconcile_WaivedItemUntouched(t *testing.T) {
	r, s := newTestReconciler(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, s.UpsertChecklistItem(&store.ChecklistItem{
		DealID: deal.ID, Key: "RENT_ROLL", Required: true, Status: store.ChecklistWaived,
	}))
	require.NoError(t, s.CreateDocument(&store.Document{
		DealID: deal.ID, SourceTable: "uploads", SourceID: "u-1", ChecklistKey: "RENT_ROLL",
	}))

	require.NoError(t, r.Reconcile(deal.ID))

	item, err := s.GetChecklistItem(deal.ID, "RENT_ROLL")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistWaived, item.Status)
	assert.Empty(t, item.DocumentID)
}

func TestRecomputeReadiness(t *testing.T) {
	r, s := newTestReconciler(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, s.UpsertChecklistItem(&store.ChecklistItem{
		DealID: deal.ID, Key: "IRS_BUSINESS_3Y", Required: true, Status: store.ChecklistReceived,
	}))
	require.NoError(t, s.UpsertChecklistItem(&store.ChecklistItem{
		DealID: deal.ID, Key: "PFS_CURRENT", Required: true, Status: store.ChecklistMissing,
	}))
	require.NoError(t, s.UpsertChecklistItem(&store.ChecklistItem{
		DealID: deal.ID, Key: "RENT_ROLL", Required: false, Status: store.ChecklistMissing,
	}))

	ready, err := r.RecomputeReadiness(deal.ID)
	require.NoError(t, err)
	assert.False(t, ready, "a required item is still missing")

	item, err := s.GetChecklistItem(deal.ID, "PFS_CURRENT")
	require.NoError(t, err)
	item.Status = store.ChecklistWaived
	require.NoError(t, s.UpdateChecklistItem(item))

	ready, err = r.RecomputeReadiness(deal.ID)
	require.NoError(t, err)
	assert.True(t, ready, "waived counts as resolved; optional items are ignored")

	got, err := s.GetDeal(deal.ID)
	require.NoError(t, err)
	assert.True(t, got.Ready)
	assert.Equal(t, "ready", got.Status)
}

func TestReconcile_ConcurrentSameDeal(t *testing.T) {
	r, s := newTestReconciler(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, Seed(s, deal.ID))
	require.NoError(t, s.CreateDocument(&store.Document{
		DealID: deal.ID, SourceTable: "uploads", SourceID: "u-1", ChecklistKey: "PFS_CURRENT",
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Reconcile(deal.ID))
		}()
	}
	wg.Wait()

	item, err := s.GetChecklistItem(deal.ID, "PFS_CURRENT")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistReceived, item.Status)
}
