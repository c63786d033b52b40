package checklist

import (
	"fmt"
	"time"

	"github.com/gmsas95/dealintake/internal/store"
)

// templateItem is one slot in the default intake checklist.
type templateItem struct {
	key      string
	title    string
	required bool
	taxYear  int
}

// defaultTemplate builds the standard commercial-lending intake checklist
// for a new deal: three years of business returns as per-year slots, the
// legacy aggregates, and the usual supporting documents.
func defaultTemplate(now time.Time) []templateItem {
	latest := now.Year() - 1
	items := []templateItem{
		{keyIRSBusinessLegacy, "Business tax returns (3 years)", true, 0},
		{keyIRSPersonalLegacy, "Personal tax returns (3 years)", true, 0},
		{"PFS_CURRENT", "Current personal financial statement", true, 0},
		{"INTERIM_FINANCIALS", "Interim financial statements", true, 0},
		{"DEBT_SCHEDULE", "Business debt schedule", false, 0},
		{"RENT_ROLL", "Rent roll", false, 0},
		{"BANK_STATEMENTS", "Bank statements", false, 0},
		{"ENTITY_DOCS", "Entity formation documents", false, 0},
		{"INSURANCE", "Insurance binder", false, 0},
	}
	for y := latest - 2; y <= latest; y++ {
		items = append(items,
			templateItem{fmt.Sprintf("IRS_BUSINESS_%d", y), fmt.Sprintf("%d business tax return", y), true, y},
			templateItem{fmt.Sprintf("IRS_PERSONAL_%d", y), fmt.Sprintf("%d personal tax return", y), true, y},
		)
	}
	return items
}

// Seed creates the default checklist for a deal. Existing (deal, key) rows
// are left untouched, so re-seeding is safe.
func Seed(s *store.Store, dealID string) error {
	for _, t := range defaultTemplate(time.Now()) {
		item := &store.ChecklistItem{
			DealID:   dealID,
			Key:      t.key,
			Title:    t.title,
			Required: t.required,
			TaxYear:  t.taxYear,
		}
		if err := s.UpsertChecklistItem(item); err != nil {
			return err
		}
	}
	return nil
}
