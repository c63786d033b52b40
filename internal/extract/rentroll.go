package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/gmsas95/dealintake/internal/docparse"
)

// Occupancy statuses normalized from rent-roll rows.
const (
	OccupancyOccupied = "OCCUPIED"
	OccupancyVacant   = "VACANT"
	OccupancyNotice   = "NOTICE"
	OccupancyUnknown  = "UNKNOWN"
)

// UnitRecord is one parsed rent-roll row.
type UnitRecord struct {
	Unit       string
	Tenant     string
	Rent       float64
	Status     string
	LeaseStart time.Time
	LeaseEnd   time.Time
}

// RentRollExtractor is table-shaped rather than label-shaped: it scores
// candidate tables by header vocabulary, maps header columns to row fields,
// and parses each body row into a unit record. Rows without a resolvable
// unit identifier are discarded.
type RentRollExtractor struct{}

func NewRentRollExtractor() *RentRollExtractor {
	return &RentRollExtractor{}
}

func (x *RentRollExtractor) Name() string { return "rent_roll" }

var rentRollVocabulary = []string{"unit", "suite", "apt", "tenant", "lessee", "resident", "rent", "status", "occupancy", "lease"}

// minHeaderScore is the minimum vocabulary hits a row needs to count as a
// rent-roll header.
const minHeaderScore = 2

// columnRoles maps a normalized header cell to the unit-record field it
// feeds. Checked in order so "lease start" wins over the bare "lease".
type columnRole int

const (
	colNone columnRole = iota
	colUnit
	colTenant
	colRent
	colStatus
	colLeaseStart
	colLeaseEnd
)

func roleFor(header string) columnRole {
	h := docparse.NormalizeLabel(header)
	switch {
	case strings.Contains(h, "unit") || strings.Contains(h, "suite") || strings.Contains(h, "apt"):
		return colUnit
	case strings.Contains(h, "tenant") || strings.Contains(h, "lessee") || strings.Contains(h, "resident"):
		return colTenant
	case strings.Contains(h, "rent"):
		return colRent
	case strings.Contains(h, "status") || strings.Contains(h, "occupancy"):
		return colStatus
	case strings.Contains(h, "start") || strings.Contains(h, "move in"):
		return colLeaseStart
	case strings.Contains(h, "end") || strings.Contains(h, "expir"):
		return colLeaseEnd
	default:
		return colNone
	}
}

func normalizeOccupancy(s string) string {
	switch n := docparse.NormalizeLabel(s); {
	case strings.Contains(n, "vacant"):
		return OccupancyVacant
	case strings.Contains(n, "notice"):
		return OccupancyNotice
	case strings.Contains(n, "occupied") || strings.Contains(n, "current") || strings.Contains(n, "leased"):
		return OccupancyOccupied
	default:
		return OccupancyUnknown
	}
}

// resolvableUnitID accepts short alphanumeric designators ("101", "A-1",
// "STE 200") and rejects spillover text from misaligned rows.
func resolvableUnitID(s string) bool {
	if s == "" || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return !strings.Contains(s, " ")
}

// Units parses the best candidate table into unit records. The structured
// payload's tables win when present; otherwise a table is reconstructed from
// raw text rows split on column whitespace.
func (x *RentRollExtractor) Units(in Input) []UnitRecord {
	header, body := x.bestTable(in)
	if len(header) == 0 {
		return nil
	}

	roles := make([]columnRole, len(header))
	for i, cell := range header {
		roles[i] = roleFor(cell)
	}

	var units []UnitRecord
	for _, row := range body {
		var u UnitRecord
		u.Status = OccupancyUnknown
		for i, cell := range row {
			if i >= len(roles) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			switch roles[i] {
			case colUnit:
				u.Unit = cell
			case colTenant:
				u.Tenant = cell
			case colRent:
				if v, ok := docparse.ParseMoney(cell); ok {
					u.Rent = v
				}
			case colStatus:
				u.Status = normalizeOccupancy(cell)
			case colLeaseStart:
				if d, ok := docparse.ExtractDate(cell); ok {
					u.LeaseStart = d
				}
			case colLeaseEnd:
				if d, ok := docparse.ExtractDate(cell); ok {
					u.LeaseEnd = d
				}
			}
		}
		if !resolvableUnitID(u.Unit) {
			continue
		}
		units = append(units, u)
	}
	return units
}

func (x *RentRollExtractor) bestTable(in Input) (header []string, body [][]string) {
	bestScore := 0

	if in.Structured != nil {
		for _, tbl := range in.Structured.Tables {
			if len(tbl.HeaderRows) == 0 {
				continue
			}
			h := tbl.HeaderRows[0]
			if s := docparse.ScoreHeader(h, rentRollVocabulary); s > bestScore && s >= minHeaderScore {
				bestScore, header, body = s, h, tbl.BodyRows
			}
		}
		if header != nil {
			return header, body
		}
	}

	// Text fallback: the highest-scoring line is the header, everything
	// after it the body.
	rows := docparse.SplitRows(in.Text)
	headerIdx := -1
	for i, row := range rows {
		cells := docparse.SplitColumns(row)
		if s := docparse.ScoreHeader(cells, rentRollVocabulary); s > bestScore && s >= minHeaderScore {
			bestScore, headerIdx, header = s, i, cells
		}
	}
	if headerIdx < 0 {
		return nil, nil
	}
	for _, row := range rows[headerIdx+1:] {
		body = append(body, docparse.SplitColumns(row))
	}
	return header, body
}

// Extract aggregates unit records into line items: total scheduled rent
// across all parsed units.
func (x *RentRollExtractor) Extract(in Input) []LineItem {
	units := x.Units(in)
	if len(units) == 0 {
		return nil
	}

	total := 0.0
	for _, u := range units {
		total += u.Rent
	}

	r := newRun(in, x.Name())
	r.add(FactGrossRents, total, 0.70, PathStructured,
		fmt.Sprintf("sum of %d rent roll units", len(units)))
	return r.items
}
