// Package structured normalizes third-party structured-OCR responses into one
// uniform entity/table/field shape the extractors consume. All decoding is
// defensive: unknown fields are ignored, missing fields get safe defaults,
// and confidences are clamped to [0,1], so no unvalidated external value
// reaches the rest of the pipeline.
package structured

import (
	"encoding/json"
	"fmt"

	"github.com/gmsas95/dealintake/internal/docparse"
)

// Payload is the normalized form of a structured-OCR response.
type Payload struct {
	Text              string
	DocTypeHint       string
	DocTypeConfidence float64
	Entities          []Entity
	FormFields        []FormField
	Tables            []Table
}

// Entity is one detected entity with its mention text and optional
// structured money value.
type Entity struct {
	Type        string
	MentionText string
	Normalized  string
	Money       *float64
	Confidence  float64
}

// Amount resolves the entity's dollar value, preferring the structured money
// representation and falling back to parsing the mention text.
func (e Entity) Amount() (float64, bool) {
	if e.Money != nil {
		return *e.Money, true
	}
	if v, ok := docparse.ParseMoney(e.Normalized); ok {
		return v, true
	}
	return docparse.ParseMoney(e.MentionText)
}

// FormField is one key/value pair detected on a page.
type FormField struct {
	Name       string
	Value      string
	Confidence float64
}

// Table is one detected table, header rows and body rows as cell grids.
type Table struct {
	HeaderRows [][]string
	BodyRows   [][]string
}

// raw wire shapes. Only the fields we consume are declared.

type rawResponse struct {
	Text     string      `json:"text"`
	DocType  string      `json:"docType"`
	DocConf  float64     `json:"docTypeConfidence"`
	Entities []rawEntity `json:"entities"`
	Pages    []rawPage   `json:"pages"`
}

type rawEntity struct {
	Type            string             `json:"type"`
	MentionText     string             `json:"mentionText"`
	Confidence      float64            `json:"confidence"`
	NormalizedValue rawNormalizedValue `json:"normalizedValue"`
}

type rawNormalizedValue struct {
	Text       string         `json:"text"`
	MoneyValue *rawMoneyValue `json:"moneyValue"`
}

type rawMoneyValue struct {
	Units json.Number `json:"units"`
	Nanos int64       `json:"nanos"`
}

type rawPage struct {
	FormFields []rawFormField `json:"formFields"`
	Tables     []rawTable     `json:"tables"`
}

type rawFormField struct {
	FieldName  string  `json:"fieldName"`
	FieldValue string  `json:"fieldValue"`
	Confidence float64 `json:"confidence"`
}

type rawTable struct {
	HeaderRows [][]string `json:"headerRows"`
	BodyRows   [][]string `json:"bodyRows"`
}

// Decode parses an opaque structured-OCR JSON document into a Payload.
func Decode(data []byte) (*Payload, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode structured OCR response: %w", err)
	}

	p := &Payload{
		Text:              raw.Text,
		DocTypeHint:       raw.DocType,
		DocTypeConfidence: Clamp(raw.DocConf),
	}

	for _, e := range raw.Entities {
		ent := Entity{
			Type:        e.Type,
			MentionText: e.MentionText,
			Normalized:  e.NormalizedValue.Text,
			Confidence:  Clamp(e.Confidence),
		}
		if mv := e.NormalizedValue.MoneyValue; mv != nil {
			if units, err := mv.Units.Float64(); err == nil {
				v := units + float64(mv.Nanos)/1e9
				ent.Money = &v
			}
		}
		p.Entities = append(p.Entities, ent)
	}

	for _, page := range raw.Pages {
		for _, f := range page.FormFields {
			p.FormFields = append(p.FormFields, FormField{
				Name:       f.FieldName,
				Value:      f.FieldValue,
				Confidence: Clamp(f.Confidence),
			})
		}
		for _, tbl := range page.Tables {
			p.Tables = append(p.Tables, Table{
				HeaderRows: tbl.HeaderRows,
				BodyRows:   tbl.BodyRows,
			})
		}
	}

	return p, nil
}

// Clamp forces a confidence into [0,1].
func Clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
