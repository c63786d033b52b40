package extract

import (
	"regexp"

	"github.com/gmsas95/dealintake/internal/docparse"
	"github.com/gmsas95/dealintake/internal/structured"
)

// run accumulates line items for one extraction pass, enforcing at most one
// item per fact key: the first match wins.
type run struct {
	in        Input
	extractor string
	seen      map[FactKey]bool
	items     []LineItem
}

func newRun(in Input, extractor string) *run {
	return &run{in: in, extractor: extractor, seen: make(map[FactKey]bool)}
}

func (r *run) add(key FactKey, value, confidence float64, path, snippet string) {
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.items = append(r.items, LineItem{
		Key:         key,
		Value:       value,
		Confidence:  structured.Clamp(confidence),
		PeriodStart: r.in.PeriodStart,
		PeriodEnd:   r.in.PeriodEnd,
		Provenance: Provenance{
			DocumentID: r.in.DocumentID,
			Extractor:  r.extractor,
			Path:       path,
			Snippet:    snippet,
		},
	})
}

// structuredPath walks normalized entities and form fields, mapping their
// types/names to canonical keys via a closed lookup table.
func (r *run) structuredPath(entityKeys map[string]FactKey, fieldKeys map[string]FactKey) {
	p := r.in.Structured
	if p == nil {
		return
	}

	for _, e := range p.Entities {
		key, ok := entityKeys[docparse.NormalizeLabel(e.Type)]
		if !ok {
			continue
		}
		v, ok := e.Amount()
		if !ok {
			continue
		}
		r.add(key, v, e.Confidence, PathStructured, e.MentionText)
	}

	for _, f := range p.FormFields {
		key, ok := fieldKeys[docparse.NormalizeLabel(f.Name)]
		if !ok {
			continue
		}
		v, ok := docparse.ParseMoney(f.Value)
		if !ok {
			continue
		}
		r.add(key, v, f.Confidence, PathStructured, f.Name+" "+f.Value)
	}
}

// labelPattern is one labeled-regex rule: a canonical key and its label.
type labelPattern struct {
	key   FactKey
	label *regexp.Regexp
	conf  float64
}

// labeledPath searches raw text for each label followed by a money token in
// a bounded window, same-line first and then across one newline.
func (r *run) labeledPath(patterns []labelPattern) {
	for _, lp := range patterns {
		if r.seen[lp.key] {
			continue
		}
		la, ok := docparse.FindLabeledAmount(r.in.Text, lp.label)
		if !ok {
			continue
		}
		conf := lp.conf
		if la.CrossLine {
			conf -= 0.05
		}
		r.add(lp.key, la.Value, conf, PathLabeled, la.Snippet)
	}
}

func label(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}
