package catalog

import "strings"

// Stock facet values.
const (
	StockAny = ""
	StockIn  = "in"
	StockOut = "out"
)

// Criteria is one filter state. Every populated facet must hold for an entry
// to stay visible; empty means unconstrained.
type Criteria struct {
	Query       string `json:"query" schema:"q"`
	Roaster     string `json:"roaster" schema:"roaster"`
	Country     string `json:"country" schema:"country"`
	Stock       string `json:"stock" schema:"stock"`
	OnlyTried   bool   `json:"onlyTried" schema:"tried"`
	HideSoldOut bool   `json:"hideSoldOut" schema:"hideSoldOut"`
}

func (f *Criteria) matches(e *Entry) bool {
	if f.HideSoldOut && !e.InStock {
		return false
	}
	if f.OnlyTried && !e.Tried {
		return false
	}
	if f.Query != "" && !strings.Contains(e.Search, f.Query) {
		return false
	}
	if f.Roaster != "" && e.Roaster != f.Roaster {
		return false
	}
	if f.Country != "" && !strings.EqualFold(e.Country, f.Country) {
		return false
	}
	switch f.Stock {
	case StockIn:
		return e.InStock
	case StockOut:
		return !e.InStock
	}
	return true
}

// ApplyFilter recomputes every entry's visibility flag. No reordering, no
// re-homing; calling it again with the same criteria and items is a no-op.
func (c *Collection) ApplyFilter(f *Criteria) {
	normalized := *f
	normalized.Query = strings.ToLower(f.Query)
	for _, e := range c.entries {
		e.visible = normalized.matches(e)
	}
}

// VisibleCount is mostly for metrics and tests.
func (c *Collection) VisibleCount() int {
	n := 0
	for _, e := range c.entries {
		if e.visible {
			n++
		}
	}
	return n
}
