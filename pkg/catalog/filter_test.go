package catalog

import (
	"fmt"
	"testing"
)

func testItems() []*Item {
	return []*Item{
		{Id: "a", Title: "Ethiopia Chelbesa", Roaster: "SEY", Country: "Ethiopia", Process: "Washed", Profile: "floral", Price: "$24", Notes: "jasmine, peach", Url: "https://sey.example/a", LastSeen: "2025-08-20 10:00:00+0000", InStock: true},
		{Id: "b", Title: "Colombia La Palma", Roaster: "Prodigal", Country: "Colombia", Process: "Natural", Profile: "fruity", Price: "$22", Notes: "berry, cacao", Url: "https://prodigal.example/b", LastSeen: "2025-08-21 10:00:00+0000", InStock: true},
		{Id: "c", Title: "Kenya Gatina", Roaster: "SEY", Country: "Kenya", Process: "Washed", Profile: "bright", Price: "$28", Notes: "blackcurrant", Url: "https://sey.example/c", LastSeen: "2025-08-19 10:00:00+0000", InStock: false},
		{Id: "d", Title: "Ethiopia Bookkisa", Roaster: "Hydrangea", Country: "Ethiopia", Process: "Natural", Profile: "floral", Price: "$26", Notes: "strawberry", Url: "https://hydrangea.example/d", LastSeen: "2025-08-18 10:00:00+0000", InStock: false},
	}
}

func visibleIds(c *Collection) []string {
	ids := []string{}
	for _, e := range c.Entries() {
		if e.Visible() {
			ids = append(ids, e.Id)
		}
	}
	return ids
}

func expectVisible(t *testing.T, c *Collection, expected ...string) {
	t.Helper()
	got := visibleIds(c)
	if fmt.Sprint(got) != fmt.Sprint(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestFilterFreeText(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	c.ApplyFilter(&Criteria{Query: "FLORAL"})
	expectVisible(t, c, "a", "d")

	c.ApplyFilter(&Criteria{Query: "$22"})
	expectVisible(t, c, "b")

	c.ApplyFilter(&Criteria{})
	expectVisible(t, c, "a", "b", "c", "d")
}

func TestFilterFacets(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())

	c.ApplyFilter(&Criteria{Roaster: "SEY"})
	expectVisible(t, c, "a", "c")

	c.ApplyFilter(&Criteria{Country: "ethiopia"})
	expectVisible(t, c, "a", "d")

	c.ApplyFilter(&Criteria{Stock: StockOut})
	expectVisible(t, c, "c", "d")

	c.ApplyFilter(&Criteria{Stock: StockIn, HideSoldOut: true})
	expectVisible(t, c, "a", "b")
}

func TestFilterHideSoldOutBeatsStockFacet(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	c.ApplyFilter(&Criteria{Stock: StockOut, HideSoldOut: true})
	expectVisible(t, c)
}

func TestFilterOnlyTried(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	c.SetTried("c", true)
	c.ApplyFilter(&Criteria{OnlyTried: true})
	expectVisible(t, c, "c")
}

// The visible set under combined criteria must equal the intersection of the
// sets each criterion matches on its own.
func TestFilterComposition(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())

	single := map[string]map[string]bool{}
	criteria := map[string]Criteria{
		"query":   {Query: "washed"},
		"roaster": {Roaster: "SEY"},
		"stock":   {Stock: StockOut},
	}
	for name, crit := range criteria {
		c.ApplyFilter(&crit)
		set := map[string]bool{}
		for _, id := range visibleIds(c) {
			set[id] = true
		}
		single[name] = set
	}

	c.ApplyFilter(&Criteria{Query: "washed", Roaster: "SEY", Stock: StockOut})
	for _, e := range c.Entries() {
		expected := single["query"][e.Id] && single["roaster"][e.Id] && single["stock"][e.Id]
		if e.Visible() != expected {
			t.Errorf("Expected visible=%v for %s, got %v", expected, e.Id, e.Visible())
		}
	}
}

func TestFilterIdempotent(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	crit := &Criteria{Query: "ethiopia", HideSoldOut: true}
	c.ApplyFilter(crit)
	first := fmt.Sprint(visibleIds(c))
	c.ApplyFilter(crit)
	second := fmt.Sprint(visibleIds(c))
	if first != second {
		t.Errorf("Expected %v, got %v", first, second)
	}
}
