package catalog

import "testing"

func TestAppendSkipsDuplicates(t *testing.T) {
	c := NewCollection()
	items := testItems()
	if added := c.Append(items); added != 4 {
		t.Errorf("Expected 4, got %d", added)
	}
	if added := c.Append(items); added != 0 {
		t.Errorf("Expected 0, got %d", added)
	}
	if c.Len() != 4 {
		t.Errorf("Expected 4, got %d", c.Len())
	}
}

func TestAppendDerivesIdFromUrl(t *testing.T) {
	c := NewCollection()
	c.Append([]*Item{{Title: "No id", Url: "https://roaster.example/x"}})
	want := IdFromUrl("https://roaster.example/x")
	if _, ok := c.Get(want); !ok {
		t.Errorf("Expected derived id %s to be present", want)
	}
}

func TestEntryStaysPairedWithItem(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	if len(c.Items()) != len(c.Entries()) {
		t.Fatalf("Expected 1:1 items and entries, got %d and %d", len(c.Items()), len(c.Entries()))
	}
	for i, item := range c.Items() {
		if c.Entries()[i].Id != item.Id {
			t.Errorf("Expected entry %d to be %s, got %s", i, item.Id, c.Entries()[i].Id)
		}
	}
}

func TestOverlayRecomputesFlags(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	c.SetTried("a", true)
	c.Overlay(map[string]struct{}{"https://prodigal.example/b": {}}, map[string]struct{}{})
	for _, item := range c.Items() {
		wantTried := item.Url == "https://prodigal.example/b"
		if item.Tried != wantTried {
			t.Errorf("Expected tried=%v for %s, got %v", wantTried, item.Id, item.Tried)
		}
		entry, _ := c.Entry(item.Id)
		if entry.Tried != item.Tried || entry.Purchased != item.Purchased {
			t.Errorf("Expected entry flags to match item for %s", item.Id)
		}
	}
}

func TestSetStockUpdatesBothSides(t *testing.T) {
	c := NewCollection()
	c.Append(testItems())
	if !c.SetStock("a", false) {
		t.Fatalf("Expected known id")
	}
	item, _ := c.Get("a")
	entry, _ := c.Entry("a")
	if item.InStock || entry.InStock {
		t.Errorf("Expected both sides out of stock")
	}
	if c.SetStock("nope", true) {
		t.Errorf("Expected unknown id to report false")
	}
}
