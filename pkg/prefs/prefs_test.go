package prefs

import (
	"os"
	"path"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	p := s.Load()
	if p.Sort != "last" || p.Group != "none" {
		t.Errorf("Expected recency sort and no grouping, got %+v", p)
	}
	if p.HideSoldOut || p.OnlyTried || p.Query != "" {
		t.Errorf("Expected empty filters, got %+v", p)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	in := Preferences{
		Query:       "gesha",
		Roaster:     "SEY",
		Stock:       "in",
		Sort:        "roaster",
		Group:       "country",
		HideSoldOut: true,
	}
	if err := s.Save(in); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(); got != in {
		t.Errorf("Expected %+v, got %+v", in, got)
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(path.Join(dir, "prefs.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir)
	if p := s.Load(); p != Defaults() {
		t.Errorf("Expected defaults, got %+v", p)
	}
}
