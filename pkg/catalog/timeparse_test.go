package catalog

import "testing"

func TestParseRecencyZoneNormalization(t *testing.T) {
	local := ParseRecency("2024-03-01 14:05+0200")
	utc := ParseRecency("2024-03-01T12:05:00Z")
	if local == 0 {
		t.Fatalf("Expected a parsed value, got 0")
	}
	if local != utc {
		t.Errorf("Expected %v, got %v", utc, local)
	}
}

func TestParseRecencyScraperFormat(t *testing.T) {
	v := ParseRecency("2025-08-12 09:30:00+0000")
	if v == 0 {
		t.Errorf("Expected scraper timestamp to parse, got 0")
	}
}

func TestParseRecencyUnparseable(t *testing.T) {
	for _, input := range []string{"", "not a date", "12/31/2024", "2024-13-40 99:99"} {
		if v := ParseRecency(input); v != 0 {
			t.Errorf("Expected 0 for %q, got %v", input, v)
		}
	}
}

func TestParseRecencyNaiveIsUtc(t *testing.T) {
	naive := ParseRecency("2024-03-01 12:05:00")
	zoned := ParseRecency("2024-03-01T12:05:00Z")
	if naive != zoned {
		t.Errorf("Expected %v, got %v", zoned, naive)
	}
}
