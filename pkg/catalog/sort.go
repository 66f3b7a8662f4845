package catalog

import "strings"

// Sort modes. "stock" is the historical name for the recency ordering and is
// kept as an accepted alias.
const (
	SortLast    = "last"
	SortStock   = "stock"
	SortRoaster = "roaster"
	SortCountry = "country"
	SortTitle   = "title"
)

// Group modes.
const (
	GroupNone    = "none"
	GroupRoaster = "roaster"
	GroupCountry = "country"
)

func compareRecency(a, b *Entry) int {
	if a.Recency != b.Recency {
		if a.Recency > b.Recency {
			return -1
		}
		return 1
	}
	return strings.Compare(a.TitleSort, b.TitleSort)
}

func compareByName(name func(*Entry) string) func(a, b *Entry) int {
	return func(a, b *Entry) int {
		if c := strings.Compare(strings.ToLower(name(a)), strings.ToLower(name(b))); c != 0 {
			return c
		}
		if a.Recency > b.Recency {
			return -1
		}
		if a.Recency < b.Recency {
			return 1
		}
		return 0
	}
}

// comparatorFor returns the entry comparator for a sort mode. An unrecognized
// mode returns nil and leaves the current order untouched.
func comparatorFor(sortMode string) func(a, b *Entry) int {
	switch sortMode {
	case SortLast, SortStock, "":
		return compareRecency
	case SortRoaster:
		return compareByName(func(e *Entry) string { return e.Roaster })
	case SortCountry:
		return compareByName(func(e *Entry) string { return e.Country })
	case SortTitle:
		return func(a, b *Entry) int {
			return strings.Compare(a.TitleSort, b.TitleSort)
		}
	}
	return nil
}
