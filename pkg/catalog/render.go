package catalog

import (
	"slices"
	"sort"
	"strings"
)

// UnknownGroup is the bucket key for entries missing the grouped attribute.
// It always orders after every named bucket.
const UnknownGroup = "unknown"

// Bucket is one group within a section for a single render pass.
type Bucket struct {
	Key     string   `json:"key"`
	Entries []*Entry `json:"entries"`
}

// Section is the rendered in-stock or out-of-stock half of the view. When
// grouping is off Entries is populated and Buckets is nil, otherwise the
// other way around. Hidden marks sections that filtered down to nothing.
type Section struct {
	Entries []*Entry `json:"entries,omitempty"`
	Buckets []Bucket `json:"buckets,omitempty"`
	Hidden  bool     `json:"hidden"`
}

// Rendered is the full output of one render pass.
type Rendered struct {
	InStock    Section `json:"inStock"`
	OutOfStock Section `json:"outOfStock"`
}

func groupKey(groupMode string, e *Entry) string {
	var key string
	switch groupMode {
	case GroupRoaster:
		key = e.Roaster
	case GroupCountry:
		key = e.Country
	}
	if key == "" {
		return UnknownGroup
	}
	return key
}

func buildBuckets(entries []*Entry, sortMode, groupMode string) []Bucket {
	byKey := map[string][]*Entry{}
	keys := []string{}
	for _, e := range entries {
		key := groupKey(groupMode, e)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], e)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == UnknownGroup {
			return false
		}
		if keys[j] == UnknownGroup {
			return true
		}
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	// Sorting and grouping by the same attribute would be redundant inside a
	// bucket, fall back to recency there.
	inner := sortMode
	if sortMode == groupMode {
		inner = SortLast
	}
	cmp := comparatorFor(inner)

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		members := byKey[key]
		if cmp != nil {
			slices.SortStableFunc(members, cmp)
		}
		buckets = append(buckets, Bucket{Key: key, Entries: members})
	}
	return buckets
}

func buildSection(entries []*Entry, sortMode, groupMode string) Section {
	if cmp := comparatorFor(sortMode); cmp != nil {
		slices.SortStableFunc(entries, cmp)
	}
	s := Section{Hidden: len(entries) == 0}
	if groupMode == GroupRoaster || groupMode == GroupCountry {
		s.Buckets = buildBuckets(entries, sortMode, groupMode)
	} else {
		s.Entries = entries
	}
	return s
}

// Render partitions the visible entries into the two stock sections, orders
// each by sortMode and optionally re-partitions into group buckets. The same
// Entry pointers move between passes, they are never copied, so overlay
// mutations already applied are carried along.
func (c *Collection) Render(sortMode, groupMode string) Rendered {
	inStock := make([]*Entry, 0, len(c.entries))
	outOfStock := make([]*Entry, 0)
	for _, e := range c.entries {
		if !e.visible {
			continue
		}
		if e.InStock {
			inStock = append(inStock, e)
		} else {
			outOfStock = append(outOfStock, e)
		}
	}
	return Rendered{
		InStock:    buildSection(inStock, sortMode, groupMode),
		OutOfStock: buildSection(outOfStock, sortMode, groupMode),
	}
}
