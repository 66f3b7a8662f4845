package catalog

import "time"

// Timestamp layouts the scraper has emitted over time. The first is the
// canonical one (`%Y-%m-%d %H:%M:%S%z`), the rest cover older records and
// hand-edited documents. Naive forms are taken as UTC.
var recencyLayouts = []string{
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04-0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRecency converts a last_seen/first_seen display string to epoch
// milliseconds. Unparseable input yields 0, which sorts last under the
// recency-descending default. Never fails.
func ParseRecency(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range recencyLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
