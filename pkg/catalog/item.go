package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Item is the canonical drop record as stored in the catalog collection.
// Everything except the two overlay flags is immutable once loaded.
type Item struct {
	Id        string `json:"id" firestore:"-"`
	Title     string `json:"title" firestore:"title"`
	Roaster   string `json:"roaster" firestore:"roaster"`
	Country   string `json:"country" firestore:"country"`
	Region    string `json:"region,omitempty" firestore:"region"`
	Producer  string `json:"producer,omitempty" firestore:"producer"`
	Process   string `json:"process" firestore:"process"`
	Variety   string `json:"variety,omitempty" firestore:"variety"`
	Profile   string `json:"profile" firestore:"profile"`
	Price     string `json:"price" firestore:"price"`
	Notes     string `json:"notes" firestore:"notes"`
	Url       string `json:"url" firestore:"url"`
	Image     string `json:"image,omitempty" firestore:"image"`
	FirstSeen string `json:"first_seen" firestore:"first_seen"`
	LastSeen  string `json:"last_seen" firestore:"last_seen"`
	InStock   bool   `json:"in_stock" firestore:"in_stock"`

	// Overlay flags, merged in from the per-user sets. Not persisted on the
	// catalog document.
	Tried     bool `json:"tried" firestore:"-"`
	Purchased bool `json:"purchased" firestore:"-"`
}

// IdFromUrl derives the stable document id used by the scraper for records
// that arrive without one.
func IdFromUrl(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// Entry is the view projection of one Item: pre-lowercased searchable text
// plus the numeric recency value and the overlay flags. Entries are kept 1:1
// with Items by shared id and are the only thing filtering and sorting touch.
type Entry struct {
	Id        string
	Url       string
	Title     string
	TitleSort string
	Roaster   string
	Country   string
	Search    string
	Recency   int64
	InStock   bool
	Tried     bool
	Purchased bool

	visible bool
}

func (e *Entry) Visible() bool {
	return e.visible
}

// MakeEntry projects an Item. Pure, no shared state.
func MakeEntry(item *Item) *Entry {
	return &Entry{
		Id:        item.Id,
		Url:       item.Url,
		Title:     item.Title,
		TitleSort: strings.ToLower(item.Title),
		Roaster:   item.Roaster,
		Country:   item.Country,
		Search: strings.ToLower(strings.Join([]string{
			item.Title,
			item.Price,
			item.Notes,
			item.Process,
			item.Profile,
		}, " ")),
		Recency:   ParseRecency(item.LastSeen),
		InStock:   item.InStock,
		Tried:     item.Tried,
		Purchased: item.Purchased,
	}
}
