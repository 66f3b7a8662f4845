package store

import (
	"context"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
)

// Cursor marks the end of the most recently fetched catalog page. The zero
// value means "from the top".
type Cursor struct {
	LastSeen string `json:"lastSeen"`
	Id       string `json:"id"`
}

// CatalogStore is the paginated read side of the hosted catalog. Pages are
// ordered by last_seen descending with the document id as tie break, so
// successive calls with advancing cursors never overlap and never skip.
type CatalogStore interface {
	ListPage(ctx context.Context, collection string, cursor *Cursor, limit int) ([]*catalog.Item, *Cursor, error)
}

// StateKind selects one of the two per-user sets.
type StateKind string

const (
	KindTried     StateKind = "tried"
	KindPurchased StateKind = "purchased"
)

// StateRecord is the per-user document written on a toggle-on. Notes and
// Rating only apply to the tried kind.
type StateRecord struct {
	Url     string `json:"url"`
	Roaster string `json:"roaster"`
	Title   string `json:"title"`
	Notes   string `json:"notes,omitempty"`
	Rating  int    `json:"rating,omitempty"`
}

// StateEntry is one listed membership, used by the tried listing.
type StateEntry struct {
	Id       string `json:"id"`
	Url      string `json:"url"`
	Roaster  string `json:"roaster"`
	Title    string `json:"title"`
	MarkedOn string `json:"markedOn"`
}

// UserStateStore holds the two url sets per identity. Upsert assigns the
// server timestamp; AppendHistory is best effort and its failure never
// affects the toggle outcome.
type UserStateStore interface {
	List(ctx context.Context, uid string, kind StateKind) ([]StateEntry, error)
	Upsert(ctx context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error
	Delete(ctx context.Context, uid string, kind StateKind, itemId string) error
	AppendHistory(ctx context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error
}

// UrlSet flattens a listing into the membership set used by reconcile.
func UrlSet(entries []StateEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Url != "" {
			set[e.Url] = struct{}{}
		}
	}
	return set
}
