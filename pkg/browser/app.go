package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/prefs"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/store"
)

var (
	// ErrPermissionDenied is returned for toggles without a signed-in
	// identity, before any remote call is attempted.
	ErrPermissionDenied = errors.New("sign in to mark drops")
	// ErrRemoteWrite wraps failed user-state writes. State is left untouched.
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrToggleInFlight rejects a re-entrant toggle on the same drop while a
	// request is still pending.
	ErrToggleInFlight = errors.New("toggle already in flight")
)

// Activity receives user actions for the event feed. Implementations must be
// fire-and-forget; a nil Activity is valid.
type Activity interface {
	DropMarked(uid string, kind store.StateKind, itemId string, marked bool)
}

// App is the application state of one browser session: the item collection
// and its projection, the per-user overlay sets, the filter/sort/group
// controls, the pagination cursor and the deep-link sequence. All state is
// mutated under one mutex; remote calls run outside it.
type App struct {
	mu sync.Mutex

	Catalog *catalog.Collection

	catalogStore store.CatalogStore
	stateStore   store.UserStateStore
	provider     identity.Provider
	prefStore    *prefs.Store
	activity     Activity

	collectionName string
	pageSize       int
	cursor         *store.Cursor
	exhausted      bool

	criteria  catalog.Criteria
	sortMode  string
	groupMode string

	triedSet     map[string]struct{}
	purchasedSet map[string]struct{}

	nav Sequence

	togglesInFlight map[string]struct{}
}

type Options struct {
	CatalogStore   store.CatalogStore
	StateStore     store.UserStateStore
	Provider       identity.Provider
	PrefStore      *prefs.Store
	Activity       Activity
	CollectionName string
	PageSize       int
}

func New(opts Options) *App {
	if opts.PageSize <= 0 {
		opts.PageSize = 60
	}
	if opts.CollectionName == "" {
		opts.CollectionName = store.DefaultCollection
	}
	app := &App{
		Catalog:         catalog.NewCollection(),
		catalogStore:    opts.CatalogStore,
		stateStore:      opts.StateStore,
		provider:        opts.Provider,
		prefStore:       opts.PrefStore,
		activity:        opts.Activity,
		collectionName:  opts.CollectionName,
		pageSize:        opts.PageSize,
		triedSet:        map[string]struct{}{},
		purchasedSet:    map[string]struct{}{},
		nav:             Sequence{pos: -1},
		togglesInFlight: map[string]struct{}{},
	}
	app.restorePreferences()
	if app.provider != nil {
		app.provider.OnChange(func(id *identity.Identity) {
			app.Reconcile(context.Background(), id)
		})
	}
	return app
}

func (a *App) restorePreferences() {
	p := prefs.Defaults()
	if a.prefStore != nil {
		p = a.prefStore.Load()
	}
	a.criteria = catalog.Criteria{
		Query:       p.Query,
		Roaster:     p.Roaster,
		Country:     p.Country,
		Stock:       p.Stock,
		OnlyTried:   p.OnlyTried,
		HideSoldOut: p.HideSoldOut,
	}
	a.sortMode = p.Sort
	a.groupMode = p.Group
}

func (a *App) persistPreferences() {
	if a.prefStore == nil {
		return
	}
	err := a.prefStore.Save(prefs.Preferences{
		Query:       a.criteria.Query,
		Roaster:     a.criteria.Roaster,
		Country:     a.criteria.Country,
		Stock:       a.criteria.Stock,
		OnlyTried:   a.criteria.OnlyTried,
		HideSoldOut: a.criteria.HideSoldOut,
		Sort:        a.sortMode,
		Group:       a.groupMode,
	})
	if err != nil {
		log.Printf("Failed to persist preferences: %v", err)
	}
}

// Criteria returns a copy of the active filter state.
func (a *App) Criteria() catalog.Criteria {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.criteria
}

func (a *App) Modes() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortMode, a.groupMode
}

// SetCriteria replaces the filter state and re-applies visibility.
func (a *App) SetCriteria(c catalog.Criteria) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.criteria = c
	a.Catalog.ApplyFilter(&a.criteria)
	a.persistPreferences()
}

func (a *App) SetModes(sortMode, groupMode string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sortMode != "" {
		a.sortMode = sortMode
	}
	if groupMode != "" {
		a.groupMode = groupMode
	}
	a.persistPreferences()
}

// Render produces the current view: filtered entries partitioned into stock
// sections, ordered by the active sort mode, optionally grouped.
func (a *App) Render() catalog.Rendered {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Catalog.Render(a.sortMode, a.groupMode)
}

// LoadNextPage fetches the next catalog page and folds it into the
// collection. Returns the number of appended items; 0 means the store is
// exhausted and further calls are no-ops. New entries get their overlay
// flags before they become eligible for flag-dependent filtering.
func (a *App) LoadNextPage(ctx context.Context) (int, error) {
	a.mu.Lock()
	if a.exhausted {
		a.mu.Unlock()
		return 0, nil
	}
	cursor := a.cursor
	collection := a.collectionName
	limit := a.pageSize
	a.mu.Unlock()

	items, next, err := a.catalogStore.ListPage(ctx, collection, cursor, limit)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(items) == 0 {
		a.exhausted = true
		return 0, nil
	}
	added := a.Catalog.Append(items)
	a.cursor = next
	if len(items) < limit {
		a.exhausted = true
	}
	a.Catalog.Overlay(a.triedSet, a.purchasedSet)
	a.Catalog.ApplyFilter(&a.criteria)
	return added, nil
}

// SetCollection switches the catalog source (the `collection` deep-link
// override). A different name resets the session's item set and cursor; the
// next page load starts from the top of the new source.
func (a *App) SetCollection(name string) bool {
	if name == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if name == a.collectionName {
		return false
	}
	a.collectionName = name
	a.Catalog = catalog.NewCollection()
	a.cursor = nil
	a.exhausted = false
	return true
}

// Loaded reports how many items the session holds.
func (a *App) Loaded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Catalog.Len()
}

// Items returns a copy of the loaded item list, for snapshotting.
func (a *App) Items() []*catalog.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := a.Catalog.Items()
	out := make([]*catalog.Item, len(items))
	copy(out, items)
	return out
}

// Reconcile rebuilds both overlay sets for the given identity and recomputes
// every item's flags. A nil identity clears everything. Each set loads
// independently; a failed fetch degrades to an empty set with a warning and
// never aborts the other one.
func (a *App) Reconcile(ctx context.Context, id *identity.Identity) {
	tried := map[string]struct{}{}
	purchased := map[string]struct{}{}
	if id != nil {
		if entries, err := a.stateStore.List(ctx, id.Uid, store.KindTried); err != nil {
			log.Printf("Failed to load tried set for %s: %v", id.Uid, err)
		} else {
			tried = store.UrlSet(entries)
		}
		if entries, err := a.stateStore.List(ctx, id.Uid, store.KindPurchased); err != nil {
			log.Printf("Failed to load purchased set for %s: %v", id.Uid, err)
		} else {
			purchased = store.UrlSet(entries)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.triedSet = tried
	a.purchasedSet = purchased
	a.Catalog.Overlay(a.triedSet, a.purchasedSet)
	a.Catalog.ApplyFilter(&a.criteria)
}

// TriedSet exposes a copy of the tried membership for assertions.
func (a *App) TriedSet() map[string]struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]struct{}, len(a.triedSet))
	for k := range a.triedSet {
		out[k] = struct{}{}
	}
	return out
}

// PurchasedSet exposes a copy of the purchased membership.
func (a *App) PurchasedSet() map[string]struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]struct{}, len(a.purchasedSet))
	for k := range a.purchasedSet {
		out[k] = struct{}{}
	}
	return out
}

// ToggleOptions carries the optional tried metadata.
type ToggleOptions struct {
	Notes  string
	Rating int
}

// ToggleTried flips the tried mark for one drop. Requires a signed-in
// identity. The remote write happens first; nothing is flipped locally until
// it succeeds. Returns the new state.
func (a *App) ToggleTried(ctx context.Context, itemId string, opts ToggleOptions) (bool, error) {
	return a.toggle(ctx, itemId, store.KindTried, opts)
}

// TogglePurchased flips the purchased mark for one drop.
func (a *App) TogglePurchased(ctx context.Context, itemId string) (bool, error) {
	return a.toggle(ctx, itemId, store.KindPurchased, ToggleOptions{})
}

func (a *App) toggle(ctx context.Context, itemId string, kind store.StateKind, opts ToggleOptions) (bool, error) {
	id := a.provider.Current()
	if id == nil {
		return false, ErrPermissionDenied
	}

	a.mu.Lock()
	item, ok := a.Catalog.Get(itemId)
	if !ok {
		a.mu.Unlock()
		return false, fmt.Errorf("unknown drop %q", itemId)
	}
	if _, busy := a.togglesInFlight[itemId]; busy {
		a.mu.Unlock()
		return false, ErrToggleInFlight
	}
	a.togglesInFlight[itemId] = struct{}{}
	set := a.triedSet
	if kind == store.KindPurchased {
		set = a.purchasedSet
	}
	_, member := set[item.Url]
	url, roaster, title := item.Url, item.Roaster, item.Title
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.togglesInFlight, itemId)
		a.mu.Unlock()
	}()

	if member {
		if err := a.stateStore.Delete(ctx, id.Uid, kind, itemId); err != nil {
			return true, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	} else {
		rec := store.StateRecord{
			Url:     url,
			Roaster: roaster,
			Title:   title,
			Notes:   opts.Notes,
			Rating:  opts.Rating,
		}
		if err := a.stateStore.Upsert(ctx, id.Uid, kind, itemId, rec); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
		// History is best effort, a failure never affects the toggle.
		if err := a.stateStore.AppendHistory(ctx, id.Uid, kind, itemId, rec); err != nil {
			log.Printf("Failed to append %s history for %s: %v", kind, itemId, err)
		}
	}

	a.mu.Lock()
	marked := !member
	if kind == store.KindTried {
		if marked {
			a.triedSet[url] = struct{}{}
		} else {
			delete(a.triedSet, url)
		}
		a.Catalog.SetTried(itemId, marked)
		// "Only tried" can change the visible set, recompute right away.
		a.Catalog.ApplyFilter(&a.criteria)
	} else {
		if marked {
			a.purchasedSet[url] = struct{}{}
		} else {
			delete(a.purchasedSet, url)
		}
		a.Catalog.SetPurchased(itemId, marked)
	}
	a.mu.Unlock()

	if a.activity != nil {
		go a.activity.DropMarked(id.Uid, kind, itemId, marked)
	}
	return marked, nil
}

// TriedList returns the identity's tried records, most recent first.
func (a *App) TriedList(ctx context.Context) ([]store.StateEntry, error) {
	id := a.provider.Current()
	if id == nil {
		return nil, ErrPermissionDenied
	}
	entries, err := a.stateStore.List(ctx, id.Uid, store.KindTried)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MarkedOn > entries[j].MarkedOn
	})
	return entries, nil
}

// ApplyStock folds a staleness notice from the drop feed into the
// collection. Reports whether the notice landed on a known drop.
func (a *App) ApplyStock(itemId string, inStock bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.Catalog.SetStock(itemId, inStock) {
		return false
	}
	a.Catalog.ApplyFilter(&a.criteria)
	return true
}

// ApplyUpserts folds freshly scraped drops into the collection. New ids are
// appended, known ids only get their stock refreshed.
func (a *App) ApplyUpserts(items []*catalog.Item) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	added := 0
	for _, item := range items {
		if item.Id == "" {
			item.Id = catalog.IdFromUrl(item.Url)
		}
		if _, known := a.Catalog.Get(item.Id); known {
			a.Catalog.SetStock(item.Id, item.InStock)
			continue
		}
		added += a.Catalog.Append([]*catalog.Item{item})
	}
	if added > 0 {
		a.Catalog.Overlay(a.triedSet, a.purchasedSet)
	}
	a.Catalog.ApplyFilter(&a.criteria)
	return added
}
