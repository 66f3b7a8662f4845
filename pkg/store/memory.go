package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
)

// MemoryStore implements both store interfaces in memory. Used by tests and
// by local development without hosted credentials. Fail* toggles let tests
// exercise the degrade paths.
type MemoryStore struct {
	mu      sync.Mutex
	catalog map[string][]*catalog.Item
	state   map[string]map[string]StateEntry
	history map[string][]StateRecord

	FailList    map[StateKind]bool
	FailWrite   bool
	FailHistory bool

	// WriteEntered and WriteRelease, when set, make Upsert signal entry and
	// then wait, so tests can hold a write open mid-flight.
	WriteEntered chan struct{}
	WriteRelease chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catalog:  map[string][]*catalog.Item{},
		state:    map[string]map[string]StateEntry{},
		history:  map[string][]StateRecord{},
		FailList: map[StateKind]bool{},
	}
}

// Seed loads catalog records, sorted the way the hosted store would return
// them (last_seen descending, id ascending on ties).
func (s *MemoryStore) Seed(collection string, items []*catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := make([]*catalog.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LastSeen != sorted[j].LastSeen {
			return sorted[i].LastSeen > sorted[j].LastSeen
		}
		return sorted[i].Id < sorted[j].Id
	})
	s.catalog[collection] = sorted
}

func (s *MemoryStore) ListPage(_ context.Context, collection string, cursor *Cursor, limit int) ([]*catalog.Item, *Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collection == "" {
		collection = DefaultCollection
	}
	all := s.catalog[collection]
	start := 0
	if cursor != nil && cursor.Id != "" {
		for i, item := range all {
			if item.Id == cursor.Id {
				start = i + 1
				break
			}
		}
	}
	if start >= len(all) {
		return nil, cursor, nil
	}
	end := min(start+limit, len(all))
	page := make([]*catalog.Item, 0, end-start)
	for _, item := range all[start:end] {
		clone := *item
		page = append(page, &clone)
	}
	last := page[len(page)-1]
	return page, &Cursor{LastSeen: last.LastSeen, Id: last.Id}, nil
}

func stateKey(uid string, kind StateKind) string {
	return uid + "/" + string(kind)
}

func (s *MemoryStore) List(_ context.Context, uid string, kind StateKind) ([]StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList[kind] {
		return nil, fmt.Errorf("listing %s failed", kind)
	}
	entries := []StateEntry{}
	for _, e := range s.state[stateKey(uid, kind)] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MarkedOn > entries[j].MarkedOn
	})
	return entries, nil
}

func (s *MemoryStore) Upsert(_ context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error {
	if s.WriteEntered != nil {
		s.WriteEntered <- struct{}{}
	}
	if s.WriteRelease != nil {
		<-s.WriteRelease
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrite {
		return fmt.Errorf("write rejected")
	}
	key := stateKey(uid, kind)
	if s.state[key] == nil {
		s.state[key] = map[string]StateEntry{}
	}
	s.state[key][itemId] = StateEntry{
		Id:       itemId,
		Url:      rec.Url,
		Roaster:  rec.Roaster,
		Title:    rec.Title,
		MarkedOn: time.Now().UTC().Format(markedOnLayout),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, uid string, kind StateKind, itemId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrite {
		return fmt.Errorf("delete rejected")
	}
	delete(s.state[stateKey(uid, kind)], itemId)
	return nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailHistory {
		return fmt.Errorf("history append failed")
	}
	key := stateKey(uid, kind) + "/" + itemId
	s.history[key] = append(s.history[key], rec)
	return nil
}

// History is test inspection only.
func (s *MemoryStore) History(uid string, kind StateKind, itemId string) []StateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[stateKey(uid, kind)+"/"+itemId]
}
