package prefs

import (
	"log"
	"os"
	"path"
	"sync"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common/jsoncompat"
)

// Preferences are the durable browse controls, read once at startup and
// written back on every control change.
type Preferences struct {
	Query       string `json:"query"`
	Roaster     string `json:"roaster"`
	Country     string `json:"country"`
	Stock       string `json:"stock"`
	Sort        string `json:"sort"`
	Group       string `json:"group"`
	HideSoldOut bool   `json:"hideSoldOut"`
	OnlyTried   bool   `json:"onlyTried"`
}

// Defaults returns the documented startup values: no filters, recency sort,
// no grouping, sold-out visible.
func Defaults() Preferences {
	return Preferences{
		Sort:  "last",
		Group: "none",
	}
}

// Store persists Preferences as a json file under the data directory.
type Store struct {
	mu       sync.Mutex
	fileName string
}

func NewStore(dataDir string) *Store {
	return &Store{fileName: path.Join(dataDir, "prefs.json")}
}

// Load reads stored preferences, falling back to defaults when the file is
// missing or unreadable.
func (s *Store) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Defaults()
	data, err := os.ReadFile(s.fileName)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read preferences: %v", err)
		}
		return p
	}
	if err := jsoncompat.Unmarshal(data, &p); err != nil {
		log.Printf("Failed to parse preferences, using defaults: %v", err)
		return Defaults()
	}
	return p
}

func (s *Store) Save(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := jsoncompat.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(s.fileName), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.fileName, data, 0644)
}
