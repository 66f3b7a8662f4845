package store

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
)

const snapshotFile = "drops.jz"

// Snapshot persists the loaded catalog to disk so a restart can serve a warm
// view before the first remote page arrives. Items are streamed one JSON
// document at a time through gzip; writes go to a tmp file and rename.
type Snapshot struct {
	dir string
}

func NewSnapshot(dataDir string) *Snapshot {
	return &Snapshot{dir: dataDir}
}

func (s *Snapshot) fileName() (string, string) {
	name := path.Join(s.dir, snapshotFile)
	return name, name + ".tmp"
}

// Load reads the snapshot. A missing file is not an error, it just means a
// cold start.
func (s *Snapshot) Load() ([]*catalog.Item, error) {
	fileName, _ := s.fileName()
	file, err := os.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer zipReader.Close()

	dec := json.NewDecoder(zipReader)
	items := make([]*catalog.Item, 0)
	for {
		tmp := &catalog.Item{}
		if err = dec.Decode(tmp); err != nil {
			break
		}
		items = append(items, tmp)
	}
	if errors.Is(err, io.EOF) {
		return items, nil
	}
	return items, err
}

// Save writes all items and swaps the file in place.
func (s *Snapshot) Save(items []*catalog.Item) error {
	fileName, tmpFileName := s.fileName()

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	zipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(zipWriter)
	for _, item := range items {
		if err = enc.Encode(item); err != nil {
			break
		}
	}
	if closeErr := zipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}

	err = os.Rename(tmpFileName, fileName)
	if err == nil {
		log.Printf("Saved %d drops to %s", len(items), fileName)
	}
	return err
}
