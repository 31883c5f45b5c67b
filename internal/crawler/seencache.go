package crawler

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// SeenCache is a local, durable "has this replay id already been seen"
// cache in front of Backend.ReplayGet, so repeat crawls of the same
// listing pages don't round-trip to the backend for every entry already
// known to be old.
type SeenCache struct {
	db *badger.DB
}

// OpenSeenCache opens (creating if absent) a badger store at dir.
func OpenSeenCache(dir string) (*SeenCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &SeenCache{db: db}, nil
}

func (c *SeenCache) Close() error {
	return c.db.Close()
}

// Has reports whether id was previously marked seen.
func (c *SeenCache) Has(id string) bool {
	found := false
	_ = c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		found = err == nil
		return nil
	})
	return found
}

// Mark records id as seen.
func (c *SeenCache) Mark(id string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), nil)
	})
}
