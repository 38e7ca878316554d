package inmemorydb

import (
	"sync"

	"github.com/alexandre-normand/modscot/store"
	"github.com/pkg/errors"
)

const defaultSilo = ""

// silo holds the settings of one community
type silo map[string]string

func (s silo) clone() silo {
	c := make(silo, len(s))
	for k, v := range s {
		c[k] = v
	}

	return c
}

// InMemoryDB is a store.GlobalSiloStringStorer answering every read from memory. Writes go to the
// backing storer first and only reach memory once it accepted them
type InMemoryDB struct {
	backing store.GlobalSiloStringStorer

	mu    sync.RWMutex
	silos map[string]silo
}

// New loads every silo of the backing storer in memory. A nil backing storer gives a volatile database
func New(backing store.GlobalSiloStringStorer) (*InMemoryDB, error) {
	imdb := &InMemoryDB{backing: backing, silos: make(map[string]silo)}
	if backing == nil {
		return imdb, nil
	}

	loaded, err := backing.GlobalScan()
	if err != nil {
		return nil, errors.Wrap(err, "Error loading settings in memory")
	}

	for name, entries := range loaded {
		imdb.silos[name] = silo(entries).clone()
	}

	return imdb, nil
}

// writeThrough applies persist to the backing storer, if any, and then apply under the write lock
func (imdb *InMemoryDB) writeThrough(persist func(store.GlobalSiloStringStorer) error, apply func()) error {
	imdb.mu.Lock()
	defer imdb.mu.Unlock()

	if imdb.backing != nil {
		if err := persist(imdb.backing); err != nil {
			return err
		}
	}

	apply()
	return nil
}

// GetString returns the value of key in the default silo
func (imdb *InMemoryDB) GetString(key string) (string, error) {
	return imdb.GetSiloString(defaultSilo, key)
}

// GetSiloString returns the value of key in a silo or an error wrapping store.ErrKeyNotFound
func (imdb *InMemoryDB) GetSiloString(siloName string, key string) (string, error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	if v, ok := imdb.silos[siloName][key]; ok {
		return v, nil
	}

	return "", errors.Wrapf(store.ErrKeyNotFound, "[%s] in silo [%s]", key, siloName)
}

// PutString sets key in the default silo
func (imdb *InMemoryDB) PutString(key string, value string) error {
	return imdb.PutSiloString(defaultSilo, key, value)
}

// PutSiloString sets key in a silo
func (imdb *InMemoryDB) PutSiloString(siloName string, key string, value string) error {
	return imdb.writeThrough(
		func(b store.GlobalSiloStringStorer) error { return b.PutSiloString(siloName, key, value) },
		func() {
			s, ok := imdb.silos[siloName]
			if !ok {
				s = make(silo)
				imdb.silos[siloName] = s
			}
			s[key] = value
		})
}

// DeleteString removes key from the default silo
func (imdb *InMemoryDB) DeleteString(key string) error {
	return imdb.DeleteSiloString(defaultSilo, key)
}

// DeleteSiloString removes key from a silo
func (imdb *InMemoryDB) DeleteSiloString(siloName string, key string) error {
	return imdb.writeThrough(
		func(b store.GlobalSiloStringStorer) error { return b.DeleteSiloString(siloName, key) },
		func() { delete(imdb.silos[siloName], key) })
}

// Scan returns a copy of the default silo
func (imdb *InMemoryDB) Scan() (map[string]string, error) {
	return imdb.ScanSilo(defaultSilo)
}

// ScanSilo returns a copy of a silo. An unknown silo gives an empty map
func (imdb *InMemoryDB) ScanSilo(siloName string) (map[string]string, error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	return imdb.silos[siloName].clone(), nil
}

// GlobalScan returns a copy of every non-empty silo
func (imdb *InMemoryDB) GlobalScan() (map[string]map[string]string, error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	all := make(map[string]map[string]string, len(imdb.silos))
	for name, s := range imdb.silos {
		if len(s) > 0 {
			all[name] = s.clone()
		}
	}

	return all, nil
}

// Close closes the backing storer
func (imdb *InMemoryDB) Close() error {
	if imdb.backing == nil {
		return nil
	}

	return imdb.backing.Close()
}
