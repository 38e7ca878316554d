package store

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// siloSeparator separates the silo from the key in leveldb keys
const siloSeparator = "\x00"

// LevelDB holds a datastore name and its leveldb instance. Keys are stored as
// silo + "\x00" + key so every silo is a contiguous key range
type LevelDB struct {
	Name     string
	database *leveldb.DB
}

// openLevelDB opens (or creates) the leveldb database named name under storagePath
func openLevelDB(name string, storagePath string) (db *leveldb.DB, err error) {
	// Expand '~' as the full home directory path if appropriate
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err = leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	return db, nil
}

// NewLevelDB instantiates and open a new LevelDB instance backed by a leveldb database. If the
// leveldb database doesn't exist, one is created
func NewLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	db, err := openLevelDB(name, storagePath)
	if err != nil {
		return nil, err
	}

	return &LevelDB{Name: name, database: db}, nil
}

// Close closes the LevelDB
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

func siloKey(silo string, key string) []byte {
	return []byte(silo + siloSeparator + key)
}

// GetString retrieves the value associated to the key in the default silo
func (ldb *LevelDB) GetString(key string) (value string, err error) {
	return ldb.GetSiloString("", key)
}

// GetSiloString retrieves the value associated to the key in a silo
func (ldb *LevelDB) GetSiloString(silo string, key string) (value string, err error) {
	val, err := ldb.database.Get(siloKey(silo, key), nil)
	if err == leveldb.ErrNotFound {
		return "", errors.Wrapf(ErrKeyNotFound, "[%s] in silo [%s]", key, silo)
	} else if err != nil {
		return "", err
	}

	return string(val), nil
}

// PutString adds or updates a value associated to the key in the default silo
func (ldb *LevelDB) PutString(key string, value string) (err error) {
	return ldb.PutSiloString("", key, value)
}

// PutSiloString adds or updates a value associated to the key in a silo
func (ldb *LevelDB) PutSiloString(silo string, key string, value string) (err error) {
	return ldb.database.Put(siloKey(silo, key), []byte(value), nil)
}

// DeleteString deletes the entry for the key in the default silo
func (ldb *LevelDB) DeleteString(key string) (err error) {
	return ldb.DeleteSiloString("", key)
}

// DeleteSiloString deletes the entry for the key in a silo
func (ldb *LevelDB) DeleteSiloString(silo string, key string) (err error) {
	return ldb.database.Delete(siloKey(silo, key), nil)
}

// Scan returns the key/values of the default silo
func (ldb *LevelDB) Scan() (entries map[string]string, err error) {
	return ldb.ScanSilo("")
}

// ScanSilo returns the complete set of key/values of a silo
func (ldb *LevelDB) ScanSilo(silo string) (entries map[string]string, err error) {
	entries = map[string]string{}
	prefix := []byte(silo + siloSeparator)

	iter := ldb.database.NewIterator(util.BytesPrefix(prefix), nil)
	for iter.Next() {
		key := string(bytes.TrimPrefix(iter.Key(), prefix))
		entries[key] = string(iter.Value())
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}

// GlobalScan returns the key/values of every silo
func (ldb *LevelDB) GlobalScan() (entries map[string]map[string]string, err error) {
	entries = map[string]map[string]string{}

	iter := ldb.database.NewIterator(nil, nil)
	for iter.Next() {
		parts := bytes.SplitN(iter.Key(), []byte(siloSeparator), 2)
		if len(parts) != 2 {
			continue
		}

		silo := string(parts[0])
		if _, ok := entries[silo]; !ok {
			entries[silo] = map[string]string{}
		}

		entries[silo][string(parts[1])] = string(iter.Value())
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}
