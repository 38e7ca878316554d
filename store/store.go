// Package store defines the storage interfaces used for community settings and provides their
// leveldb implementation along with a leveldb ticket repository
package store

import (
	"io"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned (possibly wrapped) when a key has no value
var ErrKeyNotFound = errors.New("key not found")

// StringStorer is implemented by any value that has the Get/Put/Delete/Scan and Closer methods on
// string keys/values
type StringStorer interface {
	io.Closer

	GetString(key string) (value string, err error)
	PutString(key string, value string) (err error)
	DeleteString(key string) (err error)
	Scan() (entries map[string]string, err error)
}

// SiloStringStorer is a StringStorer whose entries can be partitioned in silos. Methods of the
// StringStorer operate on the default (empty) silo
type SiloStringStorer interface {
	StringStorer

	GetSiloString(silo string, key string) (value string, err error)
	PutSiloString(silo string, key string, value string) (err error)
	DeleteSiloString(silo string, key string) (err error)
	ScanSilo(silo string) (entries map[string]string, err error)
}

// GlobalSiloStringStorer is a SiloStringStorer able to return the entries of every silo at once
type GlobalSiloStringStorer interface {
	SiloStringStorer

	// GlobalScan returns the entries of all silos keyed by silo name
	GlobalScan() (entries map[string]map[string]string, err error)
}
