package datastoredb

import (
	"context"

	"cloud.google.com/go/datastore"
	"github.com/alexandre-normand/modscot/store"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/api/metric"
	"google.golang.org/api/option"
)

const (
	namespaceKind = "__namespace__"
	testKey       = "testConnectivity"
)

// DatastoreDB implements the modscot GlobalSiloStringStorer interface. It maps
// the given name to the datastore entity Kind and every silo to a datastore
// namespace
type DatastoreDB struct {
	datastorer
	kind string
}

// EntryValue represents an entity/entry value mapped to a datastore key
type EntryValue struct {
	Value string `datastore:",noindex"`
}

// New returns a new instance of DatastoreDB for the given name (which maps to the datastore entity "Kind"). This
// function also requires a gcloudProjectID as well as at least one option to provide gcloud client credentials.
// Calls to the datastore are instrumented with the meter
func New(name string, gcloudProjectID string, meter metric.Meter, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	return newWithDatastorer(name, newDatastorerWithTelemetry(newCloudClient(gcloudProjectID, gcloudClientOpts), name, meter))
}

func newWithDatastorer(name string, ds datastorer) (dsdb *DatastoreDB, err error) {
	if err = ds.connect(); err != nil {
		return nil, err
	}

	dsdb = &DatastoreDB{datastorer: ds, kind: name}
	if err = dsdb.testDB(); err != nil {
		dsdb.Close()
		return nil, err
	}

	return dsdb, nil
}

// testDB makes a lightweight call to the datastore to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB() (err error) {
	var e EntryValue
	err = dsdb.datastorer.Get(context.Background(), datastore.NameKey(dsdb.kind, testKey, nil), &e)

	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// withReconnect runs op and, if it fails for another reason than a missing entity, reconnects
// and runs it once more
func (dsdb *DatastoreDB) withReconnect(op func() error) (err error) {
	err = op()
	if err == nil || err == datastore.ErrNoSuchEntity {
		return err
	}

	if cerr := dsdb.connect(); cerr != nil {
		return err
	}

	return op()
}

func (dsdb *DatastoreDB) key(silo string, key string) (k *datastore.Key) {
	k = datastore.NameKey(dsdb.kind, key, nil)
	k.Namespace = silo

	return k
}

// GetString returns the value associated to a key of the default silo
func (dsdb *DatastoreDB) GetString(key string) (value string, err error) {
	return dsdb.GetSiloString("", key)
}

// GetSiloString returns the value associated to a given key in a silo. If the value is not
// found, the error wraps store.ErrKeyNotFound
func (dsdb *DatastoreDB) GetSiloString(silo string, key string) (value string, err error) {
	var e EntryValue
	k := dsdb.key(silo, key)

	err = dsdb.withReconnect(func() error {
		return dsdb.datastorer.Get(context.Background(), k, &e)
	})

	if err == datastore.ErrNoSuchEntity {
		return "", errors.Wrapf(store.ErrKeyNotFound, "[%s] in silo [%s]", key, silo)
	} else if err != nil {
		return "", err
	}

	return e.Value, nil
}

// PutString stores the key/value in the default silo
func (dsdb *DatastoreDB) PutString(key string, value string) (err error) {
	return dsdb.PutSiloString("", key, value)
}

// PutSiloString stores the key/value in a silo
func (dsdb *DatastoreDB) PutSiloString(silo string, key string, value string) (err error) {
	k := dsdb.key(silo, key)

	return dsdb.withReconnect(func() error {
		_, err := dsdb.datastorer.Put(context.Background(), k, &EntryValue{Value: value})
		return err
	})
}

// DeleteString deletes the entry for the given key of the default silo
func (dsdb *DatastoreDB) DeleteString(key string) (err error) {
	return dsdb.DeleteSiloString("", key)
}

// DeleteSiloString deletes the entry for the given key in a silo
func (dsdb *DatastoreDB) DeleteSiloString(silo string, key string) (err error) {
	k := dsdb.key(silo, key)

	return dsdb.withReconnect(func() error {
		return dsdb.datastorer.Delete(context.Background(), k)
	})
}

// Scan returns all key/values of the default silo
func (dsdb *DatastoreDB) Scan() (entries map[string]string, err error) {
	return dsdb.ScanSilo("")
}

// ScanSilo returns all key/values of a silo
func (dsdb *DatastoreDB) ScanSilo(silo string) (entries map[string]string, err error) {
	var keys []*datastore.Key
	var vals []*EntryValue

	err = dsdb.withReconnect(func() (err error) {
		vals = nil
		keys, err = dsdb.datastorer.GetAll(context.Background(), datastore.NewQuery(dsdb.kind).Namespace(silo), &vals)
		return err
	})

	if err != nil {
		return nil, err
	}

	entries = make(map[string]string)
	for i, key := range keys {
		if key.Name != testKey {
			entries[key.Name] = vals[i].Value
		}
	}

	return entries, nil
}

// GlobalScan returns the key/values of every silo (namespace)
func (dsdb *DatastoreDB) GlobalScan() (entries map[string]map[string]string, err error) {
	var namespaces []*datastore.Key

	err = dsdb.withReconnect(func() (err error) {
		namespaces, err = dsdb.datastorer.GetAll(context.Background(), datastore.NewQuery(namespaceKind).KeysOnly(), nil)
		return err
	})

	if err != nil {
		return nil, errors.Wrap(err, "Error listing datastore namespaces")
	}

	entries = make(map[string]map[string]string)
	for _, ns := range namespaces {
		silo, err := dsdb.ScanSilo(ns.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "Error scanning silo [%s]", ns.Name)
		}

		if len(silo) > 0 {
			entries[ns.Name] = silo
		}
	}

	return entries, nil
}
