// Package inmemorydb holds the in-memory storage of modscot.
//
// InMemoryDB caches every community setting and writes through to a persistent
// store.GlobalSiloStringStorer (leveldb, redis or datastoredb). Settings are read for each
// event so this is the storer the bot should be handed:
//
//	persistent, err := store.NewLevelDB("settings", storagePath)
//	if err != nil {
//		return err
//	}
//
//	settings, err := inmemorydb.New(persistent)
//	if err != nil {
//		persistent.Close()
//		return err
//	}
//
// TicketDB is a ticket.Repository kept in memory, used by tests and dry runs.
package inmemorydb
