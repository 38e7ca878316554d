package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/alexandre-normand/modscot/ticket"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	ticketKeyPrefix   = "ticket/"
	ticketSequenceKey = "seq/ticket"
)

// LevelDBTicketRepository implements ticket.Repository with JSON records stored in leveldb. Record
// keys are zero-padded ticket ids so iteration follows id order
type LevelDBTicketRepository struct {
	Name     string
	database *leveldb.DB

	// seqMu serializes id allocation
	seqMu sync.Mutex
}

// NewLevelDBTicketRepository opens (or creates) the leveldb database holding tickets
func NewLevelDBTicketRepository(name string, storagePath string) (r *LevelDBTicketRepository, err error) {
	db, err := openLevelDB(name, storagePath)
	if err != nil {
		return nil, err
	}

	return &LevelDBTicketRepository{Name: name, database: db}, nil
}

// Close closes the underlying leveldb database
func (r *LevelDBTicketRepository) Close() (err error) {
	return r.database.Close()
}

func ticketKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", ticketKeyPrefix, id))
}

// scan calls f with every stored ticket matching the criteria, in id order, until f returns false
func (r *LevelDBTicketRepository) scan(c ticket.Criteria, f func(t *ticket.Ticket) bool) (err error) {
	if c.ID != 0 {
		t, err := r.get(c.ID)
		if err != nil {
			return err
		}

		if t != nil && c.Matches(t) {
			f(t)
		}

		return nil
	}

	iter := r.database.NewIterator(util.BytesPrefix([]byte(ticketKeyPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		t := new(ticket.Ticket)
		if err = json.Unmarshal(iter.Value(), t); err != nil {
			return errors.Wrapf(err, "Error decoding ticket record [%s]", iter.Key())
		}

		if c.Matches(t) && !f(t) {
			break
		}
	}

	return iter.Error()
}

func (r *LevelDBTicketRepository) get(id int64) (t *ticket.Ticket, err error) {
	val, err := r.database.Get(ticketKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	t = new(ticket.Ticket)
	if err = json.Unmarshal(val, t); err != nil {
		return nil, errors.Wrapf(err, "Error decoding ticket [%d]", id)
	}

	return t, nil
}

// Find implements ticket.Repository
func (r *LevelDBTicketRepository) Find(ctx context.Context, c ticket.Criteria) (t *ticket.Ticket, err error) {
	err = r.scan(c, func(found *ticket.Ticket) bool {
		t = found
		return false
	})

	if err != nil {
		return nil, err
	}

	if t == nil {
		return nil, ticket.ErrNotFound
	}

	return t, nil
}

// Count implements ticket.Repository
func (r *LevelDBTicketRepository) Count(ctx context.Context, c ticket.Criteria) (count int, err error) {
	err = r.scan(c, func(t *ticket.Ticket) bool {
		count++
		return true
	})

	return count, err
}

// Save implements ticket.Repository
func (r *LevelDBTicketRepository) Save(ctx context.Context, t *ticket.Ticket) (err error) {
	if t.ID == 0 {
		if t.ID, err = r.nextID(); err != nil {
			return errors.Wrap(err, "Error allocating ticket id")
		}
	}

	val, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "Error encoding ticket [%d]", t.ID)
	}

	return r.database.Put(ticketKey(t.ID), val, nil)
}

func (r *LevelDBTicketRepository) nextID() (id int64, err error) {
	r.seqMu.Lock()
	defer r.seqMu.Unlock()

	val, err := r.database.Get([]byte(ticketSequenceKey), nil)
	if err != nil && err != leveldb.ErrNotFound {
		return 0, err
	}

	if err == nil {
		if id, err = strconv.ParseInt(string(val), 10, 64); err != nil {
			return 0, errors.Wrapf(err, "Invalid ticket sequence value [%s]", val)
		}
	}

	id++
	if err = r.database.Put([]byte(ticketSequenceKey), []byte(strconv.FormatInt(id, 10)), nil); err != nil {
		return 0, err
	}

	return id, nil
}

// Delete implements ticket.Repository
func (r *LevelDBTicketRepository) Delete(ctx context.Context, c ticket.Criteria) (err error) {
	if c.IsZero() {
		return errors.Wrap(ticket.ErrUnboundedCriteria, "Refusing to delete every ticket")
	}

	batch := new(leveldb.Batch)
	err = r.scan(c, func(t *ticket.Ticket) bool {
		batch.Delete(ticketKey(t.ID))
		return true
	})

	if err != nil {
		return err
	}

	return r.database.Write(batch, nil)
}
