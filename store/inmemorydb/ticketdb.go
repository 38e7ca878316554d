package inmemorydb

import (
	"context"
	"sort"
	"sync"

	"github.com/alexandre-normand/modscot/ticket"
	"github.com/pkg/errors"
)

// TicketDB implements ticket.Repository in memory. Tickets are copied in and out so callers never
// share a record with the database
type TicketDB struct {
	mu      sync.Mutex
	tickets map[int64]ticket.Ticket
	lastID  int64
}

// NewTicketDB returns a new empty TicketDB
func NewTicketDB() (db *TicketDB) {
	db = new(TicketDB)
	db.tickets = make(map[int64]ticket.Ticket)

	return db
}

// matching returns the ids of tickets matching the criteria in ascending order. Callers must hold mu
func (db *TicketDB) matching(c ticket.Criteria) (ids []int64) {
	ids = make([]int64, 0)
	for id, t := range db.tickets {
		t := t
		if c.Matches(&t) {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Find implements ticket.Repository
func (db *TicketDB) Find(ctx context.Context, c ticket.Criteria) (t *ticket.Ticket, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := db.matching(c)
	if len(ids) == 0 {
		return nil, ticket.ErrNotFound
	}

	found := copyTicket(db.tickets[ids[0]])

	return &found, nil
}

// Count implements ticket.Repository
func (db *TicketDB) Count(ctx context.Context, c ticket.Criteria) (count int, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.matching(c)), nil
}

// Save implements ticket.Repository
func (db *TicketDB) Save(ctx context.Context, t *ticket.Ticket) (err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.ID == 0 {
		db.lastID++
		t.ID = db.lastID
	} else if t.ID > db.lastID {
		db.lastID = t.ID
	}

	db.tickets[t.ID] = copyTicket(*t)

	return nil
}

// Delete implements ticket.Repository
func (db *TicketDB) Delete(ctx context.Context, c ticket.Criteria) (err error) {
	if c.IsZero() {
		return errors.Wrap(ticket.ErrUnboundedCriteria, "Refusing to delete every ticket")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range db.matching(c) {
		delete(db.tickets, id)
	}

	return nil
}

func copyTicket(t ticket.Ticket) ticket.Ticket {
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		t.ClosedAt = &closedAt
	}

	return t
}
