package inmemorydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexandre-normand/modscot/store/inmemorydb"
	"github.com/alexandre-normand/modscot/test/tickettest"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketDB(t *testing.T) {
	tickettest.RunRepositoryTests(t, func(t *testing.T) (ticket.Repository, func()) {
		return inmemorydb.NewTicketDB(), func() {}
	})
}

func TestTicketDBDoesNotShareClosedAt(t *testing.T) {
	db := inmemorydb.NewTicketDB()

	closedAt := time.Date(2023, time.March, 4, 10, 30, 0, 0, time.UTC)
	tk := &ticket.Ticket{CommunityID: "c1", AuthorID: "alice", Title: "Cannot log in", Status: ticket.StatusClosed, ClosedAt: &closedAt}
	require.NoError(t, db.Save(context.Background(), tk))

	closedAt = closedAt.Add(time.Hour)

	found, err := db.Find(context.Background(), ticket.ByID(tk.ID))
	require.NoError(t, err)
	assert.Equal(t, 10, found.ClosedAt.Hour())
}
