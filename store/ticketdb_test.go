package store_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/alexandre-normand/modscot/store"
	"github.com/alexandre-normand/modscot/test/tickettest"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTicketRepository(t *testing.T) (r ticket.Repository, cleanup func()) {
	dir, err := ioutil.TempDir("", "tmpTickets")
	require.NoError(t, err)

	ldb, err := store.NewLevelDBTicketRepository("tickets", dir)
	require.NoError(t, err)

	return ldb, func() {
		ldb.Close()
		os.RemoveAll(dir)
	}
}

func TestLevelDBTicketRepository(t *testing.T) {
	tickettest.RunRepositoryTests(t, newTestTicketRepository)
}

func TestLevelDBTicketSequenceSurvivesReopening(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTickets")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	r, err := store.NewLevelDBTicketRepository("tickets", dir)
	require.NoError(t, err)

	first := &ticket.Ticket{CommunityID: "c1", AuthorID: "alice", Title: "Cannot log in", Status: ticket.StatusOpen}
	require.NoError(t, r.Save(context.Background(), first))
	require.NoError(t, r.Close())

	r, err = store.NewLevelDBTicketRepository("tickets", dir)
	require.NoError(t, err)
	defer r.Close()

	second := &ticket.Ticket{CommunityID: "c1", AuthorID: "bob", Title: "Spam in general", Status: ticket.StatusOpen}
	require.NoError(t, r.Save(context.Background(), second))

	assert.Equal(t, first.ID+1, second.ID)
}
