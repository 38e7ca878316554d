// Package tickettest provides the behavior tests every ticket.Repository implementation must pass
package tickettest

import (
	"context"
	"testing"
	"time"

	"github.com/alexandre-normand/modscot/ticket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepositoryFactory returns a new empty repository along with a function releasing it
type RepositoryFactory func(t *testing.T) (r ticket.Repository, cleanup func())

var created = time.Date(2023, time.March, 4, 10, 30, 0, 0, time.UTC)

// RunRepositoryTests runs the repository behavior tests against repositories returned by the factory
func RunRepositoryTests(t *testing.T, newRepository RepositoryFactory) {
	tests := map[string]func(t *testing.T, r ticket.Repository){
		"SaveAssignsIncreasingIDs":      testSaveAssignsIncreasingIDs,
		"FindReflectsLatestSave":        testFindReflectsLatestSave,
		"FindMissingReturnsNotFound":    testFindMissingReturnsNotFound,
		"FindReturnsLowestMatchingID":   testFindReturnsLowestMatchingID,
		"CountByCriteria":               testCountByCriteria,
		"DeleteRemovesMatchingTickets":  testDeleteRemovesMatchingTickets,
		"DeleteRefusesEmptyCriteria":    testDeleteRefusesEmptyCriteria,
		"ClosedAtSurvivesRoundTrip":     testClosedAtSurvivesRoundTrip,
		"FindByChannelAfterProvisioned": testFindByChannelAfterProvisioned,
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			r, cleanup := newRepository(t)
			defer cleanup()

			test(t, r)
		})
	}
}

func newTicket(communityID string, authorID string, status ticket.Status) *ticket.Ticket {
	return &ticket.Ticket{CommunityID: communityID, AuthorID: authorID, Title: "Cannot log in", Status: status, CreatedAt: created}
}

func testSaveAssignsIncreasingIDs(t *testing.T, r ticket.Repository) {
	first := newTicket("c1", "alice", ticket.StatusOpen)
	second := newTicket("c1", "bob", ticket.StatusOpen)

	require.NoError(t, r.Save(context.Background(), first))
	require.NoError(t, r.Save(context.Background(), second))

	assert.NotZero(t, first.ID)
	assert.True(t, second.ID > first.ID)
}

func testFindReflectsLatestSave(t *testing.T, r ticket.Repository) {
	tk := newTicket("c1", "alice", ticket.StatusOpen)
	require.NoError(t, r.Save(context.Background(), tk))

	tk.AssigneeID = "mod"
	require.NoError(t, r.Save(context.Background(), tk))

	found, err := r.Find(context.Background(), ticket.ByID(tk.ID))
	require.NoError(t, err)
	assert.Equal(t, "mod", found.AssigneeID)
	assert.Equal(t, "Cannot log in", found.Title)
	assert.True(t, created.Equal(found.CreatedAt))

	found.Title = "changed without saving"
	again, err := r.Find(context.Background(), ticket.ByID(tk.ID))
	require.NoError(t, err)
	assert.Equal(t, "Cannot log in", again.Title)
}

func testFindMissingReturnsNotFound(t *testing.T, r ticket.Repository) {
	_, err := r.Find(context.Background(), ticket.ByID(404))
	assert.True(t, errors.Is(err, ticket.ErrNotFound))

	_, err = r.Find(context.Background(), ticket.ByChannel("nowhere"))
	assert.True(t, errors.Is(err, ticket.ErrNotFound))
}

func testFindReturnsLowestMatchingID(t *testing.T, r ticket.Repository) {
	tickets := make([]*ticket.Ticket, 0)
	for i := 0; i < 12; i++ {
		tk := newTicket("c1", "alice", ticket.StatusOpen)
		require.NoError(t, r.Save(context.Background(), tk))
		tickets = append(tickets, tk)
	}

	found, err := r.Find(context.Background(), ticket.Criteria{AuthorID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, tickets[0].ID, found.ID)
}

func testCountByCriteria(t *testing.T, r ticket.Repository) {
	for _, tk := range []*ticket.Ticket{
		newTicket("c1", "alice", ticket.StatusOpen),
		newTicket("c1", "alice", ticket.StatusClosed),
		newTicket("c1", "bob", ticket.StatusOpen),
		newTicket("c2", "alice", ticket.StatusOpen),
	} {
		require.NoError(t, r.Save(context.Background(), tk))
	}

	tests := map[string]struct {
		c        ticket.Criteria
		expected int
	}{
		"All":                     {ticket.Criteria{}, 4},
		"Community":               {ticket.Criteria{CommunityID: "c1"}, 3},
		"OpenInCommunity":         {ticket.Criteria{CommunityID: "c1", Status: ticket.StatusOpen}, 2},
		"OpenByAuthorInCommunity": {ticket.Criteria{CommunityID: "c1", AuthorID: "alice", Status: ticket.StatusOpen}, 1},
		"NoMatch":                 {ticket.Criteria{CommunityID: "c3"}, 0},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			count, err := r.Count(context.Background(), tc.c)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, count)
		})
	}
}

func testDeleteRemovesMatchingTickets(t *testing.T, r ticket.Repository) {
	kept := newTicket("c1", "alice", ticket.StatusOpen)
	deleted := newTicket("c1", "bob", ticket.StatusOpen)
	require.NoError(t, r.Save(context.Background(), kept))
	require.NoError(t, r.Save(context.Background(), deleted))

	require.NoError(t, r.Delete(context.Background(), ticket.ByID(deleted.ID)))

	_, err := r.Find(context.Background(), ticket.ByID(deleted.ID))
	assert.True(t, errors.Is(err, ticket.ErrNotFound))

	count, err := r.Count(context.Background(), ticket.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, r.Delete(context.Background(), ticket.ByID(deleted.ID)))
}

func testDeleteRefusesEmptyCriteria(t *testing.T, r ticket.Repository) {
	require.NoError(t, r.Save(context.Background(), newTicket("c1", "alice", ticket.StatusOpen)))

	err := r.Delete(context.Background(), ticket.Criteria{})
	assert.True(t, errors.Is(err, ticket.ErrUnboundedCriteria))

	count, err := r.Count(context.Background(), ticket.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testClosedAtSurvivesRoundTrip(t *testing.T, r ticket.Repository) {
	tk := newTicket("c1", "alice", ticket.StatusOpen)
	require.NoError(t, r.Save(context.Background(), tk))

	closedAt := created.Add(time.Hour)
	tk.Status = ticket.StatusClosed
	tk.ClosedAt = &closedAt
	require.NoError(t, r.Save(context.Background(), tk))

	found, err := r.Find(context.Background(), ticket.ByID(tk.ID))
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusClosed, found.Status)
	if assert.NotNil(t, found.ClosedAt) {
		assert.True(t, closedAt.Equal(*found.ClosedAt))
	}
}

func testFindByChannelAfterProvisioned(t *testing.T, r ticket.Repository) {
	tk := newTicket("c1", "alice", ticket.StatusOpen)
	require.NoError(t, r.Save(context.Background(), tk))

	tk.ChannelID = "channel-7"
	require.NoError(t, r.Save(context.Background(), tk))

	found, err := r.Find(context.Background(), ticket.ByChannel("channel-7"))
	require.NoError(t, err)
	assert.Equal(t, tk.ID, found.ID)
}
