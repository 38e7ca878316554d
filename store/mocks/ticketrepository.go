package mocks

import (
	"context"

	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/mock"
)

// TicketRepository is a mock of ticket.Repository
type TicketRepository struct {
	mock.Mock
}

// Find mocks an implementation of Find
func (mr *TicketRepository) Find(ctx context.Context, c ticket.Criteria) (t *ticket.Ticket, err error) {
	args := mr.Called(ctx, c)

	if found, ok := args.Get(0).(*ticket.Ticket); ok {
		t = found
	}

	return t, args.Error(1)
}

// Count mocks an implementation of Count
func (mr *TicketRepository) Count(ctx context.Context, c ticket.Criteria) (count int, err error) {
	args := mr.Called(ctx, c)

	return args.Int(0), args.Error(1)
}

// Save mocks an implementation of Save
func (mr *TicketRepository) Save(ctx context.Context, t *ticket.Ticket) (err error) {
	args := mr.Called(ctx, t)

	return args.Error(0)
}

// Delete mocks an implementation of Delete
func (mr *TicketRepository) Delete(ctx context.Context, c ticket.Criteria) (err error) {
	args := mr.Called(ctx, c)

	return args.Error(0)
}
