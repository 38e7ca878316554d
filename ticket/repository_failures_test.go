package ticket_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/store/mocks"
	"github.com/alexandre-normand/modscot/test/capture"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockedWorkflow(t *testing.T, repo *mocks.TicketRepository, platform *capture.Platform) *ticket.Workflow {
	v := config.NewViperWithDefaults()
	v.Set(config.TimeLocationKey, "UTC")

	w, err := ticket.NewWorkflow(v, repo, platform, fakeSettings{modRoleID: modRoleID, categoryID: categoryID}, modscot.NewSLogger(zap.NewNop(), false), ticket.OptionClock(func() time.Time { return now }))
	require.NoError(t, err)

	return w
}

func TestCreateRepositoryFailures(t *testing.T) {
	tests := map[string]struct {
		setup       func(repo *mocks.TicketRepository, platform *capture.Platform)
		expectedErr string
	}{
		"CountFails": {
			setup: func(repo *mocks.TicketRepository, platform *capture.Platform) {
				repo.On("Count", mock.Anything, mock.Anything).Return(0, fmt.Errorf("connection reset"))
			},
			expectedErr: "Error counting open tickets of [alice]: connection reset",
		},
		"SaveFails": {
			setup: func(repo *mocks.TicketRepository, platform *capture.Platform) {
				repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
				repo.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))
			},
			expectedErr: "Error saving new ticket: disk full",
		},
		"CompensationFails": {
			setup: func(repo *mocks.TicketRepository, platform *capture.Platform) {
				repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
				repo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					args.Get(1).(*ticket.Ticket).ID = 7
				}).Return(nil)
				repo.On("Delete", mock.Anything, ticket.ByID(7)).Return(fmt.Errorf("disk full"))
				platform.FailOn["CreateChannel"] = fmt.Errorf("platform unavailable")
			},
			expectedErr: "Error provisioning channel of ticket [7]",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			repo := new(mocks.TicketRepository)
			platform := capture.NewPlatform()
			tc.setup(repo, platform)

			_, err := newMockedWorkflow(t, repo, platform).Create(context.Background(), ticket.Request{CommunityID: communityID, Author: alice, Title: "Cannot log in"})

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.expectedErr)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCloseSaveFailure(t *testing.T) {
	repo := new(mocks.TicketRepository)
	repo.On("Find", mock.Anything, ticket.ByID(3)).Return(&ticket.Ticket{ID: 3, CommunityID: communityID, AuthorID: "alice", Status: ticket.StatusOpen, ChannelID: "channel-3"}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))

	platform := capture.NewPlatform()
	platform.AddChannel("channel-3", modscot.ChannelSpec{CommunityID: communityID, ParentID: categoryID, Name: "ticket-3-alice"})

	_, err := newMockedWorkflow(t, repo, platform).Close(context.Background(), 3, alice)

	assert.EqualError(t, err, "Error saving ticket [3]: disk full")
}
