package ticket_test

import (
	"testing"
	"time"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonID(t *testing.T) {
	assert.Equal(t, "support:close:42", ticket.ButtonID(ticket.CloseAction, 42))
	assert.Equal(t, "support:self-assign:7", ticket.ButtonID(ticket.SelfAssignAction, 7))
	assert.Equal(t, "support:remove:1", ticket.ButtonID(ticket.RemoveAction, 1))
}

func TestRenderStatus(t *testing.T) {
	created := time.Date(2023, time.March, 4, 10, 30, 5, 0, time.UTC)

	tests := map[string]struct {
		ticket           ticket.Ticket
		expectedAssignee string
		expectedButtons  []modscot.Button
	}{
		"OpenUnassigned": {
			ticket:           ticket.Ticket{ID: 42, AuthorID: "alice", Title: "Cannot log in", Status: ticket.StatusOpen, CreatedAt: created},
			expectedAssignee: "Nobody",
			expectedButtons: []modscot.Button{
				{Label: "Close", Style: modscot.ButtonDanger, CustomID: "support:close:42"},
				{Label: "Take over", Style: modscot.ButtonPrimary, CustomID: "support:self-assign:42"},
			},
		},
		"OpenAssigned": {
			ticket:           ticket.Ticket{ID: 42, AuthorID: "alice", AssigneeID: "bob", Title: "Cannot log in", Status: ticket.StatusOpen, CreatedAt: created},
			expectedAssignee: "<@bob>",
			expectedButtons: []modscot.Button{
				{Label: "Close", Style: modscot.ButtonDanger, CustomID: "support:close:42"},
				{Label: "Take over", Style: modscot.ButtonPrimary, CustomID: "support:self-assign:42", Disabled: true},
			},
		},
		"Closed": {
			ticket:           ticket.Ticket{ID: 42, AuthorID: "alice", AssigneeID: "bob", Title: "Cannot log in", Status: ticket.StatusClosed, CreatedAt: created},
			expectedAssignee: "<@bob>",
			expectedButtons: []modscot.Button{
				{Label: "Remove channel", Style: modscot.ButtonDanger, CustomID: "support:remove:42"},
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			m := ticket.RenderStatus(&tc.ticket, time.UTC)

			require.Len(t, m.Embeds, 1)
			assert.Equal(t, "Ticket #42: Cannot log in", m.Embeds[0].Title)
			assert.Equal(t, []modscot.Field{
				{Name: "Author", Value: "<@alice>", Inline: true},
				{Name: "Status", Value: string(tc.ticket.Status), Inline: true},
				{Name: "Created", Value: "04.03.2023, 10:30:05", Inline: true},
				{Name: "Assignee", Value: tc.expectedAssignee, Inline: true},
			}, m.Embeds[0].Fields)
			assert.Equal(t, tc.expectedButtons, m.Buttons)
		})
	}
}

func TestRenderStatusInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	tk := &ticket.Ticket{ID: 1, Title: "Cannot log in", Status: ticket.StatusOpen, CreatedAt: time.Date(2023, time.March, 4, 23, 0, 0, 0, time.UTC)}

	m := ticket.RenderStatus(tk, loc)

	assert.Equal(t, "05.03.2023, 01:00:00", m.Embeds[0].Fields[2].Value)
}
