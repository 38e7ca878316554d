package ticket

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/customid"
)

// Identifiers of the ticket buttons. A button's identifier is the action followed by the ticket id
// (i.e. support:close:42)
const (
	Namespace        = "support"
	CloseAction      = "close"
	SelfAssignAction = "self-assign"
	RemoveAction     = "remove"
	CreateAction     = "create"
)

const (
	createdAtLayout = "02.01.2006, 15:04:05"
	nobody          = "Nobody"
)

// ButtonID returns the identifier of a ticket action button
func ButtonID(action string, ticketID int64) string {
	// Neither the action names nor a formatted integer contain the separator
	id, _ := customid.Append(customid.Build(Namespace, action), strconv.FormatInt(ticketID, 10))
	return id
}

// RenderStatus renders the status view of a ticket. The rendering only depends on the ticket's
// fields: open tickets offer closing and taking over (disabled once assigned) while closed tickets
// only offer removing the channel
func RenderStatus(t *Ticket, loc *time.Location) *modscot.OutgoingMessage {
	if loc == nil {
		loc = time.UTC
	}

	assignee := nobody
	if t.IsAssigned() {
		assignee = modscot.Mention(t.AssigneeID)
	}

	embed := modscot.Embed{
		Title:       fmt.Sprintf("Ticket #%d: %s", t.ID, t.Title),
		Description: t.Description,
		Fields: []modscot.Field{
			{Name: "Author", Value: modscot.Mention(t.AuthorID), Inline: true},
			{Name: "Status", Value: string(t.Status), Inline: true},
			{Name: "Created", Value: t.CreatedAt.In(loc).Format(createdAtLayout), Inline: true},
			{Name: "Assignee", Value: assignee, Inline: true},
		},
	}

	return &modscot.OutgoingMessage{Embeds: []modscot.Embed{embed}, Buttons: statusButtons(t)}
}

func statusButtons(t *Ticket) []modscot.Button {
	switch t.Status {
	case StatusClosed:
		return []modscot.Button{
			{Label: "Remove channel", Style: modscot.ButtonDanger, CustomID: ButtonID(RemoveAction, t.ID)},
		}
	case StatusOpen:
		return []modscot.Button{
			{Label: "Close", Style: modscot.ButtonDanger, CustomID: ButtonID(CloseAction, t.ID)},
			{Label: "Take over", Style: modscot.ButtonPrimary, CustomID: ButtonID(SelfAssignAction, t.ID), Disabled: t.IsAssigned()},
		}
	}

	return nil
}
