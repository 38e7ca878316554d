// Package plugins provides the plugins of a modscot instance: support tickets, suspicious account
// surveillance, message moderation and presence cycling
package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/actions"
	"github.com/alexandre-normand/modscot/customid"
	"github.com/alexandre-normand/modscot/plugin"
	"github.com/alexandre-normand/modscot/settings"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/pkg/errors"
)

const (
	// SupportPluginName holds the identifying name of the support plugin
	SupportPluginName = "support"

	createTicketMessageKey     = "support-create-ticket-message"
	defaultCreateTicketContent = "Open a support request:"
	introChannelName           = "support"
	introChannelTopic          = "Create support requests here"

	titleField       = "title"
	descriptionField = "description"
	contentField     = "content"
	channelOption    = "channel"
	userOption       = "user"

	// editInFormMarker given as content opens a form with the current content
	editInFormMarker = "-"
)

// Support holds the plugin data for the support plugin
type Support struct {
	modscot.Plugin

	workflow *ticket.Workflow
	settings *settings.Settings
}

var (
	administrator  = modscot.HasPermission(modscot.PermissionAdministrator)
	manageMessages = modscot.HasPermission(modscot.PermissionManageMessages)
)

// NewSupport creates a new instance of the support plugin driving tickets through the workflow
func NewSupport(workflow *ticket.Workflow, s *settings.Settings) (p *Support) {
	p = new(Support)
	p.workflow = workflow
	p.settings = s

	p.Plugin = *plugin.New(SupportPluginName).
		WithNamespace(ticket.Namespace).
		WithHandler(actions.NewCommand().
			WithSubID("message").
			WithCapability(administrator).
			WithUsage("support message <content>").
			WithDescription("Edit the message offering to open a ticket. Use `-` to edit it in a form").
			WithHandler(p.editCreateTicketMessage).
			Build()).
		WithHandler(actions.NewFormSubmit().
			WithSubID("message").
			WithCapability(administrator).
			WithHandler(p.submitCreateTicketMessage).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("channel").
			WithCapability(administrator).
			WithUsage("support channel <category>").
			WithDescription("Set the category of support channels and create the support channel in it").
			WithHandler(p.setupSupportCategory).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("add").
			WithCapability(manageMessages).
			WithUsage("support add <member>").
			WithDescription("Add a member to the ticket of the current channel").
			WithHandler(p.addParticipant).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("remove").
			WithCapability(manageMessages).
			WithUsage("support remove <member>").
			WithDescription("Remove a member from the ticket of the current channel").
			WithHandler(p.removeParticipant).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("assign").
			WithCapability(manageMessages).
			WithUsage("support assign <member>").
			WithDescription("Make a member responsible for the ticket of the current channel").
			WithHandler(p.assign).
			Build()).
		WithHandler(actions.NewButton().
			WithSubID(ticket.CreateAction).
			WithHandler(p.showCreateTicketForm).
			Build()).
		WithHandler(actions.NewFormSubmit().
			WithSubID(ticket.CreateAction).
			WithHandler(p.createTicket).
			Build()).
		WithHandler(actions.NewButton().
			WithSubID(ticket.CloseAction).
			WithHandler(p.closeTicket).
			Build()).
		WithHandler(actions.NewButton().
			WithSubID(ticket.SelfAssignAction).
			WithHandler(p.selfAssign).
			Build()).
		WithHandler(actions.NewButton().
			WithSubID(ticket.RemoveAction).
			WithCapability(manageMessages).
			WithHandler(p.removeTicketChannel).
			Build()).
		Build()

	return p
}

func ephemeral(text string) *modscot.Answer {
	return &modscot.Answer{Text: text, Options: []modscot.AnswerOption{modscot.AnswerEphemeral()}}
}

// asUserError turns the workflow errors actors can do something about into user errors
func asUserError(err error) error {
	var qe *ticket.QuotaError

	switch {
	case errors.As(err, &qe) && qe.Community:
		return modscot.NewUserError(err, "Too many support requests are open already! Please give us some time or reach out to the moderation team directly.")
	case errors.As(err, &qe):
		return modscot.NewUserError(err, "You can't open more than %d support requests at once.", qe.Limit)
	case errors.Is(err, ticket.ErrInvalidTitle):
		return modscot.NewUserError(err, "The title must be between %d and %d characters long.", ticket.MinTitleLength, ticket.MaxTitleLength)
	case errors.Is(err, ticket.ErrNotConfigured):
		return modscot.NewUserError(err, "Support isn't set up in this community yet.")
	case errors.Is(err, ticket.ErrSelfAssign):
		return modscot.NewUserError(err, "You can't assign your own ticket to yourself.")
	case errors.Is(err, modscot.ErrForbidden):
		return modscot.NewUserError(err, "Only the author of the ticket and moderators can do this.")
	}

	return err
}

// ticketArg returns the ticket id carried by a ticket button. Ids below 1 never resolve to a ticket
func ticketArg(args []string) (ticketID int64, err error) {
	if len(args) == 0 {
		return 0, errors.New("Missing ticket id")
	}

	if ticketID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, errors.Wrapf(err, "Invalid ticket id [%s]", args[0])
	}

	if ticketID < 1 {
		return 0, errors.Wrapf(ticket.ErrNotFound, "ticket [%d]", ticketID)
	}

	return ticketID, nil
}

func (p *Support) editCreateTicketMessage(ctx context.Context, e *modscot.Event, args []string) (err error) {
	content := strings.TrimSpace(e.Field(contentField))

	if content == editInFormMarker {
		m, err := p.settings.ManagedMessage(e.CommunityID, createTicketMessageKey)
		if err != nil {
			return err
		}

		return e.ShowForm(ctx, &modscot.Form{
			CustomID: customid.Build(ticket.Namespace, "message"),
			Title:    "Edit the support message",
			Inputs: []modscot.TextInput{
				{CustomID: contentField, Label: "Content", Style: modscot.TextInputParagraph, Required: true, Placeholder: "Create a support request...", Value: m.Content},
			},
		})
	}

	if content == "" {
		return modscot.NewUserError(nil, "You need to provide a text!")
	}

	return p.updateCreateTicketMessage(ctx, e, content)
}

func (p *Support) submitCreateTicketMessage(ctx context.Context, e *modscot.Event, args []string) (err error) {
	content := strings.TrimSpace(e.Field(contentField))
	if content == "" {
		return modscot.NewUserError(nil, "You need to provide a text!")
	}

	return p.updateCreateTicketMessage(ctx, e, content)
}

func createTicketMessage(content string) *modscot.OutgoingMessage {
	if content == "" {
		content = defaultCreateTicketContent
	}

	return &modscot.OutgoingMessage{
		Content: content,
		Buttons: []modscot.Button{{Label: "Open a support ticket", Style: modscot.ButtonPrimary, CustomID: customid.Build(ticket.Namespace, ticket.CreateAction)}},
	}
}

// updateCreateTicketMessage saves the new content and edits the posted message, if any
func (p *Support) updateCreateTicketMessage(ctx context.Context, e *modscot.Event, content string) (err error) {
	m, err := p.settings.ManagedMessage(e.CommunityID, createTicketMessageKey)
	if err != nil {
		return err
	}

	m.Content = content
	if err = p.settings.SetManagedMessage(e.CommunityID, createTicketMessageKey, m); err != nil {
		return err
	}

	if m.IsPosted() {
		if err = p.Platform.EditMessage(ctx, m.ChannelID, m.MessageID, createTicketMessage(content)); err != nil {
			return errors.Wrapf(err, "Error editing the create ticket message of community [%s]", e.CommunityID)
		}
	}

	return e.Reply(ctx, ephemeral("Message updated!"))
}

// postCreateTicketMessage posts the create ticket message in the channel, replacing the one posted before
func (p *Support) postCreateTicketMessage(ctx context.Context, communityID string, channelID string) (err error) {
	m, err := p.settings.ManagedMessage(communityID, createTicketMessageKey)
	if err != nil {
		return err
	}

	if m.IsPosted() {
		if derr := p.Platform.DeleteMessage(ctx, m.ChannelID, m.MessageID); derr != nil {
			p.Logger.Printf("Error deleting previous create ticket message [%s] of community [%s]: %v", m.MessageID, communityID, derr)
		}
	}

	if m.MessageID, err = p.Platform.SendMessage(ctx, channelID, createTicketMessage(m.Content)); err != nil {
		return errors.Wrapf(err, "Error posting the create ticket message in [%s]", channelID)
	}

	m.ChannelID = channelID

	return p.settings.SetManagedMessage(communityID, createTicketMessageKey, m)
}

// setupSupportCategory makes the category the parent of ticket channels and makes sure its
// read-only intro channel exists
func (p *Support) setupSupportCategory(ctx context.Context, e *modscot.Event, args []string) (err error) {
	categoryID := e.Field(channelOption)
	if categoryID == "" {
		return modscot.NewUserError(nil, "You need to provide a channel category!")
	}

	introID, found, err := p.Platform.FindChildChannel(ctx, categoryID, introChannelName)
	if err != nil {
		return errors.Wrapf(err, "Error looking up the support channel of category [%s]", categoryID)
	}

	if !found {
		if introID, err = p.createIntroChannel(ctx, e.CommunityID, categoryID); err != nil {
			return err
		}
	}

	if err = p.settings.SetSupportCategoryID(e.CommunityID, categoryID); err != nil {
		return err
	}

	if err = p.settings.SetSupportChannelID(e.CommunityID, introID); err != nil {
		return err
	}

	return e.Reply(ctx, ephemeral(fmt.Sprintf("%s was set up as the support channel", modscot.ChannelMention(introID))))
}

func (p *Support) createIntroChannel(ctx context.Context, communityID string, categoryID string) (channelID string, err error) {
	channelID, err = p.Platform.CreateChannel(ctx, modscot.ChannelSpec{CommunityID: communityID, ParentID: categoryID, Name: introChannelName, Topic: introChannelTopic, Position: 0})
	if err != nil {
		return "", errors.Wrapf(err, "Error creating the support channel in category [%s]", categoryID)
	}

	if err = p.Platform.SetChannelAccess(ctx, channelID, modscot.Everyone(communityID), modscot.Access{View: true}); err != nil {
		return "", errors.Wrapf(err, "Error restricting the support channel [%s]", channelID)
	}

	return channelID, p.postCreateTicketMessage(ctx, communityID, channelID)
}

func (p *Support) addParticipant(ctx context.Context, e *modscot.Event, args []string) (err error) {
	memberID := e.Field(userOption)
	if memberID == "" {
		return modscot.NewUserError(nil, "You need to provide a member!")
	}

	if _, err = p.workflow.AddParticipant(ctx, e.ChannelID, e.Actor, memberID); err != nil {
		return asTicketContextError(err)
	}

	return e.Reply(ctx, ephemeral("Ticket updated."))
}

func (p *Support) removeParticipant(ctx context.Context, e *modscot.Event, args []string) (err error) {
	memberID := e.Field(userOption)
	if memberID == "" {
		return modscot.NewUserError(nil, "You need to provide a member!")
	}

	if _, err = p.workflow.RemoveParticipant(ctx, e.ChannelID, e.Actor, memberID); err != nil {
		return asTicketContextError(err)
	}

	return e.Reply(ctx, ephemeral("Ticket updated."))
}

func (p *Support) assign(ctx context.Context, e *modscot.Event, args []string) (err error) {
	memberID := e.Field(userOption)
	if memberID == "" {
		return modscot.NewUserError(nil, "You need to provide a member!")
	}

	if _, err = p.workflow.Assign(ctx, e.ChannelID, e.Actor, memberID); err != nil {
		return asTicketContextError(err)
	}

	return e.Reply(ctx, ephemeral("Ticket updated."))
}

// asTicketContextError answers commands used outside of a ticket channel
func asTicketContextError(err error) error {
	if errors.Is(err, ticket.ErrNotFound) {
		return modscot.NewUserError(err, "Please only use this command within a ticket.")
	}

	return asUserError(err)
}

func (p *Support) showCreateTicketForm(ctx context.Context, e *modscot.Event, args []string) (err error) {
	return e.ShowForm(ctx, &modscot.Form{
		CustomID: customid.Build(ticket.Namespace, ticket.CreateAction),
		Title:    "Create a support request",
		Inputs: []modscot.TextInput{
			{CustomID: titleField, Label: "Title", Style: modscot.TextInputShort, Required: true, MinLength: ticket.MinTitleLength, MaxLength: ticket.MaxTitleLength, Placeholder: "I have a problem"},
			{CustomID: descriptionField, Label: "Description", Style: modscot.TextInputParagraph, Placeholder: "I have a problem with...\nI want to report a member...\nI found a bug..."},
		},
	})
}

func (p *Support) createTicket(ctx context.Context, e *modscot.Event, args []string) (err error) {
	t, err := p.workflow.Create(ctx, ticket.Request{
		CommunityID: e.CommunityID,
		Author:      e.Actor,
		Title:       e.Field(titleField),
		Description: e.Field(descriptionField),
	})
	if err != nil {
		return asUserError(err)
	}

	return e.Reply(ctx, ephemeral(fmt.Sprintf("Support ticket created: %s", modscot.ChannelMention(t.ChannelID))))
}

// asMissingTicketError answers clicks on buttons of tickets that are gone
func asMissingTicketError(err error) error {
	if errors.Is(err, ticket.ErrNotFound) {
		return modscot.NewUserError(err, "This ticket doesn't exist anymore.")
	}

	return asUserError(err)
}

func (p *Support) closeTicket(ctx context.Context, e *modscot.Event, args []string) (err error) {
	ticketID, err := ticketArg(args)
	if err != nil {
		return asMissingTicketError(err)
	}

	_, err = p.workflow.Close(ctx, ticketID, e.Actor)

	return asMissingTicketError(err)
}

func (p *Support) selfAssign(ctx context.Context, e *modscot.Event, args []string) (err error) {
	ticketID, err := ticketArg(args)
	if err != nil {
		return asMissingTicketError(err)
	}

	_, err = p.workflow.SelfAssign(ctx, ticketID, e.Actor)

	return asMissingTicketError(err)
}

func (p *Support) removeTicketChannel(ctx context.Context, e *modscot.Event, args []string) (err error) {
	ticketID, err := ticketArg(args)
	if err != nil {
		return asMissingTicketError(err)
	}

	_, err = p.workflow.Remove(ctx, ticketID)

	return asMissingTicketError(err)
}
