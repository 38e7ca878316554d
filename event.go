package modscot

import (
	"context"
)

// Kind identifies the type of an inbound event
type Kind string

// Event kinds
const (
	KindCommand       Kind = "command"
	KindButton        Kind = "button"
	KindFormSubmit    Kind = "formSubmit"
	KindMessageCreate Kind = "messageCreate"
	KindMessageUpdate Kind = "messageUpdate"
	KindMessageDelete Kind = "messageDelete"
	KindMemberUpdate  Kind = "memberUpdate"
)

// Permission is a platform permission held by an actor in a community
type Permission string

// Permissions checked by the built-in plugins
const (
	PermissionAdministrator   Permission = "Administrator"
	PermissionManageMessages  Permission = "ManageMessages"
	PermissionModerateMembers Permission = "ModerateMembers"
)

// Actor is the community member at the origin of an event
type Actor struct {
	ID          string
	DisplayName string
	Bot         bool
	RoleIDs     []string
	Permissions []Permission
}

// HasRole returns true if the actor holds the role
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}

	for _, r := range a.RoleIDs {
		if r == roleID {
			return true
		}
	}

	return false
}

// HasPermission returns true if the actor holds the permission. Administrators implicitly hold
// every permission
func (a Actor) HasPermission(p Permission) bool {
	for _, held := range a.Permissions {
		if held == p || held == PermissionAdministrator {
			return true
		}
	}

	return false
}

// Message is a snapshot of a chat message carried by message events
type Message struct {
	ID          string
	ChannelID   string
	AuthorID    string
	Content     string
	URL         string
	Attachments []Attachment
}

// Attachment describes a file attached to a message
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	URL         string
}

// Event is an inbound occurrence delivered by a Connector. ID uniquely identifies the occurrence
// (redeliveries carry the same ID) while CustomID is the hierarchical identifier used for routing.
// Non-interactive events (message and member events) have an empty CustomID
type Event struct {
	ID          string
	Kind        Kind
	CustomID    string
	CommunityID string
	ChannelID   string
	Actor       Actor

	// Fields holds form fields for form submissions and options for commands
	Fields map[string]string

	// Message is set on message events. Previous holds the prior version on updates and, on member
	// updates, Previous.Content/Message.Content hold the old and new display names
	Message  *Message
	Previous *Message

	Responder Responder
}

// Field returns the value of a form field or command option
func (e *Event) Field(name string) string {
	if e.Fields == nil {
		return ""
	}

	return e.Fields[name]
}

// Reply answers the actor through the event's responder. Events without a responder (non-interactive
// events) silently drop the answer
func (e *Event) Reply(ctx context.Context, a *Answer) error {
	if e.Responder == nil || a == nil {
		return nil
	}

	return e.Responder.Reply(ctx, a)
}

// ShowForm presents a form to the actor through the event's responder
func (e *Event) ShowForm(ctx context.Context, f *Form) error {
	if e.Responder == nil || f == nil {
		return nil
	}

	return e.Responder.ShowForm(ctx, f)
}

// Responder is implemented by connectors able to respond to the actor of an interactive event
type Responder interface {
	// Reply sends an answer to the actor
	Reply(ctx context.Context, a *Answer) error

	// ShowForm opens a form for the actor. Its submission comes back as a KindFormSubmit event
	// with the form's CustomID
	ShowForm(ctx context.Context, f *Form) error
}

// Connector is implemented by any value delivering platform events. The channel is closed when
// the connection terminates
type Connector interface {
	Events() <-chan *Event
}
