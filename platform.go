package modscot

import (
	"context"
)

// PrincipalKind is the kind of entity channel access is granted to
type PrincipalKind string

// Principal kinds
const (
	PrincipalEveryone PrincipalKind = "everyone"
	PrincipalRole     PrincipalKind = "role"
	PrincipalMember   PrincipalKind = "member"
)

// Principal identifies who a channel access rule applies to
type Principal struct {
	Kind PrincipalKind
	ID   string
}

// Everyone returns the principal covering every community member
func Everyone(communityID string) Principal {
	return Principal{Kind: PrincipalEveryone, ID: communityID}
}

// Role returns the principal for a role
func Role(roleID string) Principal {
	return Principal{Kind: PrincipalRole, ID: roleID}
}

// Member returns the principal for a single member
func Member(memberID string) Principal {
	return Principal{Kind: PrincipalMember, ID: memberID}
}

// Access is a channel permission overwrite
type Access struct {
	View  bool
	Send  bool
	React bool
}

// ChannelSpec describes a text channel to create
type ChannelSpec struct {
	CommunityID string
	ParentID    string
	Name        string
	Topic       string
	Position    int
}

// Presence is the status shown by the bot
type Presence struct {
	Status       string
	ActivityType string
	ActivityName string
	URL          string
}

// ChannelManager is implemented by platform clients able to manage channels, threads and their access rules
type ChannelManager interface {
	// CreateChannel creates a text channel and returns its identifier
	CreateChannel(ctx context.Context, spec ChannelSpec) (channelID string, err error)

	// FindChildChannel looks up a channel by name under a parent category
	FindChildChannel(ctx context.Context, parentID string, name string) (channelID string, found bool, err error)

	// ChannelExists returns true if the channel (or thread) still exists
	ChannelExists(ctx context.Context, channelID string) (exists bool, err error)

	// DeleteChannel deletes a channel
	DeleteChannel(ctx context.Context, channelID string) (err error)

	// SetChannelAccess creates or replaces the access rule of a principal on a channel
	SetChannelAccess(ctx context.Context, channelID string, p Principal, a Access) (err error)

	// ClearChannelAccess removes the access rule of a principal on a channel
	ClearChannelAccess(ctx context.Context, channelID string, p Principal) (err error)

	// CreateThread starts a public thread on a channel with a starter message
	CreateThread(ctx context.Context, channelID string, name string, starter string) (threadID string, err error)

	// SetThreadArchived archives or unarchives a thread
	SetThreadArchived(ctx context.Context, threadID string, archived bool) (err error)
}

// MessageManager is implemented by platform clients able to send, edit and delete messages
type MessageManager interface {
	// SendMessage sends a message to a channel and returns the new message's identifier
	SendMessage(ctx context.Context, channelID string, m *OutgoingMessage) (messageID string, err error)

	// EditMessage replaces the content of an existing message
	EditMessage(ctx context.Context, channelID string, messageID string, m *OutgoingMessage) (err error)

	// DeleteMessage deletes a message
	DeleteMessage(ctx context.Context, channelID string, messageID string) (err error)

	// FirstMessageID returns the identifier of the oldest message of a channel
	FirstMessageID(ctx context.Context, channelID string) (messageID string, err error)
}

// PresenceSetter is implemented by platform clients able to change the bot's presence
type PresenceSetter interface {
	SetPresence(ctx context.Context, p Presence) (err error)
}

// Platform encompasses every platform action used by plugins
type Platform interface {
	ChannelManager
	MessageManager
	PresenceSetter
}
