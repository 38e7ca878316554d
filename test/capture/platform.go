// Package capture provides fakes of modscot's external collaborators that record what they are
// asked to do so tests can assert on it
package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexandre-normand/modscot"
)

// Channel is a channel (or thread) created on the recording platform
type Channel struct {
	ID       string
	Spec     modscot.ChannelSpec
	ThreadOf string
	Archived bool
	Access   map[modscot.Principal]modscot.Access
	Messages []*Message
}

// Message is a message sent to the recording platform
type Message struct {
	ID        string
	ChannelID string
	modscot.OutgoingMessage
	Edits int
}

// Platform is a modscot.Platform recording channels, access rules, messages and presences in memory.
// Errors can be injected per method name with FailOn
type Platform struct {
	sync.Mutex

	Channels        map[string]*Channel
	DeletedChannels []string
	DeletedMessages []string
	Presences       []modscot.Presence
	FailOn          map[string]error

	nextID int
}

// NewPlatform returns a new empty recording platform
func NewPlatform() (p *Platform) {
	p = new(Platform)
	p.Channels = make(map[string]*Channel)
	p.FailOn = make(map[string]error)

	return p
}

// AddChannel registers a pre-existing channel and returns it
func (p *Platform) AddChannel(id string, spec modscot.ChannelSpec) *Channel {
	p.Lock()
	defer p.Unlock()

	return p.addChannel(id, spec)
}

func (p *Platform) addChannel(id string, spec modscot.ChannelSpec) *Channel {
	c := &Channel{ID: id, Spec: spec, Access: make(map[modscot.Principal]modscot.Access), Messages: make([]*Message, 0)}
	p.Channels[id] = c

	return c
}

func (p *Platform) newID(prefix string) string {
	p.nextID++
	return fmt.Sprintf("%s-%d", prefix, p.nextID)
}

func (p *Platform) fail(method string) error {
	return p.FailOn[method]
}

func (p *Platform) channel(channelID string) (c *Channel, err error) {
	c, ok := p.Channels[channelID]
	if !ok {
		return nil, fmt.Errorf("Unknown channel [%s]", channelID)
	}

	return c, nil
}

// Channel returns the channel with the given id, nil if it doesn't exist
func (p *Platform) Channel(channelID string) *Channel {
	p.Lock()
	defer p.Unlock()

	return p.Channels[channelID]
}

// ChannelNamed returns the first channel with the given name, nil if none exists
func (p *Platform) ChannelNamed(name string) *Channel {
	p.Lock()
	defer p.Unlock()

	for _, c := range p.Channels {
		if c.Spec.Name == name {
			return c
		}
	}

	return nil
}

// MessagesIn returns the messages of a channel, in order
func (p *Platform) MessagesIn(channelID string) (msgs []Message) {
	p.Lock()
	defer p.Unlock()

	msgs = make([]Message, 0)
	if c, ok := p.Channels[channelID]; ok {
		for _, m := range c.Messages {
			msgs = append(msgs, *m)
		}
	}

	return msgs
}

// CreateChannel implements modscot.ChannelManager
func (p *Platform) CreateChannel(ctx context.Context, spec modscot.ChannelSpec) (channelID string, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("CreateChannel"); err != nil {
		return "", err
	}

	c := p.addChannel(p.newID("channel"), spec)

	return c.ID, nil
}

// FindChildChannel implements modscot.ChannelManager
func (p *Platform) FindChildChannel(ctx context.Context, parentID string, name string) (channelID string, found bool, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("FindChildChannel"); err != nil {
		return "", false, err
	}

	for _, c := range p.Channels {
		if c.Spec.ParentID == parentID && c.Spec.Name == name {
			return c.ID, true, nil
		}
	}

	return "", false, nil
}

// ChannelExists implements modscot.ChannelManager
func (p *Platform) ChannelExists(ctx context.Context, channelID string) (exists bool, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("ChannelExists"); err != nil {
		return false, err
	}

	_, exists = p.Channels[channelID]

	return exists, nil
}

// DeleteChannel implements modscot.ChannelManager
func (p *Platform) DeleteChannel(ctx context.Context, channelID string) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("DeleteChannel"); err != nil {
		return err
	}

	if _, err = p.channel(channelID); err != nil {
		return err
	}

	delete(p.Channels, channelID)
	p.DeletedChannels = append(p.DeletedChannels, channelID)

	return nil
}

// SetChannelAccess implements modscot.ChannelManager
func (p *Platform) SetChannelAccess(ctx context.Context, channelID string, pr modscot.Principal, a modscot.Access) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("SetChannelAccess"); err != nil {
		return err
	}

	c, err := p.channel(channelID)
	if err != nil {
		return err
	}

	c.Access[pr] = a

	return nil
}

// ClearChannelAccess implements modscot.ChannelManager
func (p *Platform) ClearChannelAccess(ctx context.Context, channelID string, pr modscot.Principal) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("ClearChannelAccess"); err != nil {
		return err
	}

	c, err := p.channel(channelID)
	if err != nil {
		return err
	}

	delete(c.Access, pr)

	return nil
}

// CreateThread implements modscot.ChannelManager
func (p *Platform) CreateThread(ctx context.Context, channelID string, name string, starter string) (threadID string, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("CreateThread"); err != nil {
		return "", err
	}

	parent, err := p.channel(channelID)
	if err != nil {
		return "", err
	}

	t := p.addChannel(p.newID("thread"), modscot.ChannelSpec{CommunityID: parent.Spec.CommunityID, ParentID: channelID, Name: name})
	t.ThreadOf = channelID
	t.Messages = append(t.Messages, &Message{ID: p.newID("message"), ChannelID: t.ID, OutgoingMessage: modscot.OutgoingMessage{Content: starter}})

	return t.ID, nil
}

// SetThreadArchived implements modscot.ChannelManager
func (p *Platform) SetThreadArchived(ctx context.Context, threadID string, archived bool) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("SetThreadArchived"); err != nil {
		return err
	}

	t, err := p.channel(threadID)
	if err != nil {
		return err
	}

	t.Archived = archived

	return nil
}

// SendMessage implements modscot.MessageManager. Messages sent to unknown channels create the channel
func (p *Platform) SendMessage(ctx context.Context, channelID string, m *modscot.OutgoingMessage) (messageID string, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("SendMessage"); err != nil {
		return "", err
	}

	c, ok := p.Channels[channelID]
	if !ok {
		c = p.addChannel(channelID, modscot.ChannelSpec{})
	}

	sent := &Message{ID: p.newID("message"), ChannelID: channelID, OutgoingMessage: *m}
	c.Messages = append(c.Messages, sent)

	return sent.ID, nil
}

// EditMessage implements modscot.MessageManager
func (p *Platform) EditMessage(ctx context.Context, channelID string, messageID string, m *modscot.OutgoingMessage) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("EditMessage"); err != nil {
		return err
	}

	c, err := p.channel(channelID)
	if err != nil {
		return err
	}

	for _, existing := range c.Messages {
		if existing.ID == messageID {
			existing.OutgoingMessage = *m
			existing.Edits++

			return nil
		}
	}

	return fmt.Errorf("Unknown message [%s] in channel [%s]", messageID, channelID)
}

// DeleteMessage implements modscot.MessageManager
func (p *Platform) DeleteMessage(ctx context.Context, channelID string, messageID string) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("DeleteMessage"); err != nil {
		return err
	}

	if c, ok := p.Channels[channelID]; ok {
		for i, existing := range c.Messages {
			if existing.ID == messageID {
				c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
				break
			}
		}
	}

	p.DeletedMessages = append(p.DeletedMessages, channelID+"/"+messageID)

	return nil
}

// FirstMessageID implements modscot.MessageManager
func (p *Platform) FirstMessageID(ctx context.Context, channelID string) (messageID string, err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("FirstMessageID"); err != nil {
		return "", err
	}

	c, err := p.channel(channelID)
	if err != nil {
		return "", err
	}

	if len(c.Messages) == 0 {
		return "", fmt.Errorf("No message in channel [%s]", channelID)
	}

	return c.Messages[0].ID, nil
}

// SetPresence implements modscot.PresenceSetter
func (p *Platform) SetPresence(ctx context.Context, presence modscot.Presence) (err error) {
	p.Lock()
	defer p.Unlock()

	if err = p.fail("SetPresence"); err != nil {
		return err
	}

	p.Presences = append(p.Presences, presence)

	return nil
}
