package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexandre-normand/modscot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type channel struct {
	spec     modscot.ChannelSpec
	messages []string
}

// Platform is a modscot.Platform keeping channels in memory and writing every action to an Output
type Platform struct {
	mu       sync.Mutex
	channels map[string]*channel
	out      *Output
	logger   *zap.Logger
}

// NewPlatform returns a platform writing its actions to out
func NewPlatform(out *Output, logger *zap.Logger) (p *Platform) {
	return &Platform{channels: make(map[string]*channel), out: out, logger: logger}
}

func (p *Platform) write(r Record) error {
	p.logger.Debug("Platform action", zap.String("type", r.Type), zap.String("channelID", r.ChannelID), zap.String("messageID", r.MessageID))
	return p.out.Write(r)
}

func (p *Platform) channel(channelID string) (c *channel, err error) {
	c, ok := p.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("Unknown channel [%s]", channelID)
	}

	return c, nil
}

// CreateChannel implements modscot.ChannelManager
func (p *Platform) CreateChannel(ctx context.Context, spec modscot.ChannelSpec) (channelID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	channelID = uuid.NewString()
	p.channels[channelID] = &channel{spec: spec}

	return channelID, p.write(Record{Type: RecordCreateChannel, ChannelID: channelID, Payload: spec})
}

// FindChildChannel implements modscot.ChannelManager
func (p *Platform) FindChildChannel(ctx context.Context, parentID string, name string) (channelID string, found bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, c := range p.channels {
		if c.spec.ParentID == parentID && c.spec.Name == name {
			return id, true, nil
		}
	}

	return "", false, nil
}

// ChannelExists implements modscot.ChannelManager
func (p *Platform) ChannelExists(ctx context.Context, channelID string) (exists bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, exists = p.channels[channelID]

	return exists, nil
}

// DeleteChannel implements modscot.ChannelManager
func (p *Platform) DeleteChannel(ctx context.Context, channelID string) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err = p.channel(channelID); err != nil {
		return err
	}

	delete(p.channels, channelID)

	return p.write(Record{Type: RecordDeleteChannel, ChannelID: channelID})
}

type accessPayload struct {
	Principal modscot.Principal `json:"principal"`
	Access    *modscot.Access   `json:"access,omitempty"`
}

// SetChannelAccess implements modscot.ChannelManager
func (p *Platform) SetChannelAccess(ctx context.Context, channelID string, pr modscot.Principal, a modscot.Access) (err error) {
	return p.write(Record{Type: RecordSetChannelAccess, ChannelID: channelID, Payload: accessPayload{Principal: pr, Access: &a}})
}

// ClearChannelAccess implements modscot.ChannelManager
func (p *Platform) ClearChannelAccess(ctx context.Context, channelID string, pr modscot.Principal) (err error) {
	return p.write(Record{Type: RecordClearChannelAccess, ChannelID: channelID, Payload: accessPayload{Principal: pr}})
}

type threadPayload struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
	Starter  string `json:"starter"`
}

// CreateThread implements modscot.ChannelManager
func (p *Platform) CreateThread(ctx context.Context, channelID string, name string, starter string) (threadID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	parent, err := p.channel(channelID)
	if err != nil {
		return "", err
	}

	threadID = uuid.NewString()
	p.channels[threadID] = &channel{spec: modscot.ChannelSpec{CommunityID: parent.spec.CommunityID, ParentID: channelID, Name: name}, messages: []string{uuid.NewString()}}

	return threadID, p.write(Record{Type: RecordCreateThread, ChannelID: threadID, Payload: threadPayload{ParentID: channelID, Name: name, Starter: starter}})
}

// SetThreadArchived implements modscot.ChannelManager
func (p *Platform) SetThreadArchived(ctx context.Context, threadID string, archived bool) (err error) {
	return p.write(Record{Type: RecordSetThreadArchived, ChannelID: threadID, Payload: map[string]bool{"archived": archived}})
}

// SendMessage implements modscot.MessageManager. Channels created outside of the platform are
// tracked on their first message
func (p *Platform) SendMessage(ctx context.Context, channelID string, m *modscot.OutgoingMessage) (messageID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.channels[channelID]
	if !ok {
		c = &channel{}
		p.channels[channelID] = c
	}

	messageID = uuid.NewString()
	c.messages = append(c.messages, messageID)

	return messageID, p.write(Record{Type: RecordSendMessage, ChannelID: channelID, MessageID: messageID, Payload: m})
}

// EditMessage implements modscot.MessageManager
func (p *Platform) EditMessage(ctx context.Context, channelID string, messageID string, m *modscot.OutgoingMessage) (err error) {
	return p.write(Record{Type: RecordEditMessage, ChannelID: channelID, MessageID: messageID, Payload: m})
}

// DeleteMessage implements modscot.MessageManager
func (p *Platform) DeleteMessage(ctx context.Context, channelID string, messageID string) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.channels[channelID]; ok {
		for i, id := range c.messages {
			if id == messageID {
				c.messages = append(c.messages[:i], c.messages[i+1:]...)
				break
			}
		}
	}

	return p.write(Record{Type: RecordDeleteMessage, ChannelID: channelID, MessageID: messageID})
}

// FirstMessageID implements modscot.MessageManager
func (p *Platform) FirstMessageID(ctx context.Context, channelID string) (messageID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(channelID)
	if err != nil {
		return "", err
	}

	if len(c.messages) == 0 {
		return "", fmt.Errorf("No message in channel [%s]", channelID)
	}

	return c.messages[0], nil
}

// SetPresence implements modscot.PresenceSetter
func (p *Platform) SetPresence(ctx context.Context, presence modscot.Presence) (err error) {
	return p.write(Record{Type: RecordSetPresence, Payload: presence})
}
