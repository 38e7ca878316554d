package console

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/alexandre-normand/modscot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxLineSize = 1024 * 1024

type inboundActor struct {
	ID          string               `json:"id"`
	DisplayName string               `json:"displayName"`
	Bot         bool                 `json:"bot"`
	RoleIDs     []string             `json:"roleIds"`
	Permissions []modscot.Permission `json:"permissions"`
}

type inboundMessage struct {
	ID          string               `json:"id"`
	ChannelID   string               `json:"channelId"`
	AuthorID    string               `json:"authorId"`
	Content     string               `json:"content"`
	URL         string               `json:"url"`
	Attachments []modscot.Attachment `json:"attachments"`
}

func (m *inboundMessage) toMessage() *modscot.Message {
	if m == nil {
		return nil
	}

	return &modscot.Message{ID: m.ID, ChannelID: m.ChannelID, AuthorID: m.AuthorID, Content: m.Content, URL: m.URL, Attachments: m.Attachments}
}

// inboundEvent is the JSON representation of an event line
type inboundEvent struct {
	ID          string            `json:"id"`
	Kind        modscot.Kind      `json:"kind"`
	CustomID    string            `json:"customId"`
	CommunityID string            `json:"communityId"`
	ChannelID   string            `json:"channelId"`
	Actor       inboundActor      `json:"actor"`
	Fields      map[string]string `json:"fields"`
	Message     *inboundMessage   `json:"message"`
	Previous    *inboundMessage   `json:"previous"`
}

// Connector is a modscot.Connector decoding one event per line
type Connector struct {
	in     io.Reader
	out    *Output
	logger *zap.Logger
	events chan *modscot.Event
}

// NewConnector returns a connector reading events from in and writing answers to out. Call Start
// to begin reading
func NewConnector(in io.Reader, out *Output, logger *zap.Logger) (c *Connector) {
	return &Connector{in: in, out: out, logger: logger, events: make(chan *modscot.Event)}
}

// Events implements modscot.Connector
func (c *Connector) Events() <-chan *modscot.Event {
	return c.events
}

// Start reads lines until the input is exhausted or the context is done, then closes the event channel
func (c *Connector) Start(ctx context.Context) {
	go c.read(ctx)
}

func (c *Connector) read(ctx context.Context) {
	defer close(c.events)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		e, err := c.decode(line)
		if err != nil {
			c.logger.Warn("Skipping malformed event line", zap.Error(err), zap.ByteString("line", line))
			continue
		}

		select {
		case c.events <- e:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Error("Error reading events", zap.Error(err))
	}
}

func (c *Connector) decode(line []byte) (e *modscot.Event, err error) {
	var in inboundEvent
	if err = json.Unmarshal(line, &in); err != nil {
		return nil, err
	}

	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	e = &modscot.Event{
		ID:          in.ID,
		Kind:        in.Kind,
		CustomID:    in.CustomID,
		CommunityID: in.CommunityID,
		ChannelID:   in.ChannelID,
		Actor: modscot.Actor{
			ID:          in.Actor.ID,
			DisplayName: in.Actor.DisplayName,
			Bot:         in.Actor.Bot,
			RoleIDs:     in.Actor.RoleIDs,
			Permissions: in.Actor.Permissions,
		},
		Fields:   in.Fields,
		Message:  in.Message.toMessage(),
		Previous: in.Previous.toMessage(),
	}

	switch in.Kind {
	case modscot.KindCommand, modscot.KindButton, modscot.KindFormSubmit:
		e.Responder = &responder{eventID: in.ID, out: c.out}
	}

	return e, nil
}

type replyPayload struct {
	Text      string           `json:"text"`
	Ephemeral bool             `json:"ephemeral,omitempty"`
	Buttons   []modscot.Button `json:"buttons,omitempty"`
}

// responder writes the answers to an interactive event
type responder struct {
	eventID string
	out     *Output
}

func (r *responder) Reply(ctx context.Context, a *modscot.Answer) error {
	return r.out.Write(Record{Type: RecordReply, EventID: r.eventID, Payload: replyPayload{Text: a.Text, Ephemeral: a.IsEphemeral(), Buttons: a.Buttons}})
}

func (r *responder) ShowForm(ctx context.Context, f *modscot.Form) error {
	return r.out.Write(Record{Type: RecordForm, EventID: r.eventID, Payload: f})
}
