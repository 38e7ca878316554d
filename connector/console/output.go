package console

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Record types written to the output
const (
	RecordReply              = "reply"
	RecordForm               = "form"
	RecordCreateChannel      = "createChannel"
	RecordDeleteChannel      = "deleteChannel"
	RecordSetChannelAccess   = "setChannelAccess"
	RecordClearChannelAccess = "clearChannelAccess"
	RecordCreateThread       = "createThread"
	RecordSetThreadArchived  = "setThreadArchived"
	RecordSendMessage        = "sendMessage"
	RecordEditMessage        = "editMessage"
	RecordDeleteMessage      = "deleteMessage"
	RecordSetPresence        = "setPresence"
)

// Record is a line written to the output
type Record struct {
	Type      string      `json:"type"`
	EventID   string      `json:"eventId,omitempty"`
	ChannelID string      `json:"channelId,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Output serializes records as JSON lines. It is safe for concurrent use
type Output struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewOutput returns an Output writing to w
func NewOutput(w io.Writer) (o *Output) {
	return &Output{enc: json.NewEncoder(w)}
}

// Write writes a record as a single line
func (o *Output) Write(r Record) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return errors.Wrapf(o.enc.Encode(r), "Error writing [%s] record", r.Type)
}
