package plugins

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/actions"
	"github.com/alexandre-normand/modscot/customid"
	"github.com/alexandre-normand/modscot/plugin"
	"github.com/pkg/errors"
)

const (
	// MessagesPluginName holds the identifying name of the message moderation plugin
	MessagesPluginName = "messages"

	deleteMessageAction = "delete"
)

// DeleteMessageButtonID returns the identifier of the button deleting a message
func DeleteMessageButtonID(channelID string, messageID string) (id string, err error) {
	return customid.Append(customid.Build(MessagesPluginName, deleteMessageAction), channelID, messageID)
}

// NewMessages creates a new instance of the message moderation plugin
func NewMessages() (p *modscot.Plugin) {
	p = plugin.New(MessagesPluginName).
		WithHandler(actions.NewButton().
			WithSubID(deleteMessageAction).
			WithCapability(modscot.HasPermission(modscot.PermissionManageMessages)).
			WithHandler(func(ctx context.Context, e *modscot.Event, args []string) error {
				return deleteMessage(ctx, p, e, args)
			}).
			Build()).
		Build()

	return p
}

func deleteMessage(ctx context.Context, p *modscot.Plugin, e *modscot.Event, args []string) (err error) {
	if len(args) < 2 {
		return fmt.Errorf("Expected channel and message ids but got %v", args)
	}

	channelID, messageID := args[0], args[1]
	if err = p.Platform.DeleteMessage(ctx, channelID, messageID); err != nil {
		return errors.Wrapf(err, "Error deleting message [%s] of channel [%s]", messageID, channelID)
	}

	p.Logger.Debugf("[%s] deleted message [%s] of channel [%s]", e.Actor.ID, messageID, channelID)

	return e.Reply(ctx, ephemeral("Message deleted."))
}
