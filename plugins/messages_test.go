package plugins_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/plugins"
	"github.com/alexandre-normand/modscot/test/assertanswer"
	"github.com/alexandre-normand/modscot/test/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteMessageButtonID(t *testing.T) {
	id, err := plugins.DeleteMessageButtonID("general", "m1")
	require.NoError(t, err)

	assert.Equal(t, "messages:delete:general:m1", id)
}

func TestDeleteMessageButton(t *testing.T) {
	tests := map[string]struct {
		actor           modscot.Actor
		expectedDenied  int
		expectedDeleted []string
	}{
		"Moderator": {actor: moderator, expectedDeleted: []string{"general/message-1"}},
		"Admin":     {actor: admin, expectedDeleted: []string{"general/message-1"}},
		"Member":    {actor: alice, expectedDenied: 1},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			platform := capture.NewPlatform()
			platform.AddChannel("general", modscot.ChannelSpec{CommunityID: communityID, Name: "general"})
			h := newHarness(t, platform, newSettings(t), nil, plugins.NewMessages())

			_, err := platform.SendMessage(context.Background(), "general", &modscot.OutgoingMessage{Content: "spam"})
			require.NoError(t, err)

			id, err := plugins.DeleteMessageButtonID("general", "message-1")
			require.NoError(t, err)

			r, report := h.click(id, tc.actor, "sus-thread")

			assert.Equal(t, tc.expectedDenied, report.Denied)
			assert.Equal(t, tc.expectedDeleted, platform.DeletedMessages)
			if tc.expectedDenied == 0 {
				assertanswer.HasText(t, r.LastAnswer(), "Message deleted.")
				assert.Empty(t, platform.MessagesIn("general"))
			}
		})
	}
}

func TestDeleteMessageButtonMissingArguments(t *testing.T) {
	h := newHarness(t, capture.NewPlatform(), newSettings(t), nil, plugins.NewMessages())

	_, report := h.click("messages:delete:general", moderator, "general")

	assert.Equal(t, 1, report.Faults)
}

func TestDeleteMessageButtonFailure(t *testing.T) {
	platform := capture.NewPlatform()
	platform.FailOn["DeleteMessage"] = fmt.Errorf("missing access")
	h := newHarness(t, platform, newSettings(t), nil, plugins.NewMessages())

	_, report := h.click("messages:delete:general:m1", moderator, "general")

	assert.Equal(t, 1, report.Faults)
}
