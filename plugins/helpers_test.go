package plugins_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/settings"
	"github.com/alexandre-normand/modscot/store/inmemorydb"
	"github.com/alexandre-normand/modscot/test/capture"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	communityID = "c1"
	modRoleID   = "role-mod"
)

var (
	alice     = modscot.Actor{ID: "alice", DisplayName: "Alice"}
	bob       = modscot.Actor{ID: "bob", DisplayName: "Bob"}
	moderator = modscot.Actor{ID: "mod", DisplayName: "Mod", RoleIDs: []string{modRoleID}, Permissions: []modscot.Permission{modscot.PermissionManageMessages, modscot.PermissionModerateMembers}}
	admin     = modscot.Actor{ID: "admin", DisplayName: "Admin", Permissions: []modscot.Permission{modscot.PermissionAdministrator}}
)

// harness dispatches events to plugins registered on a bot backed by a recording platform
type harness struct {
	bot      *modscot.Modscot
	platform *capture.Platform
	settings *settings.Settings
	events   int
}

func newSettings(t *testing.T) *settings.Settings {
	db, err := inmemorydb.New(nil)
	require.NoError(t, err)

	return settings.New(db)
}

func newHarness(t *testing.T, platform *capture.Platform, s *settings.Settings, members *capture.MemberInfoFinder, plugins ...*modscot.Plugin) *harness {
	opts := []modscot.Option{modscot.OptionLog(zap.NewNop()), modscot.OptionPlatform(platform)}
	if members != nil {
		opts = append(opts, modscot.OptionMemberInfoFinder(members))
	}

	bot, err := modscot.New("modscot", config.NewViperWithDefaults(), opts...)
	require.NoError(t, err)

	for _, p := range plugins {
		require.NoError(t, bot.RegisterPlugin(p))
	}

	return &harness{bot: bot, platform: platform, settings: s}
}

// dispatch delivers an event and returns the responder that recorded the answers
func (h *harness) dispatch(e *modscot.Event) (*capture.Responder, modscot.DispatchReport) {
	h.events++

	r := capture.NewResponder()
	e.ID = fmt.Sprintf("event-%d", h.events)
	e.CommunityID = communityID
	e.Responder = r

	return r, h.bot.Dispatch(context.Background(), e)
}

func (h *harness) command(id string, actor modscot.Actor, channelID string, fields map[string]string) (*capture.Responder, modscot.DispatchReport) {
	return h.dispatch(&modscot.Event{Kind: modscot.KindCommand, CustomID: id, Actor: actor, ChannelID: channelID, Fields: fields})
}

func (h *harness) click(id string, actor modscot.Actor, channelID string) (*capture.Responder, modscot.DispatchReport) {
	return h.dispatch(&modscot.Event{Kind: modscot.KindButton, CustomID: id, Actor: actor, ChannelID: channelID})
}

func (h *harness) submit(id string, actor modscot.Actor, fields map[string]string) (*capture.Responder, modscot.DispatchReport) {
	return h.dispatch(&modscot.Event{Kind: modscot.KindFormSubmit, CustomID: id, Actor: actor, Fields: fields})
}
