package settings_test

import (
	"fmt"
	"testing"

	"github.com/alexandre-normand/modscot/settings"
	"github.com/alexandre-normand/modscot/store/inmemorydb"
	"github.com/alexandre-normand/modscot/store/mocks"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Settings serve the ticket workflow
var _ ticket.CommunitySettings = &settings.Settings{}

func newSettings(t *testing.T) *settings.Settings {
	db, err := inmemorydb.New(nil)
	require.NoError(t, err)

	return settings.New(db)
}

func TestUnsetSettingsAreEmpty(t *testing.T) {
	s := newSettings(t)

	getters := map[string]func(communityID string) (string, error){
		"ModRoleID":         s.ModRoleID,
		"SupportCategoryID": s.SupportCategoryID,
		"SupportChannelID":  s.SupportChannelID,
		"SusChannelID":      s.SusChannelID,
	}

	for name, get := range getters {
		get := get
		t.Run(name, func(t *testing.T) {
			v, err := get("c1")
			assert.NoError(t, err)
			assert.Equal(t, "", v)
		})
	}
}

func TestSettingsArePerCommunity(t *testing.T) {
	s := newSettings(t)

	require.NoError(t, s.SetModRoleID("c1", "role-1"))
	require.NoError(t, s.SetSupportCategoryID("c1", "category-1"))
	require.NoError(t, s.SetSupportChannelID("c1", "support-1"))
	require.NoError(t, s.SetSusChannelID("c2", "sus-2"))

	v, err := s.ModRoleID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "role-1", v)

	v, err = s.SupportCategoryID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "category-1", v)

	v, err = s.SupportChannelID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "support-1", v)

	v, err = s.SusChannelID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "", v)

	v, err = s.SusChannelID("c2")
	assert.NoError(t, err)
	assert.Equal(t, "sus-2", v)
}

func TestSettingEmptyValueClearsIt(t *testing.T) {
	s := newSettings(t)

	require.NoError(t, s.SetModRoleID("c1", "role-1"))
	require.NoError(t, s.SetModRoleID("c1", ""))

	v, err := s.ModRoleID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestStorerErrors(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("GetSiloString", "c1", "modRoleID").Return("", fmt.Errorf("disk failure"))
	ms.On("PutSiloString", "c1", "susChannelID", "sus-1").Return(fmt.Errorf("disk failure"))

	s := settings.New(ms)

	_, err := s.ModRoleID("c1")
	assert.EqualError(t, err, "Error loading [modRoleID] of community [c1]: disk failure")

	err = s.SetSusChannelID("c1", "sus-1")
	assert.EqualError(t, err, "Error saving [susChannelID] of community [c1]: disk failure")
}

func TestSettingFromStorer(t *testing.T) {
	ms := new(mocks.Storer)
	ms.ExpectSetting("c1", "modRoleID", "role-1")

	v, err := settings.New(ms).ModRoleID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "role-1", v)
	ms.AssertExpectations(t)
}

func TestNotFoundFromStorerIsUnset(t *testing.T) {
	ms := new(mocks.Storer)
	ms.ExpectMissingSetting("c1", "supportCategoryID")

	v, err := settings.New(ms).SupportCategoryID("c1")
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestManagedMessage(t *testing.T) {
	s := newSettings(t)

	m, err := s.ManagedMessage("c1", "support-create-ticket")
	require.NoError(t, err)
	assert.Equal(t, settings.ManagedMessage{}, m)
	assert.False(t, m.IsPosted())

	saved := settings.ManagedMessage{Content: "Need help?", ChannelID: "support-1", MessageID: "message-1"}
	require.NoError(t, s.SetManagedMessage("c1", "support-create-ticket", saved))

	m, err = s.ManagedMessage("c1", "support-create-ticket")
	require.NoError(t, err)
	assert.Equal(t, saved, m)
	assert.True(t, m.IsPosted())
}

func TestSuspects(t *testing.T) {
	s := newSettings(t)

	require.NoError(t, s.FlagSuspect("c1", settings.Suspect{MemberID: "mallory", Reason: "spam links", ThreadID: "thread-1"}))
	require.NoError(t, s.FlagSuspect("c1", settings.Suspect{MemberID: "eve", ThreadID: "thread-2"}))
	require.NoError(t, s.FlagSuspect("c2", settings.Suspect{MemberID: "trent", ThreadID: "thread-3"}))

	suspects, err := s.Suspects("c1")
	require.NoError(t, err)
	assert.Equal(t, []settings.Suspect{
		{MemberID: "eve", ThreadID: "thread-2"},
		{MemberID: "mallory", Reason: "spam links", ThreadID: "thread-1"},
	}, suspects)

	flagged, err := s.IsSuspect("c1", "eve")
	require.NoError(t, err)
	assert.True(t, flagged)

	flagged, err = s.IsSuspect("c1", "trent")
	require.NoError(t, err)
	assert.False(t, flagged)
}

func TestUnflaggedSuspectKeepsThread(t *testing.T) {
	s := newSettings(t)

	require.NoError(t, s.FlagSuspect("c1", settings.Suspect{MemberID: "mallory", ThreadID: "thread-1"}))
	require.NoError(t, s.UnflagSuspect("c1", "mallory"))

	sus, flagged, err := s.FindSuspect("c1", "mallory")
	require.NoError(t, err)
	assert.False(t, flagged)
	assert.Equal(t, "thread-1", sus.ThreadID)

	suspects, err := s.Suspects("c1")
	require.NoError(t, err)
	assert.Empty(t, suspects)
}

func TestFindSuspectError(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("GetSiloString", "c1", "suspect/mallory").Return("", fmt.Errorf("disk failure"))

	_, _, err := settings.New(ms).FindSuspect("c1", "mallory")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "disk failure")
	}
}
