// Package settings provides typed access to the per-community settings kept in a silo storer. Each
// community is a silo and unset settings read as empty values
package settings

import (
	"sort"
	"strings"

	"github.com/alexandre-normand/modscot/store"
	"github.com/pkg/errors"
)

const (
	modRoleKey         = "modRoleID"
	supportCategoryKey = "supportCategoryID"
	supportChannelKey  = "supportChannelID"
	susChannelKey      = "susChannelID"

	managedMessagePrefix = "message/"
	suspectPrefix        = "suspect/"
	suspectThreadPrefix  = "suspectThread/"
)

// ManagedMessage is a message whose content is kept in the settings so it can be edited and
// posted again (i.e. the message offering to open a support ticket)
type ManagedMessage struct {
	Content   string
	ChannelID string
	MessageID string
}

// IsPosted returns true if the message was posted somewhere
func (m ManagedMessage) IsPosted() bool {
	return m.ChannelID != "" && m.MessageID != ""
}

// Suspect is a member under surveillance
type Suspect struct {
	MemberID string
	Reason   string
	ThreadID string
}

// Settings reads and writes community settings
type Settings struct {
	storer store.SiloStringStorer
}

// New returns Settings kept in the storer
func New(storer store.SiloStringStorer) (s *Settings) {
	return &Settings{storer: storer}
}

func (s *Settings) get(communityID string, key string) (value string, err error) {
	value, err = s.storer.GetSiloString(communityID, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return "", nil
	}

	if err != nil {
		return "", errors.Wrapf(err, "Error loading [%s] of community [%s]", key, communityID)
	}

	return value, nil
}

// set stores the value, deleting the key when the value is empty
func (s *Settings) set(communityID string, key string, value string) (err error) {
	if value == "" {
		err = s.storer.DeleteSiloString(communityID, key)
	} else {
		err = s.storer.PutSiloString(communityID, key, value)
	}

	return errors.Wrapf(err, "Error saving [%s] of community [%s]", key, communityID)
}

// ModRoleID returns the id of the moderator role
func (s *Settings) ModRoleID(communityID string) (roleID string, err error) {
	return s.get(communityID, modRoleKey)
}

// SetModRoleID sets the id of the moderator role
func (s *Settings) SetModRoleID(communityID string, roleID string) (err error) {
	return s.set(communityID, modRoleKey, roleID)
}

// SupportCategoryID returns the id of the category under which ticket channels are created
func (s *Settings) SupportCategoryID(communityID string) (categoryID string, err error) {
	return s.get(communityID, supportCategoryKey)
}

// SetSupportCategoryID sets the id of the category under which ticket channels are created
func (s *Settings) SetSupportCategoryID(communityID string, categoryID string) (err error) {
	return s.set(communityID, supportCategoryKey, categoryID)
}

// SupportChannelID returns the id of the channel presenting the create ticket button
func (s *Settings) SupportChannelID(communityID string) (channelID string, err error) {
	return s.get(communityID, supportChannelKey)
}

// SetSupportChannelID sets the id of the channel presenting the create ticket button
func (s *Settings) SetSupportChannelID(communityID string, channelID string) (err error) {
	return s.set(communityID, supportChannelKey, channelID)
}

// SusChannelID returns the id of the channel where suspicious activity is reported
func (s *Settings) SusChannelID(communityID string) (channelID string, err error) {
	return s.get(communityID, susChannelKey)
}

// SetSusChannelID sets the id of the channel where suspicious activity is reported
func (s *Settings) SetSusChannelID(communityID string, channelID string) (err error) {
	return s.set(communityID, susChannelKey, channelID)
}

func managedMessageKey(key string, field string) string {
	return managedMessagePrefix + key + "/" + field
}

// ManagedMessage returns the managed message with the given key. A message never saved is returned
// with empty fields
func (s *Settings) ManagedMessage(communityID string, key string) (m ManagedMessage, err error) {
	if m.Content, err = s.get(communityID, managedMessageKey(key, "content")); err != nil {
		return m, err
	}

	if m.ChannelID, err = s.get(communityID, managedMessageKey(key, "channel")); err != nil {
		return m, err
	}

	m.MessageID, err = s.get(communityID, managedMessageKey(key, "message"))

	return m, err
}

// SetManagedMessage saves the managed message with the given key
func (s *Settings) SetManagedMessage(communityID string, key string, m ManagedMessage) (err error) {
	if err = s.set(communityID, managedMessageKey(key, "content"), m.Content); err != nil {
		return err
	}

	if err = s.set(communityID, managedMessageKey(key, "channel"), m.ChannelID); err != nil {
		return err
	}

	return s.set(communityID, managedMessageKey(key, "message"), m.MessageID)
}

func (s *Suspect) flagged() bool {
	return s.MemberID != ""
}

// FindSuspect returns the surveillance state of a member. The returned suspect's MemberID is empty
// if the member isn't flagged. ThreadID survives unflagging so a member flagged again reuses their thread
func (s *Settings) FindSuspect(communityID string, memberID string) (sus Suspect, flagged bool, err error) {
	reason, err := s.storer.GetSiloString(communityID, suspectPrefix+memberID)
	switch {
	case err == nil:
		sus.MemberID = memberID
		sus.Reason = reason
	case !errors.Is(err, store.ErrKeyNotFound):
		return sus, false, errors.Wrapf(err, "Error loading suspect [%s] of community [%s]", memberID, communityID)
	}

	if sus.ThreadID, err = s.get(communityID, suspectThreadPrefix+memberID); err != nil {
		return sus, false, err
	}

	return sus, sus.flagged(), nil
}

// IsSuspect returns true if the member is flagged
func (s *Settings) IsSuspect(communityID string, memberID string) (flagged bool, err error) {
	_, flagged, err = s.FindSuspect(communityID, memberID)
	return flagged, err
}

// FlagSuspect flags a member as suspect with an optional reason and the thread mirroring their activity
func (s *Settings) FlagSuspect(communityID string, sus Suspect) (err error) {
	if err = s.storer.PutSiloString(communityID, suspectPrefix+sus.MemberID, sus.Reason); err != nil {
		return errors.Wrapf(err, "Error flagging suspect [%s] of community [%s]", sus.MemberID, communityID)
	}

	return s.set(communityID, suspectThreadPrefix+sus.MemberID, sus.ThreadID)
}

// UnflagSuspect clears the flag of a member, keeping their thread
func (s *Settings) UnflagSuspect(communityID string, memberID string) (err error) {
	return errors.Wrapf(s.storer.DeleteSiloString(communityID, suspectPrefix+memberID), "Error unflagging suspect [%s] of community [%s]", memberID, communityID)
}

// SetSuspectThreadID sets the thread mirroring the activity of a member
func (s *Settings) SetSuspectThreadID(communityID string, memberID string, threadID string) (err error) {
	return s.set(communityID, suspectThreadPrefix+memberID, threadID)
}

// Suspects returns the flagged members of a community ordered by member id
func (s *Settings) Suspects(communityID string) (suspects []Suspect, err error) {
	entries, err := s.storer.ScanSilo(communityID)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading settings of community [%s]", communityID)
	}

	suspects = make([]Suspect, 0)
	for k, v := range entries {
		if !strings.HasPrefix(k, suspectPrefix) {
			continue
		}

		memberID := strings.TrimPrefix(k, suspectPrefix)
		suspects = append(suspects, Suspect{MemberID: memberID, Reason: v, ThreadID: entries[suspectThreadPrefix+memberID]})
	}

	sort.Slice(suspects, func(i, j int) bool { return suspects[i].MemberID < suspects[j].MemberID })

	return suspects, nil
}
