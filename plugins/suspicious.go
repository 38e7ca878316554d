package plugins

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/actions"
	"github.com/alexandre-normand/modscot/plugin"
	"github.com/alexandre-normand/modscot/settings"
	"github.com/pkg/errors"
)

const (
	// SuspiciousPluginName holds the identifying name of the suspicious accounts plugin
	SuspiciousPluginName = "sus"

	reasonOption = "reason"
)

var markupRegexp = regexp.MustCompile(`[*\\_~|]+`)

// errSusChannelNotConfigured is returned when a suspect thread is needed but the community has no
// suspicious activity channel
var errSusChannelNotConfigured = errors.New("suspicious activity channel isn't configured")

// Suspicious holds the plugin data for the suspicious accounts plugin. Activity of flagged members
// is mirrored into a thread per suspect
type Suspicious struct {
	modscot.Plugin

	settings *settings.Settings
}

// NewSuspicious creates a new instance of the suspicious accounts plugin
func NewSuspicious(s *settings.Settings) (p *Suspicious) {
	p = new(Suspicious)
	p.settings = s

	moderateMembers := modscot.HasPermission(modscot.PermissionModerateMembers)

	p.Plugin = *plugin.New(SuspiciousPluginName).
		WithHandler(actions.NewCommand().
			WithSubID("add").
			WithCapability(moderateMembers).
			WithUsage("sus add <member> [reason]").
			WithDescription("Flag a member as suspicious and mirror their activity").
			WithHandler(p.flag).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("remove").
			WithCapability(moderateMembers).
			WithUsage("sus remove <member>").
			WithDescription("Stop mirroring the activity of a member").
			WithHandler(p.unflag).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("list").
			WithCapability(moderateMembers).
			WithUsage("sus list").
			WithDescription("List suspicious accounts").
			WithHandler(p.list).
			Build()).
		WithHandler(actions.NewCommand().
			WithSubID("channel").
			WithCapability(administrator).
			WithUsage("sus channel <channel>").
			WithDescription("Set the channel where suspicious activity is reported").
			WithHandler(p.setChannel).
			Build()).
		WithHandler(actions.NewMessageListener().
			Hidden().
			WithHandler(p.mirrorMessage).
			Build()).
		WithHandler(actions.NewMemberListener().
			Hidden().
			WithHandler(p.mirrorNicknameChange).
			Build()).
		Build()

	return p
}

func (p *Suspicious) displayName(ctx context.Context, communityID string, memberID string) string {
	if p.MemberInfoFinder == nil {
		return memberID
	}

	m, err := p.MemberInfoFinder.GetMemberInfo(ctx, communityID, memberID)
	if err != nil || m == nil {
		p.Logger.Debugf("Falling back to id for member [%s] of community [%s]: %v", memberID, communityID, err)
		return memberID
	}

	if m.DisplayName != "" {
		return m.DisplayName
	}

	return m.Username
}

func withReason(text string, reason string) string {
	if reason == "" {
		return text
	}

	return fmt.Sprintf("%s\nReason: %s", text, reason)
}

// thread returns the thread mirroring the activity of a member, creating it when the member has none
// or when it was deleted
func (p *Suspicious) thread(ctx context.Context, communityID string, sus settings.Suspect, reason string) (threadID string, created bool, err error) {
	if sus.ThreadID != "" {
		exists, err := p.Platform.ChannelExists(ctx, sus.ThreadID)
		if err != nil {
			return "", false, errors.Wrapf(err, "Error looking up thread [%s]", sus.ThreadID)
		}

		if exists {
			return sus.ThreadID, false, nil
		}
	}

	channelID, err := p.settings.SusChannelID(communityID)
	if err != nil {
		return "", false, err
	}

	if channelID == "" {
		return "", false, errSusChannelNotConfigured
	}

	starter := withReason(fmt.Sprintf("Suspicious account: %s", modscot.Mention(sus.MemberID)), reason)
	name := fmt.Sprintf("Suspicious account: %s", p.displayName(ctx, communityID, sus.MemberID))

	if threadID, err = p.Platform.CreateThread(ctx, channelID, name, starter); err != nil {
		return "", false, errors.Wrapf(err, "Error creating thread for suspect [%s]", sus.MemberID)
	}

	return threadID, true, p.settings.SetSuspectThreadID(communityID, sus.MemberID, threadID)
}

func asSusUserError(err error) error {
	if errors.Is(err, errSusChannelNotConfigured) {
		return modscot.NewUserError(err, "The suspicious activity channel isn't set up yet. Use `sus channel` first.")
	}

	return err
}

func (p *Suspicious) flag(ctx context.Context, e *modscot.Event, args []string) (err error) {
	memberID := e.Field(userOption)
	reason := strings.TrimSpace(e.Field(reasonOption))

	sus, flagged, err := p.settings.FindSuspect(e.CommunityID, memberID)
	if err != nil {
		return err
	}

	sus.MemberID = memberID
	threadID, created, err := p.thread(ctx, e.CommunityID, sus, reason)
	if err != nil {
		return asSusUserError(err)
	}

	if !created && !flagged {
		if err = p.Platform.SetThreadArchived(ctx, threadID, false); err != nil {
			return errors.Wrapf(err, "Error reopening thread [%s]", threadID)
		}

		if _, err = p.Platform.SendMessage(ctx, threadID, &modscot.OutgoingMessage{Content: withReason(fmt.Sprintf("%s is flagged as suspicious again.", modscot.Mention(memberID)), reason)}); err != nil {
			return errors.Wrapf(err, "Error announcing suspect [%s] in thread [%s]", memberID, threadID)
		}
	}

	if err = p.settings.FlagSuspect(e.CommunityID, settings.Suspect{MemberID: memberID, Reason: reason, ThreadID: threadID}); err != nil {
		return err
	}

	return e.Reply(ctx, ephemeral(fmt.Sprintf("%s was flagged as suspicious.", modscot.Mention(memberID))))
}

func (p *Suspicious) unflag(ctx context.Context, e *modscot.Event, args []string) (err error) {
	memberID := e.Field(userOption)

	sus, _, err := p.settings.FindSuspect(e.CommunityID, memberID)
	if err != nil {
		return err
	}

	if err = p.settings.UnflagSuspect(e.CommunityID, memberID); err != nil {
		return err
	}

	sus.MemberID = memberID
	threadID, _, err := p.thread(ctx, e.CommunityID, sus, "")
	if err != nil {
		return asSusUserError(err)
	}

	text := fmt.Sprintf("%s is no longer flagged as suspicious.", modscot.Mention(memberID))
	if _, err = p.Platform.SendMessage(ctx, threadID, &modscot.OutgoingMessage{Content: text}); err != nil {
		return errors.Wrapf(err, "Error announcing unflagging of [%s] in thread [%s]", memberID, threadID)
	}

	if err = p.Platform.SetThreadArchived(ctx, threadID, true); err != nil {
		return errors.Wrapf(err, "Error archiving thread [%s]", threadID)
	}

	return e.Reply(ctx, ephemeral(text))
}

func (p *Suspicious) list(ctx context.Context, e *modscot.Event, args []string) (err error) {
	suspects, err := p.settings.Suspects(e.CommunityID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("**Here is a list of all suspicious accounts:**\n\n")
	for i, sus := range suspects {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)", modscot.Mention(sus.MemberID), sus.MemberID)
	}

	return e.Reply(ctx, ephemeral(b.String()))
}

func (p *Suspicious) setChannel(ctx context.Context, e *modscot.Event, args []string) (err error) {
	channelID := e.Field(channelOption)
	if channelID == "" {
		return modscot.NewUserError(nil, "You need to provide a channel!")
	}

	if err = p.settings.SetSusChannelID(e.CommunityID, channelID); err != nil {
		return err
	}

	return e.Reply(ctx, ephemeral(fmt.Sprintf("%s was set as the suspicious activity channel.", modscot.ChannelMention(channelID))))
}

// suspectThread returns the thread of a member if they're flagged. ok is false for members who
// aren't flagged and when the community has no suspicious activity channel
func (p *Suspicious) suspectThread(ctx context.Context, communityID string, memberID string) (threadID string, ok bool, err error) {
	sus, flagged, err := p.settings.FindSuspect(communityID, memberID)
	if err != nil || !flagged {
		return "", false, err
	}

	threadID, _, err = p.thread(ctx, communityID, sus, sus.Reason)
	if errors.Is(err, errSusChannelNotConfigured) {
		p.Logger.Debugf("Not mirroring activity of suspect [%s]: %v", memberID, err)
		return "", false, nil
	}

	return threadID, err == nil, err
}

var mirrorTitles = map[modscot.Kind]string{
	modscot.KindMessageCreate: "Message posted",
	modscot.KindMessageUpdate: "Message edited",
	modscot.KindMessageDelete: "Message deleted",
}

func (p *Suspicious) mirrorMessage(ctx context.Context, e *modscot.Event, args []string) (err error) {
	m := e.Message
	if m == nil {
		return nil
	}

	if e.Kind == modscot.KindMessageUpdate && e.Previous != nil && e.Previous.Content != "" && e.Previous.Content == m.Content {
		return nil
	}

	threadID, ok, err := p.suspectThread(ctx, e.CommunityID, m.AuthorID)
	if err != nil || !ok {
		return err
	}

	deleteID, err := DeleteMessageButtonID(m.ChannelID, m.ID)
	if err != nil {
		return err
	}

	_, err = p.Platform.SendMessage(ctx, threadID, &modscot.OutgoingMessage{
		Embeds:  []modscot.Embed{messageEmbed(mirrorTitles[e.Kind], m, e.Previous)},
		Buttons: []modscot.Button{{Label: "Delete", Style: modscot.ButtonDanger, CustomID: deleteID}},
	})

	return errors.Wrapf(err, "Error mirroring message [%s] of suspect [%s]", m.ID, m.AuthorID)
}

func (p *Suspicious) mirrorNicknameChange(ctx context.Context, e *modscot.Event, args []string) (err error) {
	if e.Message == nil || e.Previous == nil || e.Message.Content == e.Previous.Content {
		return nil
	}

	threadID, ok, err := p.suspectThread(ctx, e.CommunityID, e.Actor.ID)
	if err != nil || !ok {
		return err
	}

	text := fmt.Sprintf("%s changed their nickname from **%s** to **%s**.", modscot.Mention(e.Actor.ID), e.Previous.Content, e.Message.Content)
	_, err = p.Platform.SendMessage(ctx, threadID, &modscot.OutgoingMessage{Content: text})

	return errors.Wrapf(err, "Error mirroring nickname change of suspect [%s]", e.Actor.ID)
}

func stripMarkup(content string) string {
	return markupRegexp.ReplaceAllString(content, "")
}

// messageDescription renders the content of a mirrored message, showing both versions of edited
// messages. Messages without text are described by their first embed url or their attachments
func messageDescription(m *modscot.Message, previous *modscot.Message) string {
	content := stripMarkup(m.Content)
	if previous != nil && stripMarkup(previous.Content) != content {
		return fmt.Sprintf("**Before:**\n%s\n\n**After:**\n%s", stripMarkup(previous.Content), content)
	}

	if content != "" {
		return content
	}

	attachments := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, fmt.Sprintf("**Attachment:** %s\n**Size:** %d\n**Type:** %s\n**Link:** [link](%s)", a.Name, a.Size, a.ContentType, a.URL))
	}

	return strings.Join(attachments, "\n\n")
}

func messageEmbed(title string, m *modscot.Message, previous *modscot.Message) modscot.Embed {
	return modscot.Embed{
		Title:       title,
		URL:         m.URL,
		Description: messageDescription(m, previous),
		Fields: []modscot.Field{
			{Name: "Channel", Value: modscot.ChannelMention(m.ChannelID), Inline: true},
			{Name: "Message", Value: fmt.Sprintf("[link](%s)", m.URL), Inline: true},
			{Name: "Author", Value: modscot.Mention(m.AuthorID), Inline: true},
		},
	}
}
