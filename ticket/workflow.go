package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/config"
	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Title length bounds, in characters
const (
	MinTitleLength = 3
	MaxTitleLength = 200
)

const (
	statusCacheSizeDisabledValue = 0
	creatingTicket               = "Creating ticket..."
)

// CommunitySettings is implemented by any value giving access to the settings the workflow needs. An
// unset setting is returned as an empty string without error
type CommunitySettings interface {
	ModRoleID(communityID string) (roleID string, err error)
	SupportCategoryID(communityID string) (categoryID string, err error)
}

// ChannelMessenger is the subset of the platform used by the workflow
type ChannelMessenger interface {
	modscot.ChannelManager
	modscot.MessageManager
}

// Request holds what an actor submits to open a ticket
type Request struct {
	CommunityID string
	Author      modscot.Actor
	Title       string
	Description string
}

// Workflow drives ticket transitions. Every transition re-reads the ticket from the repository
// before mutating it and concurrent transitions on the same ticket are last-write-wins
type Workflow struct {
	repo           Repository
	platform       ChannelMessenger
	settings       CommunitySettings
	logger         modscot.SLogger
	personalLimit  int
	communityLimit int
	loc            *time.Location
	now            func() time.Time

	// statusMessages caches the status message id of ticket channels
	statusMessages *lru.ARCCache
}

// Option defines an option for a Workflow
type Option func(w *Workflow)

// OptionClock sets the function returning the current time
func OptionClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// NewWorkflow creates a new ticket workflow with limits and caching taken from the configuration
func NewWorkflow(v *viper.Viper, repo Repository, platform ChannelMessenger, settings CommunitySettings, logger modscot.SLogger, opts ...Option) (w *Workflow, err error) {
	w = new(Workflow)
	w.repo = repo
	w.platform = platform
	w.settings = settings
	w.logger = logger
	w.personalLimit = v.GetInt(config.SupportPersonalLimitKey)
	w.communityLimit = v.GetInt(config.SupportCommunityLimitKey)
	w.now = time.Now

	w.loc, err = config.GetTimeLocation(v)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading time location [%s]", v.GetString(config.TimeLocationKey))
	}

	if cs := v.GetInt(config.StatusMessageCacheSizeKey); cs > statusCacheSizeDisabledValue {
		w.statusMessages, err = lru.NewARC(cs)
		if err != nil {
			return nil, err
		}
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// IsPrivileged returns true if the actor moderates the community: holders of the moderator role and
// members allowed to manage messages
func (w *Workflow) IsPrivileged(communityID string, a modscot.Actor) (privileged bool, err error) {
	modRoleID, err := w.settings.ModRoleID(communityID)
	if err != nil {
		return false, errors.Wrapf(err, "Error loading moderator role of community [%s]", communityID)
	}

	return isPrivileged(a, modRoleID), nil
}

func isPrivileged(a modscot.Actor, modRoleID string) bool {
	return a.HasRole(modRoleID) || a.HasPermission(modscot.PermissionManageMessages)
}

// ChannelName returns the name of a ticket's channel: the ticket id followed by the author's display
// name stripped of everything but ascii letters and digits
func ChannelName(ticketID int64, displayName string) string {
	var b strings.Builder
	for _, r := range displayName {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return fmt.Sprintf("ticket-%d-%s", ticketID, b.String())
}

// Create opens a ticket: quotas are checked (unless the author is privileged), the open ticket is
// persisted and its channel is provisioned. A ticket whose channel can't be provisioned is deleted
func (w *Workflow) Create(ctx context.Context, r Request) (t *Ticket, err error) {
	title := strings.TrimSpace(r.Title)
	if l := utf8.RuneCountInString(title); l < MinTitleLength || l > MaxTitleLength {
		return nil, errors.Wrapf(ErrInvalidTitle, "title must be between %d and %d characters long", MinTitleLength, MaxTitleLength)
	}

	categoryID, err := w.settings.SupportCategoryID(r.CommunityID)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading support category of community [%s]", r.CommunityID)
	}

	if categoryID == "" {
		return nil, ErrNotConfigured
	}

	modRoleID, err := w.settings.ModRoleID(r.CommunityID)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading moderator role of community [%s]", r.CommunityID)
	}

	privileged := isPrivileged(r.Author, modRoleID)
	if !privileged {
		if err = w.checkQuotas(ctx, r.CommunityID, r.Author.ID); err != nil {
			return nil, err
		}
	}

	t = &Ticket{
		CommunityID: r.CommunityID,
		AuthorID:    r.Author.ID,
		Title:       title,
		Description: strings.TrimSpace(r.Description),
		Status:      StatusOpen,
		CreatedAt:   w.now(),
	}

	if err = w.repo.Save(ctx, t); err != nil {
		return nil, errors.Wrap(err, "Error saving new ticket")
	}

	if err = w.provision(ctx, t, r.Author, categoryID, modRoleID, privileged); err != nil {
		if derr := w.repo.Delete(ctx, ByID(t.ID)); derr != nil {
			w.logger.Printf("Error deleting ticket [%d] after failed provisioning: %v", t.ID, derr)
		}

		return nil, errors.Wrapf(err, "Error provisioning channel of ticket [%d]", t.ID)
	}

	w.logger.Debugf("Created ticket [%d] in channel [%s] for [%s]", t.ID, t.ChannelID, t.AuthorID)

	return t, nil
}

func (w *Workflow) checkQuotas(ctx context.Context, communityID string, authorID string) (err error) {
	personal, err := w.repo.Count(ctx, Criteria{CommunityID: communityID, AuthorID: authorID, Status: StatusOpen})
	if err != nil {
		return errors.Wrapf(err, "Error counting open tickets of [%s]", authorID)
	}

	if personal >= w.personalLimit {
		return &QuotaError{Limit: w.personalLimit}
	}

	total, err := w.repo.Count(ctx, Criteria{CommunityID: communityID, Status: StatusOpen})
	if err != nil {
		return errors.Wrapf(err, "Error counting open tickets of community [%s]", communityID)
	}

	if total >= w.communityLimit {
		return &QuotaError{Limit: w.communityLimit, Community: true}
	}

	return nil
}

func (w *Workflow) provision(ctx context.Context, t *Ticket, author modscot.Actor, categoryID string, modRoleID string, privileged bool) (err error) {
	channelID, err := w.platform.CreateChannel(ctx, modscot.ChannelSpec{
		CommunityID: t.CommunityID,
		ParentID:    categoryID,
		Name:        ChannelName(t.ID, author.DisplayName),
		Topic:       t.Title,
	})
	if err != nil {
		return err
	}

	if err = w.initialize(ctx, t, channelID, modRoleID, privileged); err != nil {
		if derr := w.platform.DeleteChannel(ctx, channelID); derr != nil {
			w.logger.Printf("Error deleting channel [%s] of ticket [%d] after failed provisioning: %v", channelID, t.ID, derr)
		}

		return err
	}

	return nil
}

// initialize restricts the channel to the author and moderators, posts the status message and the
// introduction and binds the channel to the ticket
func (w *Workflow) initialize(ctx context.Context, t *Ticket, channelID string, modRoleID string, privileged bool) (err error) {
	if err = w.platform.SetChannelAccess(ctx, channelID, modscot.Everyone(t.CommunityID), modscot.Access{}); err != nil {
		return err
	}

	if modRoleID != "" {
		if err = w.platform.SetChannelAccess(ctx, channelID, modscot.Role(modRoleID), modscot.Access{View: true, Send: true}); err != nil {
			return err
		}
	}

	if err = w.platform.SetChannelAccess(ctx, channelID, modscot.Member(t.AuthorID), modscot.Access{View: true, Send: true}); err != nil {
		return err
	}

	statusID, err := w.platform.SendMessage(ctx, channelID, &modscot.OutgoingMessage{Embeds: []modscot.Embed{{Description: creatingTicket}}})
	if err != nil {
		return err
	}

	t.ChannelID = channelID
	if err = w.repo.Save(ctx, t); err != nil {
		return err
	}

	w.rememberStatusMessage(channelID, statusID)
	if err = w.platform.EditMessage(ctx, channelID, statusID, RenderStatus(t, w.loc)); err != nil {
		return err
	}

	_, err = w.platform.SendMessage(ctx, channelID, &modscot.OutgoingMessage{Content: introduction(t, modRoleID, privileged)})

	return err
}

func introduction(t *Ticket, modRoleID string, privileged bool) string {
	if privileged {
		return fmt.Sprintf("%s please add a member with `/support assign`.", modscot.Mention(t.AuthorID))
	}

	moderators := "the moderation team"
	if modRoleID != "" {
		moderators = modscot.RoleMention(modRoleID)
	}

	return fmt.Sprintf("Please describe your issue as precisely as possible. Someone from %s will take care of you soon.", moderators)
}

// Get returns the ticket matching the criteria. Criteria without any constraint or with a negative id
// select nothing
func (w *Workflow) Get(ctx context.Context, c Criteria) (t *Ticket, err error) {
	if c.IsZero() || c.ID < 0 {
		return nil, errors.Wrapf(ErrNotFound, "no ticket selected by [%s]", c)
	}

	t, err = w.repo.Find(ctx, c)
	if err != nil {
		return nil, errors.Wrapf(err, "Error finding ticket with [%s]", c)
	}

	return t, nil
}

// getLive returns the ticket matching the criteria as long as its channel still exists. The record of a
// removed ticket is kept but no transition applies to it anymore
func (w *Workflow) getLive(ctx context.Context, c Criteria) (t *Ticket, err error) {
	if t, err = w.Get(ctx, c); err != nil {
		return nil, err
	}

	if t.ChannelID == "" {
		return nil, errors.Wrapf(ErrNotFound, "ticket [%d] has no channel", t.ID)
	}

	exists, err := w.platform.ChannelExists(ctx, t.ChannelID)
	if err != nil {
		return nil, errors.Wrapf(err, "Error checking channel [%s] of ticket [%d]", t.ChannelID, t.ID)
	}

	if !exists {
		w.forgetStatusMessage(t.ChannelID)
		return nil, errors.Wrapf(ErrNotFound, "channel [%s] of ticket [%d] was removed", t.ChannelID, t.ID)
	}

	return t, nil
}

// Assign makes a member responsible for the ticket bound to the channel
func (w *Workflow) Assign(ctx context.Context, channelID string, actor modscot.Actor, assigneeID string) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByChannel(channelID))
	if err != nil {
		return nil, err
	}

	t.AssigneeID = assigneeID
	if err = w.repo.Save(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "Error saving ticket [%d]", t.ID)
	}

	if err = w.Refresh(ctx, t); err != nil {
		return t, err
	}

	assignee := modscot.Mention(assigneeID)
	if actor.ID == assigneeID {
		assignee = "themselves"
	}

	return t, w.announce(ctx, t, "%s assigned the ticket to %s.", modscot.Mention(actor.ID), assignee)
}

// SelfAssign makes the actor responsible for the ticket. Authors can't take over their own ticket
func (w *Workflow) SelfAssign(ctx context.Context, ticketID int64, actor modscot.Actor) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByID(ticketID))
	if err != nil {
		return nil, err
	}

	if t.AuthorID == actor.ID {
		return nil, ErrSelfAssign
	}

	t.AssigneeID = actor.ID
	if err = w.repo.Save(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "Error saving ticket [%d]", t.ID)
	}

	if err = w.Refresh(ctx, t); err != nil {
		return t, err
	}

	return t, w.announce(ctx, t, "%s took over this ticket.", modscot.Mention(actor.ID))
}

// Close closes the ticket. Only its author and privileged members may close a ticket. Closing a
// closed ticket only renders its status view again
func (w *Workflow) Close(ctx context.Context, ticketID int64, actor modscot.Actor) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByID(ticketID))
	if err != nil {
		return nil, err
	}

	if t.AuthorID != actor.ID {
		privileged, err := w.IsPrivileged(t.CommunityID, actor)
		if err != nil {
			return nil, err
		}

		if !privileged {
			return nil, modscot.ErrForbidden
		}
	}

	if t.Status == StatusClosed {
		return t, w.Refresh(ctx, t)
	}

	closedAt := w.now()
	t.Status = StatusClosed
	t.ClosedAt = &closedAt
	if err = w.repo.Save(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "Error saving ticket [%d]", t.ID)
	}

	if err = w.announce(ctx, t, "The ticket was closed by %s.", modscot.Mention(actor.ID)); err != nil {
		return t, err
	}

	return t, w.Refresh(ctx, t)
}

// Remove deletes the channel bound to the ticket. The ticket record itself is kept and later
// transitions on it report ErrNotFound
func (w *Workflow) Remove(ctx context.Context, ticketID int64) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByID(ticketID))
	if err != nil {
		return nil, err
	}

	if err = w.platform.DeleteChannel(ctx, t.ChannelID); err != nil {
		return nil, errors.Wrapf(err, "Error deleting channel [%s] of ticket [%d]", t.ChannelID, t.ID)
	}

	w.forgetStatusMessage(t.ChannelID)

	return t, nil
}

// AddParticipant grants a member access to the ticket bound to the channel
func (w *Workflow) AddParticipant(ctx context.Context, channelID string, actor modscot.Actor, memberID string) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByChannel(channelID))
	if err != nil {
		return nil, err
	}

	if err = w.platform.SetChannelAccess(ctx, channelID, modscot.Member(memberID), modscot.Access{View: true, Send: true}); err != nil {
		return nil, errors.Wrapf(err, "Error granting [%s] access to ticket [%d]", memberID, t.ID)
	}

	return t, w.announce(ctx, t, "%s added %s to the ticket.", modscot.Mention(actor.ID), modscot.Mention(memberID))
}

// RemoveParticipant revokes a member's access to the ticket bound to the channel
func (w *Workflow) RemoveParticipant(ctx context.Context, channelID string, actor modscot.Actor, memberID string) (t *Ticket, err error) {
	t, err = w.getLive(ctx, ByChannel(channelID))
	if err != nil {
		return nil, err
	}

	if err = w.platform.ClearChannelAccess(ctx, channelID, modscot.Member(memberID)); err != nil {
		return nil, errors.Wrapf(err, "Error revoking access of [%s] to ticket [%d]", memberID, t.ID)
	}

	return t, w.announce(ctx, t, "%s removed %s from the ticket.", modscot.Mention(actor.ID), modscot.Mention(memberID))
}

// Refresh replaces the status message of the ticket's channel with the ticket's current status view
func (w *Workflow) Refresh(ctx context.Context, t *Ticket) (err error) {
	statusID, err := w.statusMessageID(ctx, t.ChannelID)
	if err != nil {
		return errors.Wrapf(err, "Error finding status message of ticket [%d]", t.ID)
	}

	if err = w.platform.EditMessage(ctx, t.ChannelID, statusID, RenderStatus(t, w.loc)); err != nil {
		w.forgetStatusMessage(t.ChannelID)
		return errors.Wrapf(err, "Error rendering status of ticket [%d]", t.ID)
	}

	return nil
}

func (w *Workflow) announce(ctx context.Context, t *Ticket, format string, a ...interface{}) (err error) {
	_, err = w.platform.SendMessage(ctx, t.ChannelID, &modscot.OutgoingMessage{Content: fmt.Sprintf(format, a...)})
	if err != nil {
		return errors.Wrapf(err, "Error announcing change on ticket [%d]", t.ID)
	}

	return nil
}

func (w *Workflow) statusMessageID(ctx context.Context, channelID string) (messageID string, err error) {
	if w.statusMessages != nil {
		if cached, ok := w.statusMessages.Get(channelID); ok {
			return cached.(string), nil
		}
	}

	messageID, err = w.platform.FirstMessageID(ctx, channelID)
	if err != nil {
		return "", err
	}

	w.rememberStatusMessage(channelID, messageID)

	return messageID, nil
}

func (w *Workflow) rememberStatusMessage(channelID string, messageID string) {
	if w.statusMessages != nil {
		w.statusMessages.Add(channelID, messageID)
	}
}

func (w *Workflow) forgetStatusMessage(channelID string) {
	if w.statusMessages != nil {
		w.statusMessages.Remove(channelID)
	}
}
