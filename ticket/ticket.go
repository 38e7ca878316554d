// Package ticket implements the support ticket lifecycle: creation with quotas, assignment,
// closing, channel removal and participant management, along with the rendering of a ticket's
// status view
package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Status is the lifecycle state of a ticket
type Status string

// Ticket statuses
const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

var (
	// ErrNotFound is returned when no ticket matches the criteria
	ErrNotFound = errors.New("ticket not found")

	// ErrUnboundedCriteria is returned when deleting with criteria that would select every ticket
	ErrUnboundedCriteria = errors.New("criteria don't select any specific ticket")

	// ErrQuotaExceeded is returned when an open ticket limit is reached
	ErrQuotaExceeded = errors.New("open ticket quota exceeded")

	// ErrSelfAssign is returned when a ticket author tries to take over their own ticket
	ErrSelfAssign = errors.New("authors can't assign their own ticket to themselves")

	// ErrNotConfigured is returned when the community lacks the settings needed by the workflow
	ErrNotConfigured = errors.New("support isn't configured for this community")

	// ErrInvalidTitle is returned when a ticket title is too short or too long
	ErrInvalidTitle = errors.New("invalid ticket title")
)

// Ticket is a support request bound to a dedicated channel
type Ticket struct {
	ID          int64      `json:"id"`
	CommunityID string     `json:"communityId"`
	AuthorID    string     `json:"authorId"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ChannelID   string     `json:"channelId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

// IsOpen returns true if the ticket is open
func (t *Ticket) IsOpen() bool {
	return t.Status == StatusOpen
}

// IsAssigned returns true if someone is responsible for the ticket
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != ""
}

// Criteria selects tickets. Zero-valued fields don't constrain the selection
type Criteria struct {
	ID          int64
	CommunityID string
	AuthorID    string
	ChannelID   string
	Status      Status
}

// IsZero returns true if the criteria don't constrain the selection at all
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// ByID returns the criteria selecting a ticket by id
func ByID(id int64) Criteria {
	return Criteria{ID: id}
}

// ByChannel returns the criteria selecting the ticket bound to a channel
func ByChannel(channelID string) Criteria {
	return Criteria{ChannelID: channelID}
}

// Matches returns true if the ticket satisfies every set field of the criteria
func (c Criteria) Matches(t *Ticket) bool {
	return (c.ID == 0 || c.ID == t.ID) &&
		(c.CommunityID == "" || c.CommunityID == t.CommunityID) &&
		(c.AuthorID == "" || c.AuthorID == t.AuthorID) &&
		(c.ChannelID == "" || c.ChannelID == t.ChannelID) &&
		(c.Status == "" || c.Status == t.Status)
}

// String returns a readable form of the criteria for logs and error messages
func (c Criteria) String() string {
	return fmt.Sprintf("id=%d community=%s author=%s channel=%s status=%s", c.ID, c.CommunityID, c.AuthorID, c.ChannelID, c.Status)
}

// Repository persists tickets. Implementations must not cache records: every Find reflects the
// latest Save
type Repository interface {
	// Find returns the ticket with the lowest id matching the criteria or ErrNotFound
	Find(ctx context.Context, c Criteria) (t *Ticket, err error)

	// Count returns the number of tickets matching the criteria
	Count(ctx context.Context, c Criteria) (count int, err error)

	// Save inserts the ticket when its id is zero (assigning a new id) and replaces it otherwise
	Save(ctx context.Context, t *Ticket) (err error)

	// Delete removes every ticket matching the criteria. Criteria that don't constrain the selection
	// are refused with ErrUnboundedCriteria
	Delete(ctx context.Context, c Criteria) (err error)
}

// QuotaError is returned when creating a ticket would exceed an open ticket limit
type QuotaError struct {
	Limit     int
	Community bool
}

// Error implements error
func (e *QuotaError) Error() string {
	if e.Community {
		return fmt.Sprintf("%v: community limit of %d reached", ErrQuotaExceeded, e.Limit)
	}

	return fmt.Sprintf("%v: personal limit of %d reached", ErrQuotaExceeded, e.Limit)
}

// Unwrap classifies the error as ErrQuotaExceeded
func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}
