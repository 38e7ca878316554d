package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexandre-normand/modscot/ticket"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const ticketColumns = `id, community_id, author_id, assignee_id, title, description, status, channel_id, created_at, closed_at`

// querier is implemented by pgx pools, connections and transactions
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketRepository implements ticket.Repository on postgres
type TicketRepository struct {
	db querier
}

// NewTicketRepository instantiates the repository on a pool (or any querier)
func NewTicketRepository(db querier) *TicketRepository {
	return &TicketRepository{db: db}
}

// where returns the where clause selecting tickets matching the criteria along with its arguments
func where(c ticket.Criteria) (clause string, args []any) {
	clauses := []string{"1=1"}
	args = []any{}

	if c.ID != 0 {
		args = append(args, c.ID)
		clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))
	}
	if c.CommunityID != "" {
		args = append(args, c.CommunityID)
		clauses = append(clauses, fmt.Sprintf("community_id=$%d", len(args)))
	}
	if c.AuthorID != "" {
		args = append(args, c.AuthorID)
		clauses = append(clauses, fmt.Sprintf("author_id=$%d", len(args)))
	}
	if c.ChannelID != "" {
		args = append(args, c.ChannelID)
		clauses = append(clauses, fmt.Sprintf("channel_id=$%d", len(args)))
	}
	if c.Status != "" {
		args = append(args, string(c.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// Find implements ticket.Repository
func (r *TicketRepository) Find(ctx context.Context, c ticket.Criteria) (t *ticket.Ticket, err error) {
	clause, args := where(c)
	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE %s ORDER BY id LIMIT 1`, ticketColumns, clause)

	t = new(ticket.Ticket)
	var status string
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.CommunityID,
		&t.AuthorID,
		&t.AssigneeID,
		&t.Title,
		&t.Description,
		&status,
		&t.ChannelID,
		&t.CreatedAt,
		&t.ClosedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ticket.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "Error querying ticket with [%s]", c)
	}

	t.Status = ticket.Status(status)

	return t, nil
}

// Count implements ticket.Repository
func (r *TicketRepository) Count(ctx context.Context, c ticket.Criteria) (count int, err error) {
	clause, args := where(c)

	err = r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM support_tickets WHERE %s`, clause), args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "Error counting tickets with [%s]", c)
	}

	return count, nil
}

// Save implements ticket.Repository
func (r *TicketRepository) Save(ctx context.Context, t *ticket.Ticket) (err error) {
	if t.ID == 0 {
		const insert = `
        INSERT INTO support_tickets (community_id, author_id, assignee_id, title, description, status, channel_id, created_at, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
		return r.db.QueryRow(ctx, insert,
			t.CommunityID,
			t.AuthorID,
			t.AssigneeID,
			t.Title,
			t.Description,
			string(t.Status),
			t.ChannelID,
			t.CreatedAt,
			t.ClosedAt,
		).Scan(&t.ID)
	}

	const update = `
        UPDATE support_tickets SET assignee_id=$1, title=$2, description=$3, status=$4, channel_id=$5, closed_at=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, update,
		t.AssigneeID,
		t.Title,
		t.Description,
		string(t.Status),
		t.ChannelID,
		t.ClosedAt,
		t.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "Error updating ticket [%d]", t.ID)
	}

	if cmd.RowsAffected() == 0 {
		return errors.Wrapf(ticket.ErrNotFound, "ticket [%d]", t.ID)
	}

	return nil
}

// Delete implements ticket.Repository
func (r *TicketRepository) Delete(ctx context.Context, c ticket.Criteria) (err error) {
	if c.IsZero() {
		return errors.Wrap(ticket.ErrUnboundedCriteria, "Refusing to delete every ticket")
	}

	clause, args := where(c)

	if _, err = r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM support_tickets WHERE %s`, clause), args...); err != nil {
		return errors.Wrapf(err, "Error deleting tickets with [%s]", c)
	}

	return nil
}
