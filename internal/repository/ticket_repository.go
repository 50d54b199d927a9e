package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// TicketPatch carries the mutable ticket fields for an update. Nil pointers
// leave the column untouched; this is the whitelist boundary for PUT.
type TicketPatch struct {
	Title       *string
	Description *string
	Requester   *string
	Status      *domain.TicketStatus
	Category    *string
	HoldReason  *string
	DueDate     *time.Time
	AssignedTo  *string
	AssignedAt  *time.Time
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Requester == nil &&
		p.Status == nil && p.Category == nil && p.HoldReason == nil &&
		p.DueDate == nil && p.AssignedTo == nil && p.AssignedAt == nil
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Patch(ctx context.Context, id int64, patch TicketPatch) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, requester, computer, location, category,
               hold_reason, due_date, assigned_to, assigned_at, status, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, requester, computer, location, category, hold_reason, due_date, assigned_to, assigned_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Requester,
		ticket.Computer,
		ticket.Location,
		ticket.Category,
		ticket.HoldReason,
		ticket.DueDate,
		ticket.AssignedTo,
		ticket.AssignedAt,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

// Patch applies the non-nil fields as a single-row UPDATE and returns the
// resulting ticket. updated_at is stamped by the database.
func (r *ticketRepository) Patch(ctx context.Context, id int64, patch TicketPatch) (*domain.Ticket, error) {
	sets := []string{}
	args := []any{}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.Requester != nil {
		addSet("requester", *patch.Requester)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.Category != nil {
		addSet("category", *patch.Category)
	}
	if patch.HoldReason != nil {
		addSet("hold_reason", *patch.HoldReason)
	}
	if patch.DueDate != nil {
		addSet("due_date", *patch.DueDate)
	}
	if patch.AssignedTo != nil {
		addSet("assigned_to", *patch.AssignedTo)
	}
	if patch.AssignedAt != nil {
		addSet("assigned_at", *patch.AssignedAt)
	}

	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)

	return r.scanSingle(r.pool.QueryRow(ctx, query, args...))
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.scanSingle(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) scanSingle(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Requester,
		&ticket.Computer,
		&ticket.Location,
		&ticket.Category,
		&ticket.HoldReason,
		&ticket.DueDate,
		&ticket.AssignedTo,
		&ticket.AssignedAt,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Requester,
			&ticket.Computer,
			&ticket.Location,
			&ticket.Category,
			&ticket.HoldReason,
			&ticket.DueDate,
			&ticket.AssignedTo,
			&ticket.AssignedAt,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
