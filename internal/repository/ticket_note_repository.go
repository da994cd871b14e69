package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// TicketNoteRepository encapsulates ticket note persistence.
type TicketNoteRepository interface {
	Create(ctx context.Context, note *domain.TicketNote) error
	ListByTicket(ctx context.Context, ticketID string, internalVisible bool) ([]domain.TicketNote, error)
}

type ticketNoteRepository struct {
	db *DB
}

// NewTicketNoteRepository instantiates repository.
func NewTicketNoteRepository(db *DB) TicketNoteRepository {
	return &ticketNoteRepository{db: db}
}

func (r *ticketNoteRepository) Create(ctx context.Context, note *domain.TicketNote) error {
	const query = `
        INSERT INTO ticket_notes (ticket_id, author_id, content, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.querier(ctx).QueryRow(ctx, query,
		note.TicketID,
		note.AuthorID,
		note.Content,
		note.IsInternal,
	).Scan(&note.ID, &note.CreatedAt)
}

// ListByTicket returns notes in creation order. When internalVisible is
// false internal notes are excluded at the query level, so they never leave
// the store for client-facing reads.
func (r *ticketNoteRepository) ListByTicket(ctx context.Context, ticketID string, internalVisible bool) ([]domain.TicketNote, error) {
	query := `
        SELECT id, ticket_id, author_id, content, is_internal, created_at
        FROM ticket_notes WHERE ticket_id=$1`
	if !internalVisible {
		query += ` AND is_internal=false`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.querier(ctx).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketNotes(rows)
}

func scanTicketNotes(rows pgx.Rows) ([]domain.TicketNote, error) {
	var result []domain.TicketNote
	for rows.Next() {
		var note domain.TicketNote
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.AuthorID,
			&note.Content,
			&note.IsInternal,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
