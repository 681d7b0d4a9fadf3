package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// NoteRepository stores approver annotations. Append-only.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.RequestNote) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestNote, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository builds repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.RequestNote) error {
	const query = `
        INSERT INTO request_notes (request_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.RequestID,
		note.AuthorID,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestNote, error) {
	const query = `
        SELECT n.id, n.request_id, n.author_id, n.body, n.created_at,
               u.first_name || ' ' || u.last_name, u.role
        FROM request_notes n
        JOIN users u ON n.author_id = u.id
        WHERE n.request_id=$1
        ORDER BY n.created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestNote
	for rows.Next() {
		var note domain.RequestNote
		if err := rows.Scan(
			&note.ID,
			&note.RequestID,
			&note.AuthorID,
			&note.Body,
			&note.CreatedAt,
			&note.AuthorName,
			&note.AuthorRole,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
