package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// Audit query limits. Callers may request fewer rows but never more.
const (
	auditDefaultLimit = 100
	auditMaxLimit     = 500
)

// AuditFilter captures audit log query parameters.
type AuditFilter struct {
	UserID *string
	Action *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// AuditRepository is the append-only audit trail store.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	ListWithFilter(ctx context.Context, filter AuditFilter) ([]domain.AuditLogEntry, error)
	StatsByAction(ctx context.Context) ([]domain.AuditActionStats, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (user_id, action, details, ip_address)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Details,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListWithFilter(ctx context.Context, filter AuditFilter) ([]domain.AuditLogEntry, error) {
	query := `
        SELECT a.id, a.user_id, a.action, a.details, a.ip_address, a.created_at,
               COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.role, 'student')
        FROM audit_logs a
        LEFT JOIN users u ON a.user_id = u.id
        WHERE 1=1`
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND a.user_id=$%d", len(args))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		query += fmt.Sprintf(" AND a.action=$%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND a.created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND a.created_at <= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = auditDefaultLimit
	}
	if limit > auditMaxLimit {
		limit = auditMaxLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.Details,
			&entry.IPAddress,
			&entry.CreatedAt,
			&entry.UserName,
			&entry.UserRole,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) StatsByAction(ctx context.Context) ([]domain.AuditActionStats, error) {
	const query = `
        SELECT action, COUNT(*) AS count, MAX(created_at) AS last_occurrence
        FROM audit_logs
        GROUP BY action
        ORDER BY count DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditActionStats
	for rows.Next() {
		var stats domain.AuditActionStats
		if err := rows.Scan(&stats.Action, &stats.Count, &stats.LastOccurrence); err != nil {
			return nil, err
		}
		result = append(result, stats)
	}
	return result, rows.Err()
}
