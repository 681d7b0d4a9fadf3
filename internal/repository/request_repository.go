package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// RequestFilter is a structured predicate over exeat requests. Role scoping
// is expressed through the same fields: services set StudentID for students
// and HouseID for housemasters before intersecting caller-supplied filters.
type RequestFilter struct {
	StudentID    *string
	HouseID      *string
	Status       *domain.RequestStatus
	Semester     *string
	AcademicYear *string
	// Search matches student name or student code, case-insensitive.
	Search *string
	Limit  int
	Offset int
}

// RequestRepository encapsulates exeat request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.ExeatRequest) error
	Update(ctx context.Context, req *domain.ExeatRequest) error
	GetByID(ctx context.Context, id string) (*domain.ExeatRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ExeatRequest, error)
	// ListPendingByIDs returns the pending requests among ids, optionally
	// constrained to one house. Missing or non-pending ids are skipped.
	ListPendingByIDs(ctx context.Context, ids []string, houseID *string) ([]domain.ExeatRequest, error)
	// CountForSemester counts a student's requests in one semester/year.
	CountForSemester(ctx context.Context, studentID, semester, academicYear string) (int64, error)
	// MarkExpired flips is_expired on pending requests past their expiry
	// timestamp. Idempotent; returns the number of rows flipped.
	MarkExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context, filter RequestFilter) (*domain.RequestStats, error)
	StatsByHouse(ctx context.Context) ([]domain.HouseRequestStats, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `
        r.id, r.student_id, r.house_id, r.departure_date, r.departure_time,
        r.duration, r.destination, r.reason, r.guardian_name, r.guardian_phone,
        r.status, r.semester, r.academic_year,
        r.approved_by, r.approved_at, r.rejected_by, r.rejected_at, r.rejection_reason,
        r.cancelled_by, r.cancelled_at, r.cancellation_reason,
        r.edited_at, r.expires_at, r.is_expired, r.created_at, r.updated_at,
        s.first_name || ' ' || s.last_name, s.class, COALESCE(s.student_code, ''),
        h.name,
        a.first_name || ' ' || a.last_name,
        rj.first_name || ' ' || rj.last_name`

const requestJoins = `
        FROM exeat_requests r
        JOIN users s ON r.student_id = s.id
        JOIN houses h ON r.house_id = h.id
        LEFT JOIN users a ON r.approved_by = a.id
        LEFT JOIN users rj ON r.rejected_by = rj.id`

func scanRequest(row pgx.Row) (*domain.ExeatRequest, error) {
	var req domain.ExeatRequest
	if err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.HouseID,
		&req.DepartureDate,
		&req.DepartureTime,
		&req.Duration,
		&req.Destination,
		&req.Reason,
		&req.GuardianName,
		&req.GuardianPhone,
		&req.Status,
		&req.Semester,
		&req.AcademicYear,
		&req.ApprovedBy,
		&req.ApprovedAt,
		&req.RejectedBy,
		&req.RejectedAt,
		&req.RejectionReason,
		&req.CancelledBy,
		&req.CancelledAt,
		&req.CancellationReason,
		&req.EditedAt,
		&req.ExpiresAt,
		&req.IsExpired,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.StudentName,
		&req.StudentClass,
		&req.StudentCode,
		&req.HouseName,
		&req.ApprovedByName,
		&req.RejectedByName,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Create(ctx context.Context, req *domain.ExeatRequest) error {
	const query = `
        INSERT INTO exeat_requests (
            student_id, house_id, departure_date, departure_time, duration,
            destination, reason, guardian_name, guardian_phone, status,
            semester, academic_year, expires_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.StudentID,
		req.HouseID,
		req.DepartureDate,
		req.DepartureTime,
		req.Duration,
		req.Destination,
		req.Reason,
		req.GuardianName,
		req.GuardianPhone,
		req.Status,
		req.Semester,
		req.AcademicYear,
		req.ExpiresAt,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, req *domain.ExeatRequest) error {
	const query = `
        UPDATE exeat_requests SET
            departure_date=$1, departure_time=$2, duration=$3, destination=$4,
            reason=$5, guardian_name=$6, guardian_phone=$7, status=$8,
            approved_by=$9, approved_at=$10, rejected_by=$11, rejected_at=$12,
            rejection_reason=$13, cancelled_by=$14, cancelled_at=$15,
            cancellation_reason=$16, edited_at=$17, expires_at=$18, is_expired=$19,
            updated_at=NOW()
        WHERE id=$20`
	cmd, err := r.pool.Exec(ctx, query,
		req.DepartureDate,
		req.DepartureTime,
		req.Duration,
		req.Destination,
		req.Reason,
		req.GuardianName,
		req.GuardianPhone,
		req.Status,
		req.ApprovedBy,
		req.ApprovedAt,
		req.RejectedBy,
		req.RejectedAt,
		req.RejectionReason,
		req.CancelledBy,
		req.CancelledAt,
		req.CancellationReason,
		req.EditedAt,
		req.ExpiresAt,
		req.IsExpired,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ExeatRequest, error) {
	query := `SELECT` + requestColumns + requestJoins + ` WHERE r.id=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ExeatRequest, error) {
	query := `SELECT` + requestColumns + requestJoins + ` WHERE 1=1`
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		query += fmt.Sprintf(" AND r.student_id=$%d", len(args))
	}
	if filter.HouseID != nil {
		args = append(args, *filter.HouseID)
		query += fmt.Sprintf(" AND r.house_id=$%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND r.status=$%d", len(args))
	}
	if filter.Semester != nil {
		args = append(args, *filter.Semester)
		query += fmt.Sprintf(" AND r.semester=$%d", len(args))
	}
	if filter.AcademicYear != nil {
		args = append(args, *filter.AcademicYear)
		query += fmt.Sprintf(" AND r.academic_year=$%d", len(args))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		p := len(args)
		query += fmt.Sprintf(" AND (s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR s.student_code ILIKE $%d)", p, p, p)
	}

	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ListPendingByIDs(ctx context.Context, ids []string, houseID *string) ([]domain.ExeatRequest, error) {
	if len(ids) == 0 {
		return []domain.ExeatRequest{}, nil
	}
	query := `SELECT` + requestColumns + requestJoins + ` WHERE r.status='pending' AND r.id = ANY($1)`
	args := []any{ids}
	if houseID != nil {
		args = append(args, *houseID)
		query += fmt.Sprintf(" AND r.house_id=$%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) CountForSemester(ctx context.Context, studentID, semester, academicYear string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM exeat_requests
        WHERE student_id=$1 AND semester=$2 AND academic_year=$3`
	var count int64
	if err := r.pool.QueryRow(ctx, query, studentID, semester, academicYear).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *requestRepository) MarkExpired(ctx context.Context) (int64, error) {
	const query = `
        UPDATE exeat_requests SET is_expired=true, updated_at=NOW()
        WHERE status='pending' AND is_expired=false AND expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *requestRepository) Stats(ctx context.Context, filter RequestFilter) (*domain.RequestStats, error) {
	query := `
        SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE status = 'pending') AS pending,
            COUNT(*) FILTER (WHERE status = 'approved') AS approved,
            COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
            COUNT(*) FILTER (WHERE is_expired = true) AS expired
        FROM exeat_requests WHERE 1=1`
	args := []any{}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		query += fmt.Sprintf(" AND student_id=$%d", len(args))
	}
	if filter.HouseID != nil {
		args = append(args, *filter.HouseID)
		query += fmt.Sprintf(" AND house_id=$%d", len(args))
	}

	var stats domain.RequestStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Approved,
		&stats.Rejected,
		&stats.Expired,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *requestRepository) StatsByHouse(ctx context.Context) ([]domain.HouseRequestStats, error) {
	const query = `
        SELECT
            h.id, h.name,
            COUNT(r.id) AS total,
            COUNT(r.id) FILTER (WHERE r.status = 'pending') AS pending,
            COUNT(r.id) FILTER (WHERE r.status = 'approved') AS approved,
            COUNT(r.id) FILTER (WHERE r.status = 'rejected') AS rejected
        FROM houses h
        LEFT JOIN exeat_requests r ON r.house_id = h.id
        GROUP BY h.id, h.name
        ORDER BY total DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HouseRequestStats
	for rows.Next() {
		var hs domain.HouseRequestStats
		if err := rows.Scan(&hs.HouseID, &hs.HouseName, &hs.Total, &hs.Pending, &hs.Approved, &hs.Rejected); err != nil {
			return nil, err
		}
		result = append(result, hs)
	}
	return result, rows.Err()
}

func collectRequests(rows pgx.Rows) ([]domain.ExeatRequest, error) {
	var result []domain.ExeatRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}
