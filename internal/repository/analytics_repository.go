package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsOverview aggregates request totals and approval latency.
type AnalyticsOverview struct {
	TotalRequests    int64    `json:"total_requests"`
	Pending          int64    `json:"pending"`
	Approved         int64    `json:"approved"`
	Rejected         int64    `json:"rejected"`
	Expired          int64    `json:"expired"`
	AvgApprovalHours *float64 `json:"avg_approval_hours"`
}

// SemesterBreakdown counts requests per semester/academic year.
type SemesterBreakdown struct {
	Semester     string `json:"semester"`
	AcademicYear string `json:"academic_year"`
	Total        int64  `json:"total"`
	Approved     int64  `json:"approved"`
}

// TopRequester is one row of the most-frequent-requesters report.
type TopRequester struct {
	StudentName  string `json:"student_name"`
	StudentCode  string `json:"student_code"`
	HouseName    string `json:"house_name"`
	RequestCount int64  `json:"request_count"`
}

// AnalyticsRepository serves read-only reporting queries.
type AnalyticsRepository interface {
	Overview(ctx context.Context, from, to *time.Time) (*AnalyticsOverview, error)
	BySemester(ctx context.Context) ([]SemesterBreakdown, error)
	TopRequesters(ctx context.Context, limit int) ([]TopRequester, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository builds repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) Overview(ctx context.Context, from, to *time.Time) (*AnalyticsOverview, error) {
	const query = `
        SELECT
            COUNT(*) AS total_requests,
            COUNT(*) FILTER (WHERE status = 'pending') AS pending,
            COUNT(*) FILTER (WHERE status = 'approved') AS approved,
            COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
            COUNT(*) FILTER (WHERE is_expired = true) AS expired,
            AVG(EXTRACT(EPOCH FROM (approved_at - created_at))/3600)::numeric(10,2) AS avg_approval_hours
        FROM exeat_requests
        WHERE created_at >= COALESCE($1::timestamptz, '2000-01-01')
          AND created_at <= COALESCE($2::timestamptz, NOW())`
	var overview AnalyticsOverview
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(
		&overview.TotalRequests,
		&overview.Pending,
		&overview.Approved,
		&overview.Rejected,
		&overview.Expired,
		&overview.AvgApprovalHours,
	); err != nil {
		return nil, err
	}
	return &overview, nil
}

func (r *analyticsRepository) BySemester(ctx context.Context) ([]SemesterBreakdown, error) {
	const query = `
        SELECT semester, academic_year,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE status = 'approved') AS approved
        FROM exeat_requests
        GROUP BY semester, academic_year
        ORDER BY academic_year DESC, semester DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SemesterBreakdown
	for rows.Next() {
		var row SemesterBreakdown
		if err := rows.Scan(&row.Semester, &row.AcademicYear, &row.Total, &row.Approved); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) TopRequesters(ctx context.Context, limit int) ([]TopRequester, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT u.first_name || ' ' || u.last_name AS student_name,
               COALESCE(u.student_code, ''),
               h.name AS house_name,
               COUNT(r.id) AS request_count
        FROM users u
        JOIN exeat_requests r ON u.id = r.student_id
        JOIN houses h ON u.house_id = h.id
        WHERE u.role = 'student'
        GROUP BY u.id, u.first_name, u.last_name, u.student_code, h.name
        ORDER BY request_count DESC
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TopRequester
	for rows.Next() {
		var row TopRequester
		if err := rows.Scan(&row.StudentName, &row.StudentCode, &row.HouseName, &row.RequestCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
