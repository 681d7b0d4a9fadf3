package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// UserFilter captures directory search parameters. All fields are optional;
// nil means "no constraint".
type UserFilter struct {
	Role    *domain.Role
	HouseID *string
	Search  *string
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListStudents(ctx context.Context, houseID *string) ([]domain.User, error)
	ListWithFilter(ctx context.Context, filter UserFilter) ([]domain.User, error)
	ExistsStudentCodeOrEmail(ctx context.Context, studentCode, email string) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
	ToggleActive(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetTwoFactor(ctx context.Context, id string, secret *string, enabled bool) error
	TouchLastLogin(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        u.id, u.student_code, u.staff_code, u.first_name, u.last_name, u.email,
        u.password_hash, u.phone, u.class, u.role, u.house_id,
        u.guardian_name, u.guardian_phone, u.is_active,
        u.two_factor_secret, u.two_factor_enabled, u.last_login,
        u.created_at, u.updated_at, COALESCE(h.name, '')`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.StudentCode,
		&user.StaffCode,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Class,
		&user.Role,
		&user.HouseID,
		&user.GuardianName,
		&user.GuardianPhone,
		&user.IsActive,
		&user.TwoFactorSecret,
		&user.TwoFactorEnabled,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.HouseName,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (
            student_code, staff_code, first_name, last_name, email, password_hash,
            phone, class, role, house_id, guardian_name, guardian_phone, is_active
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.StudentCode,
		user.StaffCode,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Class,
		user.Role,
		user.HouseID,
		user.GuardianName,
		user.GuardianPhone,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET
            student_code=$1, first_name=$2, last_name=$3, email=$4,
            phone=$5, class=$6, house_id=$7, guardian_name=$8, guardian_phone=$9,
            updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		user.StudentCode,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Class,
		user.HouseID,
		user.GuardianName,
		user.GuardianPhone,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN houses h ON u.house_id = h.id
        WHERE u.id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN houses h ON u.house_id = h.id
        WHERE u.email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) ListStudents(ctx context.Context, houseID *string) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN houses h ON u.house_id = h.id
        WHERE u.role='student'`
	args := []any{}
	if houseID != nil {
		args = append(args, *houseID)
		query += fmt.Sprintf(" AND u.house_id=$%d", len(args))
	}
	query += " ORDER BY h.name, u.last_name, u.first_name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepository) ListWithFilter(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN houses h ON u.house_id = h.id
        WHERE 1=1`
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		query += fmt.Sprintf(" AND u.role=$%d", len(args))
	}
	if filter.HouseID != nil {
		args = append(args, *filter.HouseID)
		query += fmt.Sprintf(" AND u.house_id=$%d", len(args))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		p := len(args)
		query += fmt.Sprintf(" AND (u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)", p, p, p)
	}
	query += " ORDER BY u.role, u.last_name, u.first_name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepository) ExistsStudentCodeOrEmail(ctx context.Context, studentCode, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE student_code=$1 OR email=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, studentCode, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) ToggleActive(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        UPDATE users SET is_active = NOT is_active, updated_at=NOW() WHERE id=$1
        RETURNING id`
	var updatedID string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&updatedID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, updatedID)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetTwoFactor(ctx context.Context, id string, secret *string, enabled bool) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET two_factor_secret=$1, two_factor_enabled=$2, updated_at=NOW() WHERE id=$3`,
		secret, enabled, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login=NOW() WHERE id=$1`, id)
	return err
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}
