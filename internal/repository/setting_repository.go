package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// SettingRepository stores system-wide configuration rows.
type SettingRepository interface {
	List(ctx context.Context) ([]domain.SystemSetting, error)
	// Upsert inserts or updates the row keyed by setting name.
	Upsert(ctx context.Context, key, value, updatedBy string) (*domain.SystemSetting, error)
}

type settingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository builds repository.
func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

func (r *settingRepository) List(ctx context.Context) ([]domain.SystemSetting, error) {
	const query = `
        SELECT setting_key, setting_value, updated_by, updated_at
        FROM system_settings ORDER BY setting_key`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SystemSetting
	for rows.Next() {
		var setting domain.SystemSetting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedBy, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, setting)
	}
	return result, rows.Err()
}

func (r *settingRepository) Upsert(ctx context.Context, key, value, updatedBy string) (*domain.SystemSetting, error) {
	const query = `
        INSERT INTO system_settings (setting_key, setting_value, updated_by, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (setting_key)
        DO UPDATE SET setting_value=$2, updated_by=$3, updated_at=NOW()
        RETURNING setting_key, setting_value, updated_by, updated_at`
	var setting domain.SystemSetting
	if err := r.pool.QueryRow(ctx, query, key, value, updatedBy).Scan(
		&setting.Key,
		&setting.Value,
		&setting.UpdatedBy,
		&setting.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &setting, nil
}
