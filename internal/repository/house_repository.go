package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exeat-service/internal/domain"
)

// HouseRepository reads the house reference data.
type HouseRepository interface {
	List(ctx context.Context) ([]domain.House, error)
	GetByID(ctx context.Context, id string) (*domain.House, error)
}

type houseRepository struct {
	pool *pgxpool.Pool
}

// NewHouseRepository returns a Postgres-backed implementation.
func NewHouseRepository(pool *pgxpool.Pool) HouseRepository {
	return &houseRepository{pool: pool}
}

func (r *houseRepository) List(ctx context.Context) ([]domain.House, error) {
	const query = `SELECT id, name, created_at FROM houses ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.House
	for rows.Next() {
		var house domain.House
		if err := rows.Scan(&house.ID, &house.Name, &house.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, house)
	}
	return result, rows.Err()
}

func (r *houseRepository) GetByID(ctx context.Context, id string) (*domain.House, error) {
	const query = `SELECT id, name, created_at FROM houses WHERE id=$1`
	var house domain.House
	if err := r.pool.QueryRow(ctx, query, id).Scan(&house.ID, &house.Name, &house.CreatedAt); err != nil {
		return nil, err
	}
	return &house, nil
}
