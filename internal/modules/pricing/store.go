// README: Pricing config store backed by PostgreSQL.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) LoadAll(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT config_key, config_value
		FROM pricing_configs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// UpdateValue writes a single key and returns whether it existed.
func (s *Store) UpdateValue(ctx context.Context, key string, value float64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE pricing_configs
		SET config_value = $1, updated_at = NOW()
		WHERE config_key = $2`,
		value, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
