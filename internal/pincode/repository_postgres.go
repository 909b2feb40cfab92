package pincode

import (
	"context"
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	listPincodesQuery  = `SELECT code FROM pincodes ORDER BY code`
	insertPincodeQuery = `INSERT INTO pincodes (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`
	deletePincodeQuery = `DELETE FROM pincodes WHERE code = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listPincodesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Add(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, insertPincodeQuery, code)
	return err
}

func (r *PostgresRepository) Remove(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, deletePincodeQuery, code)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
