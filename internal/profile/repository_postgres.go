package profile

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getProfileQuery = `
		SELECT id, full_name, email, phone, location, home_address
		FROM profiles
		WHERE id = $1
	`
	upsertProfileQuery = `
		INSERT INTO profiles (id, full_name, email, phone, location, home_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			location = EXCLUDED.location,
			home_address = EXCLUDED.home_address
	`
	deleteAllProfilesQuery = `DELETE FROM profiles`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Profile, error) {
	var p Profile
	var fullName, email, phone, location, homeAddr sql.NullString
	err := r.db.QueryRowContext(ctx, getProfileQuery, id).
		Scan(&p.ID, &fullName, &email, &phone, &location, &homeAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	p.FullName = fullName.String
	p.Email = email.String
	p.Phone = phone.String
	p.Location = location.String
	p.HomeAddress = homeAddr.String
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	if _, err := r.db.ExecContext(ctx, upsertProfileQuery,
		p.ID, p.FullName, p.Email, p.Phone, p.Location, p.HomeAddress,
	); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, deleteAllProfilesQuery)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
