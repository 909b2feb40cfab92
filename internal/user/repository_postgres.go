package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	getUserByIDQuery = `
		SELECT id, email, password, full_name, created_at
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT id, email, password, full_name, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (id, email, password, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	user, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	if _, err := r.db.ExecContext(ctx, insertUserQuery,
		user.ID,
		user.Email,
		user.Password,
		user.FullName,
		user.CreatedAt,
	); err != nil {
		return User{}, err
	}
	return user, nil
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	var fullName sql.NullString
	if err := scanner.Scan(&user.ID, &user.Email, &user.Password, &fullName, &user.CreatedAt); err != nil {
		return User{}, err
	}
	user.FullName = fullName.String
	return user, nil
}
