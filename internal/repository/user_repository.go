package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// UserRepository defines persistence access for local accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByAccountName(ctx context.Context, name string) (*domain.User, error)
	CreateIfAbsent(ctx context.Context, user *domain.User) (*domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	// id lookups never expose the password hash
	const query = `
        SELECT id, account_name, display_name, is_external, created_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.AccountName,
		&user.DisplayName,
		&user.IsExternal,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByAccountName(ctx context.Context, name string) (*domain.User, error) {
	const query = `
        SELECT id, account_name, password_hash, display_name, is_external, created_at
        FROM users WHERE account_name=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&user.ID,
		&user.AccountName,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsExternal,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateIfAbsent inserts a new account. The account_name unique constraint is
// the concurrency guard for just-in-time provisioning: when two resolution
// attempts race, the loser re-reads the winning row instead of erroring.
func (r *userRepository) CreateIfAbsent(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
        INSERT INTO users (account_name, password_hash, display_name, is_external)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		user.AccountName,
		user.PasswordHash,
		user.DisplayName,
		user.IsExternal,
	).Scan(&user.ID, &user.CreatedAt)
	if err == nil {
		return user, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
		existing, readErr := r.GetByAccountName(ctx, user.AccountName)
		if readErr != nil {
			if readErr == pgx.ErrNoRows {
				return nil, err
			}
			return nil, readErr
		}
		return existing, nil
	}
	return nil, err
}

func (r *userRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, account_name, display_name, is_external, created_at
        FROM users ORDER BY account_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.AccountName,
			&user.DisplayName,
			&user.IsExternal,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

const pgerrUniqueViolation = "23505"
