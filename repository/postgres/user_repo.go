package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository. Email
// uniqueness rides on the users_email_unique constraint, so concurrent
// inserts of the same email resolve inside the database, not in application
// code.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, date_of_birth, password_hash, permissions, addresses, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
		INSERT INTO users (email, first_name, last_name, date_of_birth, password_hash, permissions, addresses)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	addresses, err := marshalAddresses(user.Addresses)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.PasswordHash,
		user.Permissions.Strings(),
		addresses,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, mapWriteError(err)
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
		UPDATE users
		SET email = $2,
			first_name = $3,
			last_name = $4,
			date_of_birth = $5,
			password_hash = $6,
			permissions = $7,
			addresses = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	addresses, err := marshalAddresses(user.Addresses)
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.PasswordHash,
		user.Permissions.Strings(),
		addresses,
	)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *userRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *userRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	return err
}

func (r *userRepository) Page(ctx context.Context, spec domain.PageSpec) (*domain.UserPage, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, err
	}

	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, spec.Size, spec.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &domain.UserPage{
		Items: make([]domain.UserView, 0, spec.Size),
		Page:  spec.Page,
		Size:  spec.Size,
		Total: total,
	}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, user.View())
	}
	return page, rows.Err()
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// mapWriteError translates a unique-constraint violation into the domain
// validation error so the race between check-then-write callers stays safe.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailExists
	}
	return err
}
