package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authline/authline/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id, name, email, password_hash, role, created_at, last_login
		FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `SELECT id, name, email, password_hash, role, created_at, last_login
		FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// Insert persists a new user. The repository assigns the id and creation
// timestamp; a duplicate email surfaces as httpx.ErrDuplicate so the race
// between existence check and insert still resolves to a conflict.
func (r *Repository) Insert(ctx context.Context, user *User) (*User, error) {
	const query = `INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	stored := *user
	stored.ID = uuid.NewString()
	if stored.Role == "" {
		stored.Role = RoleMember
	}
	stored.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, query,
		stored.ID, stored.Name, stored.Email, stored.PasswordHash, stored.Role, stored.CreatedAt)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return &stored, nil
}

// Save persists mutable fields of an existing user.
func (r *Repository) Save(ctx context.Context, user *User) (*User, error) {
	const query = `UPDATE users SET name = $2, email = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email)
	if err != nil {
		return nil, mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.ErrNotFound
	}
	return user, nil
}

// TouchLastLogin records a successful login timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at.UTC())
	return err
}

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var (
		user      User
		createdAt pgtype.Timestamptz
		lastLogin pgtype.Timestamptz
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &createdAt, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = createdAt.Time
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return httpx.ErrDuplicate
	}
	return err
}
