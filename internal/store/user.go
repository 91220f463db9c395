package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/identia/apiserver/types"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code raised when an insert hits
// a unique index. The database enforces email/nickname uniqueness so the
// check-and-insert pair is atomic across concurrent registrations.
const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, nickname, password_hash, verified, pending_code, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE nickname = $1`
	return r.getOne(ctx, query, nickname)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var (
		user        types.User
		pendingCode sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.Verified,
		&pendingCode,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.PendingCode = pendingCode.String
	return user, nil
}

// Create persists a new unverified user. ErrDuplicate is returned when
// either the email or the nickname is already taken.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Verified = false

	const query = `
		INSERT INTO users (email, nickname, password_hash, verified, pending_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.Verified,
		user.PendingCode,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

// MarkVerified flips the user to verified and clears the pending code.
// This is the only mutation a user record ever receives.
func (r *UserRepository) MarkVerified(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET verified = TRUE,
			pending_code = NULL,
			updated_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
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

// Delete removes a user record. It exists only for the registration
// rollback after a failed verification-mail delivery.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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
