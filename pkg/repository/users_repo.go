package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/notely/identity/pkg/domain"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// UsersRepository persists user accounts in Postgres. The uniqueness
// and compare-and-set guarantees the services rely on are expressed as
// single SQL statements, so they hold across server instances.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// CreateUser inserts a new account. The unique indexes on email and
// username make this the single atomic check-and-insert that closes the
// registration race; the violated constraint tells us which field
// collided.
func (r *UsersRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.EmailVerified,
		user.CreatedAt, user.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return domain.ErrEmailTaken
		case "users_username_key":
			return domain.ErrUsernameTaken
		}
		return domain.ErrEmailTaken
	}
	return err
}

const userColumns = `
	id, username, email, password_hash, email_verified,
	otp_code_hash, otp_expires_at, otp_attempts, otp_verified,
	created_at, updated_at
`

// FindByEmail retrieves a user by normalized email.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByID retrieves a user by ID.
func (r *UsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// MarkEmailVerified flips email_verified only if it was false. Zero
// rows affected means either the account is already verified (reported
// as ok=false, no error) or it does not exist.
func (r *UsersRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND email_verified = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrUserNotFound
	}
	return false, nil
}

// UpdateOTPState replaces the recovery state with next only if every
// otp column still matches prev. IS NOT DISTINCT FROM makes the
// comparison NULL-safe, so "no state" participates in the CAS like any
// other value.
func (r *UsersRepository) UpdateOTPState(ctx context.Context, id uuid.UUID, prev, next *domain.OTPState) (bool, error) {
	prevHash, prevExpires, prevAttempts, prevVerified := otpColumns(prev)
	nextHash, nextExpires, nextAttempts, nextVerified := otpColumns(next)

	query := `
		UPDATE users
		SET otp_code_hash = $2, otp_expires_at = $3, otp_attempts = $4, otp_verified = $5,
		    updated_at = NOW()
		WHERE id = $1
		  AND otp_code_hash IS NOT DISTINCT FROM $6
		  AND otp_expires_at IS NOT DISTINCT FROM $7
		  AND otp_attempts IS NOT DISTINCT FROM $8
		  AND otp_verified IS NOT DISTINCT FROM $9
	`
	result, err := r.db.ExecContext(ctx, query, id,
		nextHash, nextExpires, nextAttempts, nextVerified,
		prevHash, prevExpires, prevAttempts, prevVerified,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SetPasswordAndClearOTP writes the new hash and clears the recovery
// state in one statement, guarded on the state being verified. The
// guard is what makes the verified code single-use under concurrent
// change-password calls.
func (r *UsersRepository) SetPasswordAndClearOTP(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    otp_code_hash = NULL, otp_expires_at = NULL, otp_attempts = NULL, otp_verified = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND otp_verified = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UsersRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var (
		otpHash     sql.NullString
		otpExpires  sql.NullTime
		otpAttempts sql.NullInt32
		otpVerified sql.NullBool
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.EmailVerified,
		&otpHash, &otpExpires, &otpAttempts, &otpVerified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if otpHash.Valid {
		user.OTP = &domain.OTPState{
			CodeHash:  otpHash.String,
			ExpiresAt: otpExpires.Time,
			Attempts:  int(otpAttempts.Int32),
			Verified:  otpVerified.Bool,
		}
	}
	return user, nil
}

func otpColumns(s *domain.OTPState) (sql.NullString, sql.NullTime, sql.NullInt32, sql.NullBool) {
	if s == nil {
		return sql.NullString{}, sql.NullTime{}, sql.NullInt32{}, sql.NullBool{}
	}
	return sql.NullString{String: s.CodeHash, Valid: true},
		sql.NullTime{Time: s.ExpiresAt, Valid: true},
		sql.NullInt32{Int32: int32(s.Attempts), Valid: true},
		sql.NullBool{Bool: s.Verified, Valid: true}
}
