package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

var ErrGrantNotFound = errors.New("reset grant not found")

// PasswordResetRepository handles reset grant persistence. Grants are
// short-lived rows; superseded and redeemed ones are deleted outright and
// an expiry sweep clears whatever remains.
type PasswordResetRepository struct {
	db *sql.DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(db *sql.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create inserts a new grant and sets the generated ID.
func (r *PasswordResetRepository) Create(ctx context.Context, grant *model.PasswordResetGrant) error {
	query := `INSERT INTO password_resets (email, token, expires_at, used) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, grant.Email, grant.Token, grant.ExpiresAt, grant.Used)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	grant.ID = id
	return nil
}

// GetUsable retrieves the grant for a token, provided it is unused and
// unexpired. Anything else is ErrGrantNotFound; the caller cannot tell a
// wrong token from a stale one.
func (r *PasswordResetRepository) GetUsable(ctx context.Context, token string, now time.Time) (*model.PasswordResetGrant, error) {
	query := `SELECT id, email, token, expires_at, used, created_at
		FROM password_resets WHERE token = ? AND used = FALSE AND expires_at > ?`

	grant := &model.PasswordResetGrant{}
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(
		&grant.ID, &grant.Email, &grant.Token, &grant.ExpiresAt, &grant.Used, &grant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}

	return grant, nil
}

// MarkUsed flags a grant as redeemed.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE password_resets SET used = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGrantNotFound
	}

	return nil
}

// DeleteByEmail purges every grant for an email, used when a new grant
// supersedes old ones and after a successful reset.
func (r *PasswordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE email = ?`, email)
	return err
}

// DeleteExpired removes grants past their expiry and reports how many rows
// went. The store has no native row TTL, so a background sweep calls this
// periodically.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
