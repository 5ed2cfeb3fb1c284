package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-shop-auth/app/entity"
)

type AuthCodeRepository struct {
	db DBTX
}

func NewAuthCodeRepository(db DBTX) *AuthCodeRepository {
	return &AuthCodeRepository{db: db}
}

func (r *AuthCodeRepository) Create(ctx context.Context, code *entity.AuthCode) error {
	query := `
		INSERT INTO auth_codes (user_id, code, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		code.UserID,
		code.Code,
		code.ExpiresAt,
		code.CreatedAt,
	)
	if err != nil {
		return translateDuplicate(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	code.ID = uint64(id)
	return nil
}

// FindByCodeAndEmailForUpdate locks the matching row so that concurrent
// redemption attempts for the same code are serialized.
func (r *AuthCodeRepository) FindByCodeAndEmailForUpdate(ctx context.Context, code int64, email string) (*entity.AuthCode, error) {
	query := `
		SELECT ac.id, ac.user_id, ac.code, ac.expires_at, ac.created_at
		FROM auth_codes ac
		JOIN users u ON u.id = ac.user_id
		WHERE ac.code = ? AND u.email = ?
		FOR UPDATE
	`
	ac := &entity.AuthCode{}
	err := r.db.QueryRowContext(ctx, query, code, email).Scan(
		&ac.ID,
		&ac.UserID,
		&ac.Code,
		&ac.ExpiresAt,
		&ac.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ac, nil
}

func (r *AuthCodeRepository) DeleteByID(ctx context.Context, id uint64) (int64, error) {
	query := `DELETE FROM auth_codes WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AuthCodeRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM auth_codes WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteExpired removes every auth code past its expiry. Called lazily
// before issuing or redeeming; there is no background sweeper.
func (r *AuthCodeRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `DELETE FROM auth_codes WHERE expires_at <= ?`
	_, err := r.db.ExecContext(ctx, query, now)
	return err
}
