package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-shop-auth/app/entity"
)

type ConfirmCodeRepository struct {
	db DBTX
}

func NewConfirmCodeRepository(db DBTX) *ConfirmCodeRepository {
	return &ConfirmCodeRepository{db: db}
}

func (r *ConfirmCodeRepository) Create(ctx context.Context, code *entity.ConfirmCode) error {
	query := `
		INSERT INTO confirm_codes (user_id, code, created_at)
		VALUES (?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		code.UserID,
		code.Code,
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

func (r *ConfirmCodeRepository) FindByCodeAndUserIDForUpdate(ctx context.Context, code string, userID uint64) (*entity.ConfirmCode, error) {
	query := `
		SELECT id, user_id, code, created_at
		FROM confirm_codes WHERE code = ? AND user_id = ?
		FOR UPDATE
	`
	cc := &entity.ConfirmCode{}
	err := r.db.QueryRowContext(ctx, query, code, userID).Scan(
		&cc.ID,
		&cc.UserID,
		&cc.Code,
		&cc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func (r *ConfirmCodeRepository) DeleteByID(ctx context.Context, id uint64) (int64, error) {
	query := `DELETE FROM confirm_codes WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ConfirmCodeRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM confirm_codes WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
