package repository

import (
	"context"

	"authservice/internal/model"

	"gorm.io/gorm"
)

// TokenRepository persists refresh tokens for revocation checks.
type TokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeAllForUser(ctx context.Context, userEmail string) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var row model.RefreshToken
	if err := GetDB(ctx, r.db).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, token string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *tokenRepository) RevokeAllForUser(ctx context.Context, userEmail string) error {
	return GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("user_email = ? AND revoked = ?", userEmail, false).
		Update("revoked", true).Error
}
