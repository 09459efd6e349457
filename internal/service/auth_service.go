package service

import (
	"context"
	"errors"
	"time"

	"authservice/internal/apperror"
	"authservice/internal/model"
	"authservice/internal/repository"
	"authservice/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Verified bool   `json:"verified"`
}

// --- Interface ---

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users      repository.UserRepository
	txm        repository.TransactionManager
	tokens     *token.Service
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	txm repository.TransactionManager,
	tokens *token.Service,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		users:      users,
		txm:        txm,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("EMAIL_EXISTS", "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Database("USER_RETRIEVAL_ERROR", "failed to check email", err)
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("USERNAME_EXISTS", "this username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Database("USER_RETRIEVAL_ERROR", "failed to check username", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("PASSWORD_HASH_ERROR", "failed to hash password", err)
	}

	user := model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
	}
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.users.Create(txCtx, &user)
	})
	if err != nil {
		return nil, apperror.Database("USER_CREATION_ERROR", "failed to create user", err)
	}

	return &UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Phone:    user.Phone,
		Verified: user.Verified,
	}, nil
}

// Login verifies credentials and returns an access/refresh token pair. A
// wrong email and a wrong password produce the same error.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "incorrect email or password")
	}

	return s.issuePair(ctx, user)
}

// Refresh trades a valid refresh token for a new access token. The refresh
// token itself is rotated: the old row is revoked and a new one issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	claims, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	subject, _ := claims["sub"].(string)
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "could not validate credentials")
	}

	if err := s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperror.Database("TOKEN_REVOCATION_ERROR", "failed to revoke refresh token", err)
	}

	return s.issuePair(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return apperror.Database("TOKEN_REVOCATION_ERROR", "failed to revoke refresh token", err)
	}
	return nil
}

func (s *authService) issuePair(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	now := time.Now().UTC().Unix()
	accessClaims := token.Claims{
		"sub":      user.Email,
		"email":    user.Email,
		"username": user.Username,
		"iat":      now,
	}
	accessToken, err := s.tokens.CreateAccessToken(accessClaims, s.accessTTL)
	if err != nil {
		return nil, apperror.Internal("TOKEN_CREATION_ERROR", "failed to create access token", err)
	}

	// jti keeps rapidly rotated tokens distinct; the token column is unique.
	refreshClaims := token.Claims{
		"sub": user.Email,
		"iat": now,
		"jti": uuid.NewString(),
	}
	refreshToken, err := s.tokens.CreateRefreshToken(ctx, refreshClaims, s.refreshTTL)
	if err != nil {
		return nil, apperror.Internal("TOKEN_CREATION_ERROR", "failed to create refresh token", err)
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}
