package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/lib/jwt"
	"pyeongsan_church/internal/repository"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrTokenNotInStorage  = errors.New("token not found in storage")
)

const (
	AccessTokenExpire  = 15 * time.Minute
	RefreshTokenExpire = 7 * 24 * time.Hour
)

type TokenService struct {
	repo       repository.TokenRepository
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(repo repository.TokenRepository, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = AccessTokenExpire
	}
	if refreshTTL <= 0 {
		refreshTTL = RefreshTokenExpire
	}

	return &TokenService{
		repo:       repo,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	const op = "services.TokenService.GenerateTokens"

	accessToken, err := jwt.NewToken(user, s.secret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := jwt.NewToken(user, s.secret, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.repo.SaveRefreshToken(ctx, user.ID.String(), refreshToken, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens выдает новую пару и отзывает использованный refresh-токен
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "services.TokenService.RefreshTokens"

	claims, err := jwt.Parse(refreshToken, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTokenClaims)
	}

	exists, err := s.repo.GetRefreshToken(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotInStorage)
	}

	if err := s.repo.DeleteRefreshToken(ctx, claims.UserID, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GenerateTokens(ctx, models.User{
		ID:      userID,
		Email:   claims.Email,
		IsAdmin: claims.Admin,
	})
}

// ParseAccess проверяет access-токен
func (s *TokenService) ParseAccess(accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.Parse(accessToken, s.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RevokeAll завершает все сессии пользователя
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	const op = "services.TokenService.RevokeAll"

	if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *TokenService) Secret() string {
	return s.secret
}
