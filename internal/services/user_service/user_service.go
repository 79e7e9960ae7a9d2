package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/repository"
	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExist          = errors.New("user already exist")
	ErrUserNotFound       = errors.New("user not found")
)

type TokenProvider interface {
	GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error)
	RevokeAll(ctx context.Context, userID string) error
}

type UserService struct {
	log    *slog.Logger
	repo   repository.UserRepository
	tokens TokenProvider
}

func NewUserService(log *slog.Logger, repo repository.UserRepository, tokens TokenProvider) *UserService {
	return &UserService{
		log:    log,
		repo:   repo,
		tokens: tokens,
	}
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "services.UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))

			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to update last login", sl.Err(err))
	}

	tokens, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		log.Error("failed to generate tokens", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return tokens, nil
}

// Logout отзывает все refresh-токены пользователя
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "services.UserService.Logout"

	if err := s.tokens.RevokeAll(ctx, userID.String()); err != nil {
		s.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *UserService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "services.UserService.IsAdmin"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	isAdmin, err := s.repo.IsAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("checked if user is admin", slog.Bool("is_admin", isAdmin))

	return isAdmin, nil
}

// AdminCapability выдает право на изменение контента, если пользователь администратор
func (s *UserService) AdminCapability(ctx context.Context, userID uuid.UUID) (models.AdminCapability, error) {
	const op = "services.UserService.AdminCapability"

	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.AdminCapability{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
		}
		return models.AdminCapability{}, fmt.Errorf("%s: %w", op, err)
	}
	if !isAdmin {
		return models.AdminCapability{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	return models.AdminCapability{UserID: userID}, nil
}

func (s *UserService) GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "services.UserService.GetUserById"

	user, err := s.repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// EnsureAdmin создает учетную запись администратора из конфигурации при первом запуске
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (uuid.UUID, error) {
	const op = "services.UserService.EnsureAdmin"

	email = strings.ToLower(strings.TrimSpace(email))

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	existing, err := s.repo.UserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin {
			log.Warn("configured admin account exists without admin rights")
		}
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SaveUser(ctx, models.User{
		Name:     name,
		Email:    email,
		Password: passHash,
		IsAdmin:  true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserExist)
		}
		log.Error("failed to save user", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account created", slog.String("user_id", id.String()))

	return id, nil
}
