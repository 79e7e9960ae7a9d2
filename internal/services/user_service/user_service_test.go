package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) UserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockTokenService) RevokeAll(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	testPassword := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	testUser := models.User{
		ID:       uuid.New(),
		Email:    "pastor@church.test",
		Password: hashedPassword,
		IsAdmin:  true,
	}
	expectedTokens := &models.TokenPair{
		UserID:       testUser.ID,
		AccessToken:  "test_access_token",
		RefreshToken: "test_refresh_token",
	}

	tests := []struct {
		name        string
		email       string
		password    string
		mockSetup   func(repo *MockUserRepository, tokens *MockTokenService)
		wantError   bool
		expectedErr error
	}{
		{
			name:     "successful login",
			email:    "  Pastor@Church.test ",
			password: testPassword,
			mockSetup: func(repo *MockUserRepository, tokens *MockTokenService) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil).Once()
				repo.On("UpdateLastLogin", ctx, testUser.ID).Return(nil).Once()
				tokens.On("GenerateTokens", ctx, testUser).Return(expectedTokens, nil).Once()
			},
		},
		{
			name:     "last login failure does not block login",
			email:    testUser.Email,
			password: testPassword,
			mockSetup: func(repo *MockUserRepository, tokens *MockTokenService) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil).Once()
				repo.On("UpdateLastLogin", ctx, testUser.ID).Return(errors.New("db down")).Once()
				tokens.On("GenerateTokens", ctx, testUser).Return(expectedTokens, nil).Once()
			},
		},
		{
			name:     "invalid password",
			email:    testUser.Email,
			password: "wrong_password",
			mockSetup: func(repo *MockUserRepository, tokens *MockTokenService) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil).Once()
			},
			wantError:   true,
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:     "user not found",
			email:    "nobody@church.test",
			password: testPassword,
			mockSetup: func(repo *MockUserRepository, tokens *MockTokenService) {
				repo.On("UserByEmail", ctx, "nobody@church.test").
					Return(models.User{}, storage.ErrUserNotFound).Once()
			},
			wantError:   true,
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:     "token error",
			email:    testUser.Email,
			password: testPassword,
			mockSetup: func(repo *MockUserRepository, tokens *MockTokenService) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil).Once()
				repo.On("UpdateLastLogin", ctx, testUser.ID).Return(nil).Once()
				tokens.On("GenerateTokens", ctx, testUser).Return(nil, errors.New("redis down")).Once()
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tokens := new(MockTokenService)
			tt.mockSetup(repo, tokens)

			service := NewUserService(discardLogger(), repo, tokens)

			got, err := service.Login(ctx, tt.email, tt.password)

			if tt.wantError {
				require.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, expectedTokens, got)
			}
			repo.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestUserService_AdminCapability(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name        string
		mockSetup   func(repo *MockUserRepository)
		wantCap     bool
		expectedErr error
	}{
		{
			name: "admin",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("IsAdmin", ctx, userID).Return(true, nil).Once()
			},
			wantCap: true,
		},
		{
			name: "not admin",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("IsAdmin", ctx, userID).Return(false, nil).Once()
			},
			expectedErr: models.ErrForbidden,
		},
		{
			name: "deleted user",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("IsAdmin", ctx, userID).Return(false, storage.ErrUserNotFound).Once()
			},
			expectedErr: models.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			service := NewUserService(discardLogger(), repo, new(MockTokenService))

			capability, err := service.AdminCapability(ctx, userID)

			if tt.wantCap {
				require.NoError(t, err)
				assert.True(t, capability.Valid())
				assert.Equal(t, userID, capability.UserID)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.False(t, capability.Valid())
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(discardLogger(), repo, new(MockTokenService))
		newID := uuid.New()

		repo.On("UserByEmail", ctx, "admin@church.test").Return(models.User{}, storage.ErrUserNotFound).Once()
		repo.On("SaveUser", ctx, mock.MatchedBy(func(u models.User) bool {
			return u.IsAdmin && u.Email == "admin@church.test" &&
				bcrypt.CompareHashAndPassword(u.Password, []byte("secret")) == nil
		})).Return(newID, nil).Once()

		id, err := service.EnsureAdmin(ctx, "Admin", "Admin@church.test", "secret")
		require.NoError(t, err)
		assert.Equal(t, newID, id)
		repo.AssertExpectations(t)
	})

	t.Run("keeps existing account", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(discardLogger(), repo, new(MockTokenService))
		existing := models.User{ID: uuid.New(), Email: "admin@church.test", IsAdmin: true}

		repo.On("UserByEmail", ctx, "admin@church.test").Return(existing, nil).Once()

		id, err := service.EnsureAdmin(ctx, "Admin", "admin@church.test", "secret")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, id)
		repo.AssertNotCalled(t, "SaveUser", mock.Anything, mock.Anything)
	})
}

func TestUserService_Logout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tokens := new(MockTokenService)
	service := NewUserService(discardLogger(), new(MockUserRepository), tokens)

	tokens.On("RevokeAll", ctx, userID.String()).Return(nil).Once()
	require.NoError(t, service.Logout(ctx, userID))

	tokens.On("RevokeAll", ctx, userID.String()).Return(errors.New("redis down")).Once()
	assert.ErrorContains(t, service.Logout(ctx, userID), "redis down")

	tokens.AssertExpectations(t)
}

func TestUserService_GetUserById(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := NewUserService(discardLogger(), repo, new(MockTokenService))
	missing := uuid.New()

	repo.On("GetUserById", ctx, missing).Return(models.User{}, storage.ErrUserNotFound).Once()

	_, err := service.GetUserById(ctx, missing)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
