package jwt

import (
	"errors"
	"fmt"
	"time"

	"pyeongsan_church/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims содержимое access и refresh токенов
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Admin  bool   `json:"adm"`
	jwt.RegisteredClaims
}

func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

func NewToken(user models.User, secret string, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Admin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			// ID делает токены уникальными даже при выпуске в одну секунду
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	})

	return token.SignedString([]byte(secret))
}

// Parse проверяет подпись и срок действия токена
func Parse(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
