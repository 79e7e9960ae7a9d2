package repository

import (
	"context"
	"time"

	"pyeongsan_church/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

type GalleryRepository interface {
	CreateGallery(ctx context.Context, gallery models.Gallery) (uuid.UUID, error)
	UpdateGallery(ctx context.Context, gallery models.Gallery) error
	DeleteGallery(ctx context.Context, id uuid.UUID) error
	GetGalleryByID(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	GetGalleries(ctx context.Context, page, perPage int) ([]models.Gallery, int, error)
	ImageURLs(ctx context.Context) ([]string, error)
}

type NoticeRepository interface {
	CreateNotice(ctx context.Context, notice models.Notice) (uuid.UUID, error)
	UpdateNotice(ctx context.Context, notice models.Notice) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	DeleteNotice(ctx context.Context, id uuid.UUID) error
	GetNoticeByID(ctx context.Context, id uuid.UUID) (models.Notice, error)
	GetNotices(ctx context.Context, publishedOnly bool, page, perPage int) ([]models.Notice, int, error)
	ImageURLs(ctx context.Context) ([]string, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	GetComments(ctx context.Context, postType models.PostType, postID uuid.UUID) ([]models.Comment, error)
	CountByPosts(ctx context.Context, postType models.PostType, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
