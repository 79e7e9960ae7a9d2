package models

import (
	"time"

	"github.com/google/uuid"
)

type PostType string

const (
	PostTypeGallery PostType = "gallery"
	PostTypeNotice  PostType = "notice"
)

func (p PostType) Valid() bool {
	return p == PostTypeGallery || p == PostTypeNotice
}

// Comment комментарий к записи галереи или объявлению
type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostType   PostType  `json:"post_type"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorName *string   `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
