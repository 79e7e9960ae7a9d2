package models

import (
	"time"

	"github.com/google/uuid"
)

type Notice struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ImageURL     *string    `json:"image_url"`
	Published    bool       `json:"published"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	CommentCount int        `json:"comment_count"`
}
