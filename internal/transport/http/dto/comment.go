package dto

import "github.com/google/uuid"

type CreateCommentRequest struct {
	PostType   string    `json:"post_type" validate:"required,oneof=gallery notice"`
	PostID     uuid.UUID `json:"post_id" validate:"required"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content" validate:"required"`
}

type ListCommentsQuery struct {
	PostType string `query:"post_type" validate:"required,oneof=gallery notice"`
	PostID   string `query:"post_id" validate:"required,uuid"`
}
