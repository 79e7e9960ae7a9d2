package dto

import (
	"time"

	"pyeongsan_church/internal/domain/models"

	"github.com/google/uuid"
)

type NoticeResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ImageURL     *string    `json:"image_url"`
	Published    bool       `json:"published"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	CommentCount *int       `json:"comment_count,omitempty"`
}

type NoticeListResponse struct {
	Items      []NoticeResponse `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

type SetPublishedRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// NewNoticeResponse withCount добавляет число комментариев (только для админки)
func NewNoticeResponse(n models.Notice, withCount bool) NoticeResponse {
	resp := NoticeResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		ImageURL:  n.ImageURL,
		Published: n.Published,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if withCount {
		count := n.CommentCount
		resp.CommentCount = &count
	}

	return resp
}

func NewNoticeListResponse(notices []models.Notice, page, perPage, total int, withCount bool) NoticeListResponse {
	items := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		items = append(items, NewNoticeResponse(n, withCount))
	}

	return NoticeListResponse{
		Items:      items,
		Pagination: NewPagination(page, perPage, total),
	}
}
