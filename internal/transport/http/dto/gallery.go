package dto

import (
	"time"

	"pyeongsan_church/internal/domain/models"

	"github.com/google/uuid"
)

// GalleryResponse галерея для публичной страницы и админки
type GalleryResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Images         []string   `json:"images"`          // Изображения для показа, у старых записей только обложка
	ThumbnailURL   *string    `json:"thumbnail_url"`   // Сохраненная обложка
	CoverURL       string     `json:"cover_url"`       // Обложка после цепочки замен, либо заглушка
	ThumbnailIndex int        `json:"thumbnail_index"` // Позиция обложки в Images
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type GalleryListResponse struct {
	Items      []GalleryResponse `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, perPage, total int) Pagination {
	p := Pagination{Page: page, PerPage: perPage, Total: total}
	if perPage > 0 {
		p.TotalPages = (total + perPage - 1) / perPage
	}

	return p
}

func NewGalleryResponse(g models.Gallery, placeholder string) GalleryResponse {
	cover := g.Cover()
	if cover == "" {
		cover = placeholder
	}

	images := g.DisplayImages()
	if images == nil {
		images = []string{}
	}

	return GalleryResponse{
		ID:             g.ID,
		Title:          g.Title,
		Description:    g.Description,
		Images:         images,
		ThumbnailURL:   g.ThumbnailURL,
		CoverURL:       cover,
		ThumbnailIndex: g.ThumbnailIndex(),
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func NewGalleryListResponse(galleries []models.Gallery, page, perPage, total int, placeholder string) GalleryListResponse {
	items := make([]GalleryResponse, 0, len(galleries))
	for _, g := range galleries {
		items = append(items, NewGalleryResponse(g, placeholder))
	}

	return GalleryListResponse{
		Items:      items,
		Pagination: NewPagination(page, perPage, total),
	}
}

// OpenSessionRequest gallery_id не указывается при создании новой галереи
type OpenSessionRequest struct {
	GalleryID *uuid.UUID `json:"gallery_id"`
}

// UpdateSessionRequest поля без значения не изменяются
type UpdateSessionRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type SetThumbnailRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}
